package selector

import (
	"math"

	"github.com/sarchlab/streamprefetch/monitor"
	"github.com/sarchlab/streamprefetch/prefetcher"
	"github.com/sarchlab/streamprefetch/sim/naming"
)

type samplerEntry struct {
	aUseful, aIssued uint64
	bUseful, bIssued uint64
}

type dedicatedStats struct {
	aUseful, aIssued uint64
	bUseful, bIssued uint64
}

// Selector dispatches cache accesses between two Cores by cache set,
// dedicating a slice of sets to each side, sampling a further slice
// that core A serves while usefulness is recorded per issuing core, and
// steering everything else by a saturating policy
// counter re-evaluated periodically from dedicated-set accuracy and
// coverage.
type Selector struct {
	naming.NamedBase

	cfg Config

	coreA, coreB Core

	sampleRate int
	samplers   []samplerEntry
	dedicated  dedicatedStats

	policySelector int
	cycleCount     uint64

	aSelectedCount, bSelectedCount uint64
	samplerAWins, samplerBWins     uint64
}

// New constructs a selector wrapping coreA and coreB. By convention (and
// as reflected in Snapshot's field names) coreA is the enhanced engine
// and coreB is the transformer engine, though the dueling logic itself
// treats them symmetrically.
func New(coreA, coreB Core, cfg Config) *Selector {
	rate := setSampleRate(cfg.NumSets)
	numSampled := cfg.NumSets / rate
	if numSampled < 1 {
		numSampled = 1
	}
	return &Selector{
		NamedBase:  naming.MakeNamedBase("selector"),
		cfg:        cfg,
		coreA:      coreA,
		coreB:      coreB,
		sampleRate: rate,
		samplers:   make([]samplerEntry, numSampled),
	}
}

// WithName overrides the selector's default name.
func (s *Selector) WithName(name string) *Selector {
	s.NamedBase = naming.MakeNamedBase(name)
	return s
}

func (s *Selector) category(set int) int {
	return setCategory(set, s.sampleRate)
}

func (s *Selector) isSampler(set int) bool    { return s.category(set) == 0 }
func (s *Selector) isDedicatedA(set int) bool { return s.category(set) == 1 }
func (s *Selector) isDedicatedB(set int) bool { return s.category(set) == 2 }

func (s *Selector) useCoreA(set int) bool {
	if s.isDedicatedA(set) {
		return true
	}
	if s.isDedicatedB(set) {
		return false
	}
	if s.isSampler(set) {
		return true
	}
	return s.policySelector >= 0
}

func (s *Selector) useCoreB(set int) bool {
	if s.isDedicatedB(set) {
		return true
	}
	if s.isDedicatedA(set) {
		return false
	}
	if s.isSampler(set) {
		return false
	}
	return s.policySelector < 0
}

func setOf(addr prefetcher.BlockNumber, numSets int) int {
	if numSets <= 0 {
		return 0
	}
	return int(int64(addr)) & (numSets - 1)
}

// OnAccess routes the access to whichever core owns addr's set,
// recording sampler/dedicated usefulness bookkeeping first, and tags the
// returned metadata with the source core.
func (s *Selector) OnAccess(
	addr prefetcher.BlockNumber, ip uint64, hit bool, usefulPrefetch bool,
	accessType prefetcher.AccessType, metadataIn prefetcher.Metadata,
) prefetcher.Metadata {
	set := setOf(addr, s.cfg.NumSets)

	if usefulPrefetch && hit {
		switch {
		case s.isSampler(set):
			idx := set / s.sampleRate
			if idx < len(s.samplers) {
				if IsCoreAPrefetch(metadataIn) {
					s.samplers[idx].aUseful++
				}
				if IsCoreBPrefetch(metadataIn) {
					s.samplers[idx].bUseful++
				}
			}
		case s.isDedicatedA(set):
			s.dedicated.aUseful++
		case s.isDedicatedB(set):
			s.dedicated.bUseful++
		}
	}

	// Sampler sets always dispatch to core A only, mirroring the
	// reference's single-Pythia-call sampler behavior; the pair of
	// stat slots recorded above is what makes the comparison possible
	// without paying for two live prefetch decisions per access.
	if s.isSampler(set) || s.useCoreA(set) {
		s.aSelectedCount++
		out := s.coreA.OnAccess(addr, ip, hit, usefulPrefetch, accessType, metadataIn)
		return TagCoreA(out)
	}
	if s.useCoreB(set) {
		s.bSelectedCount++
		out := s.coreB.OnAccess(addr, ip, hit, usefulPrefetch, accessType, metadataIn)
		return TagCoreB(out)
	}

	return metadataIn
}

// OnFill records issued-prefetch bookkeeping keyed by the metadata tag,
// then forwards the fill to both cores unconditionally, regardless of
// which one is currently favored.
func (s *Selector) OnFill(
	addr prefetcher.BlockNumber, set, way int, wasPrefetch bool, evictedAddr prefetcher.BlockNumber, metadataIn prefetcher.Metadata,
) prefetcher.Metadata {
	if wasPrefetch {
		switch {
		case s.isSampler(set):
			idx := set / s.sampleRate
			if idx < len(s.samplers) {
				if IsCoreAPrefetch(metadataIn) {
					s.samplers[idx].aIssued++
				}
				if IsCoreBPrefetch(metadataIn) {
					s.samplers[idx].bIssued++
				}
			}
		case s.isDedicatedA(set):
			s.dedicated.aIssued++
		case s.isDedicatedB(set):
			s.dedicated.bIssued++
		}
	}

	s.coreA.OnFill(addr, set, way, wasPrefetch, evictedAddr, metadataIn)
	s.coreB.OnFill(addr, set, way, wasPrefetch, evictedAddr, metadataIn)

	return metadataIn
}

// OnCycle advances both cores and, every PolicyUpdateInterval calls,
// re-evaluates the policy counter.
func (s *Selector) OnCycle() {
	s.cycleCount++
	if s.cycleCount%s.cfg.PolicyUpdateInterval == 0 {
		s.updatePolicy()
	}

	s.coreA.OnCycle()
	s.coreB.OnCycle()
}

func (s *Selector) updatePolicy() {
	totalAUseful, totalAIssued := s.dedicated.aUseful, s.dedicated.aIssued
	totalBUseful, totalBIssued := s.dedicated.bUseful, s.dedicated.bIssued

	for _, entry := range s.samplers {
		totalAUseful += entry.aUseful
		totalAIssued += entry.aIssued
		totalBUseful += entry.bUseful
		totalBIssued += entry.bIssued
	}

	if totalAIssued < s.cfg.MinIssuedForUpdate || totalBIssued < s.cfg.MinIssuedForUpdate {
		return
	}

	aAccuracy := float64(totalAUseful) / float64(totalAIssued)
	bAccuracy := float64(totalBUseful) / float64(totalBIssued)

	aScore := aAccuracy * (1.0 + math.Log(1.0+float64(totalAUseful)))
	bScore := bAccuracy * (1.0 + math.Log(1.0+float64(totalBUseful)))

	switch {
	case aScore > bScore*s.cfg.HysteresisRatio:
		s.policySelector = min(s.policySelector+1, s.cfg.PolicyMax)
		s.samplerAWins++
	case bScore > aScore*s.cfg.HysteresisRatio:
		s.policySelector = max(s.policySelector-1, s.cfg.PolicyMin)
		s.samplerBWins++
	}
}

// PolicySelector reports the current saturating policy counter value.
// Positive favors core A, negative favors core B.
func (s *Selector) PolicySelector() int { return s.policySelector }

// FinalStats returns the lifetime stats of core A and of core B, in that
// order.
func (s *Selector) FinalStats() (prefetcher.Stats, prefetcher.Stats) {
	return s.coreA.FinalStats(), s.coreB.FinalStats()
}

// Snapshot implements monitor.SnapshotSource.
func (s *Selector) Snapshot() monitor.Snapshot {
	enhanced, transformer := s.FinalStats()
	return monitor.Snapshot{
		Enhanced:       enhanced,
		Transformer:    transformer,
		PolicySelector: s.policySelector,
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
