package prefetcher

import (
	"github.com/sarchlab/streamprefetch/sim/hooking"
	"github.com/sarchlab/streamprefetch/sim/id"
	"github.com/sarchlab/streamprefetch/sim/naming"
)

// Stats summarizes an engine's lifetime activity, returned from
// FinalStats and exposed live for the monitor package's /stats endpoint.
type Stats struct {
	StreamsCreated          uint64
	StreamsReactivated      uint64
	StreamsTerminated       uint64
	DeadStreamsReclaimed    uint64
	PrefetchesIssued        uint64
	PrefetchesDropped       uint64
	PhaseTransitionsEntered uint64
}

// Engine is the region-indexed training and stream-tracking engine. One
// Engine implements either the enhanced or the transformer variant,
// chosen at construction by NewEnhanced or NewTransformer; both share
// every table and helper their behavior has in common, and differ only
// in the handful of places documented in the component design (variant
// field checks and the optional groups/patterns/phase components, which
// are nil in enhanced mode).
type Engine struct {
	hooking.HookableBase
	naming.NamedBase

	variant Variant
	cfg     Config
	host    Host
	idGen   id.IDGenerator

	clock          uint64
	cleanupCounter uint64

	training *TrainingTable
	streams  *StreamTable
	groups   *GroupTable
	patterns *PatternHistory
	phase    *PhaseMonitor

	stats Stats
}

// Now reports the engine's logical clock as a float64, satisfying
// hooking.TimeTeller so a caller can hand the engine itself to the
// tracers in sim/hooking without a separate clock adapter.
func (e *Engine) Now() float64 { return float64(e.clock) }

// WithName overrides the engine's default variant-derived name, so a CLI
// running several engines side by side can give each a name distinct
// enough to be useful in recorded rows and logs.
func (e *Engine) WithName(name string) *Engine {
	e.NamedBase = naming.MakeNamedBase(name)
	return e
}

// NewEnhanced constructs a baseline stream-prefetcher engine.
func NewEnhanced(host Host, cfg Config) *Engine {
	cfg.Variant = VariantEnhanced
	e := &Engine{
		NamedBase: naming.MakeNamedBase("enhanced"),
		variant:   VariantEnhanced,
		cfg:       cfg,
		host:      host,
		idGen:     id.NewIDGenerator(),
	}
	e.resetTables()
	return e
}

// NewTransformer constructs a transformer stream-prefetcher engine, with
// stream grouping, pattern-history reinforcement, and phase-aware
// throttling enabled.
func NewTransformer(host Host, cfg Config) *Engine {
	cfg.Variant = VariantTransformer
	e := &Engine{
		NamedBase: naming.MakeNamedBase("transformer"),
		variant:   VariantTransformer,
		cfg:       cfg,
		host:      host,
		idGen:     id.NewIDGenerator(),
	}
	e.resetTables()
	return e
}

func (e *Engine) resetTables() {
	e.clock = 0
	e.cleanupCounter = 0
	e.stats = Stats{}

	e.training = NewTrainingTable(e.cfg.TrainingTableSize, e.cfg.RegionSizeBlocks)
	e.streams = NewStreamTable(e.cfg.StreamTableSize)

	if e.variant != VariantTransformer {
		e.groups, e.patterns, e.phase = nil, nil, nil
		return
	}

	e.groups = NewGroupTable(e.cfg.MaxStreamGroups)
	e.patterns = NewPatternHistory(
		e.cfg.PatternHistorySize, e.cfg.RegionSizeBlocks, e.cfg.ReuseWindowSize,
		e.cfg.DenseLengthMin, e.cfg.MaxConfidence,
	)
	e.phase = NewPhaseMonitor(
		e.cfg.PhaseWindowSize, e.cfg.PhaseTransitionThreshold, e.cfg.PhaseRecoveryWindow,
		e.cfg.PrefetchDegree, e.cfg.MinPrefetchDegree,
	)

	patterns := e.patterns
	clockOf := func() uint64 { return e.clock }
	e.training.confidenceLookup = func(dir Direction, stride int64, region BlockNumber) uint32 {
		return patterns.Confidence(dir, stride, region, clockOf())
	}
}

// Initialize (re-)establishes empty tables and a zeroed logical clock. It
// is safe to call on an already-used Engine to reset it for a new run.
func (e *Engine) Initialize() {
	e.resetTables()
}

// Variant reports which of the two documented engines this instance is.
func (e *Engine) Variant() Variant { return e.variant }

// Clock returns the current logical timestamp.
func (e *Engine) Clock() uint64 { return e.clock }

// OnAccess is the engine's response to a cache access. It trains on
// misses only; hits are a no-op. ip, usefulPrefetch, and accessType are
// accepted to satisfy the host contract but are not consulted by this
// engine: no PC- or access-type-based learning is performed.
func (e *Engine) OnAccess(
	addr BlockNumber, ip uint64, hit bool, usefulPrefetch bool,
	accessType AccessType, metadataIn Metadata,
) Metadata {
	_, _, _ = ip, usefulPrefetch, accessType

	if hit {
		return metadataIn
	}

	e.clock++
	if e.phase != nil {
		e.phase.OnEvent(false)
	}

	e.cleanupCounter++
	if e.cleanupCounter >= e.cfg.CleanupInterval {
		e.removeDeadStreams()
		e.cleanupCounter = 0
	}

	missBlock := addr
	region := regionBase(missBlock, e.cfg.RegionSizeBlocks)

	if idx := e.streams.FindStreamForBlock(missBlock); idx >= 0 {
		e.touchStream(idx)
		return metadataIn
	}

	trainIdx := e.training.Find(region)
	if trainIdx < 0 {
		trainIdx = e.training.Allocate(region, e.clock)
	}
	e.training.Update(trainIdx, missBlock, e.clock)

	if e.training.Confirmed(trainIdx, e.cfg.ConfirmationThreshold, e.cfg.FastTrackConfidence) {
		trained := *e.training.Entry(trainIdx)
		if !e.tryRelaunch(missBlock, trained.Direction, trained.Stride) {
			e.createStream(trained)
		}
		e.training.Invalidate(trainIdx)
	}

	return metadataIn
}

// touchStream handles a miss that lands inside an already-tracked
// stream's oriented range: a lightweight reactivation distinct from the
// fuller reactivateStream used by tryRelaunch, matching the reference
// implementation's two separate code paths.
func (e *Engine) touchStream(idx int) {
	entry := e.streams.Entry(idx)
	entry.LastTriggerTS = e.clock

	if !entry.Active {
		entry.Active = true
		if e.variant == VariantTransformer {
			entry.ReactivationCount++
		}
	}

	if e.variant == VariantTransformer {
		e.reinforceConfidence(idx)
	}

	e.generatePrefetches(idx)
}

func (e *Engine) reinforceConfidence(idx int) {
	entry := e.streams.Entry(idx)
	if entry.Confidence+1 > e.cfg.MaxConfidence {
		entry.Confidence = e.cfg.MaxConfidence
	} else {
		entry.Confidence++
	}

	if entry.GroupID >= 0 {
		e.groups.Group(int(entry.GroupID)).GroupConfidence++
	}
}

// OnFill is invoked on every cache line install. The stream engine does
// not train on fills; only the selector layer reads this call.
func (e *Engine) OnFill(
	addr BlockNumber, set, way int, wasPrefetch bool, evictedAddr BlockNumber, metadataIn Metadata,
) Metadata {
	_, _, _, _, _ = addr, set, way, wasPrefetch, evictedAddr
	return metadataIn
}

// OnCycle drives background prefetching for every active stream. It is
// called once per simulated cycle by the host.
func (e *Engine) OnCycle() {
	for i := 0; i < e.streams.Len(); i++ {
		entry := e.streams.Entry(i)
		if entry.Valid && entry.Active {
			e.generatePrefetches(i)
		}
	}
}

// FinalStats returns the engine's lifetime activity counters.
func (e *Engine) FinalStats() Stats {
	return e.stats
}

func (e *Engine) tryRelaunch(missBlock BlockNumber, dir Direction, stride int64) bool {
	region := regionBase(missBlock, e.cfg.RegionSizeBlocks)
	match := e.streams.FindMatchingInactiveStream(dir, stride, region, e.cfg.RegionSizeBlocks)
	if match < 0 {
		return false
	}
	e.reactivateStream(match, missBlock)
	return true
}

// reactivateStream is the fuller re-launch path: it extends the stream's
// end boundary (via the single, direction-aware extendEnd helper — see
// region.go and DESIGN.md for why this is centralised rather than
// duplicated per direction) and, in the transformer variant, boosts
// confidence and restores group membership.
func (e *Engine) reactivateStream(idx int, trigger BlockNumber) {
	entry := e.streams.Entry(idx)

	entry.Active = true
	entry.LastTriggerTS = e.clock
	entry.ReactivationCount++
	entry.Current = trigger

	candidateEnd := computeStreamEnd(entry.Direction, trigger, entry.Stride, e.cfg.EndHorizon)
	entry.End = extendEnd(entry.Direction, entry.End, candidateEnd)

	if e.variant == VariantTransformer {
		boosted := entry.Confidence + e.cfg.ConfidenceBoostOnReuse
		if boosted > e.cfg.MaxConfidence {
			boosted = e.cfg.MaxConfidence
		}
		entry.Confidence = boosted

		if entry.GroupID < 0 {
			groupIdx := e.findOrCreateGroup(entry.Direction, entry.Stride)
			e.addToGroup(idx, groupIdx)
		}
	}

	e.stats.StreamsReactivated++
	e.generatePrefetches(idx)
}

func (e *Engine) createStream(trained TrainingEntry) {
	idx := e.allocateStreamEntry()
	if idx < 0 {
		return
	}

	entry := e.streams.Entry(idx)
	*entry = StreamEntry{
		Valid:         true,
		Active:        true,
		Direction:     trained.Direction,
		Stride:        trained.Stride,
		Start:         trained.History[0],
		Current:       trained.History[0],
		LastTriggerTS: e.clock,
		GroupID:       -1,
	}
	entry.End = computeStreamEnd(entry.Direction, entry.Start, entry.Stride, e.cfg.EndHorizon)
	entry.Confidence = max32(1, trained.PatternConfidence)
	entry.TaskID = e.Name() + "-" + e.idGen.Generate()

	if e.variant == VariantTransformer {
		entry.Class = classifyStream(entry.Stride, entry.StreamLength, e.cfg.DenseStrideMax, e.cfg.MediumStrideMax, e.cfg.DenseLengthMin, e.cfg.MediumLengthMin)
		groupIdx := e.findOrCreateGroup(entry.Direction, entry.Stride)
		e.addToGroup(idx, groupIdx)
	}

	e.stats.StreamsCreated++

	if e.NumHooks() > 0 {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    hooking.HookPosTaskStart,
			Item: hooking.TaskStart{
				ID:    entry.TaskID,
				Kind:  "stream",
				What:  entry.Class.String(),
				Where: e.variant.String(),
			},
		})
	}

	e.generatePrefetches(idx)
}

func (e *Engine) findOrCreateGroup(dir Direction, stride int64) int {
	return e.groups.FindOrCreate(
		dir, stride, e.clock, e.cfg.DenseStrideMax, e.cfg.MediumStrideMax,
		func(streamIdx int) { e.streams.Entry(streamIdx).GroupID = -1 },
	)
}

func (e *Engine) addToGroup(streamIdx, groupIdx int) {
	class, ok := e.groups.AddMember(groupIdx, streamIdx)
	if !ok {
		return
	}
	entry := e.streams.Entry(streamIdx)
	entry.GroupID = int32(groupIdx)
	entry.Class = class
}

func classifyStream(stride int64, length uint32, denseMax, mediumMax int64, denseLenMin, mediumLenMin uint32) StreamClass {
	if stride <= denseMax {
		if length >= denseLenMin {
			return ClassDense
		}
		return ClassMedium
	}
	if stride <= mediumMax {
		if length >= mediumLenMin {
			return ClassMedium
		}
		return ClassSparse
	}
	return ClassSparse
}

func (e *Engine) prefetchDegreeFor(entry *StreamEntry) uint32 {
	if e.variant != VariantTransformer {
		return e.cfg.PrefetchDegree
	}

	classDegree := e.degreeForClass(entry.Class)
	safeLookahead := e.safeLookahead(entry)

	degree := e.phase.CurrentDegree()
	if classDegree < degree {
		degree = classDegree
	}
	if safeLookahead < degree {
		degree = safeLookahead
	}

	if e.phase.InTransition() && e.cfg.MinPrefetchDegree < degree {
		degree = e.cfg.MinPrefetchDegree
	}
	return degree
}

func (e *Engine) degreeForClass(class StreamClass) uint32 {
	switch class {
	case ClassDense:
		return e.cfg.DensePrefetchDegree
	case ClassMedium:
		return e.cfg.MediumPrefetchDegree
	case ClassSparse:
		return e.cfg.SparsePrefetchDegree
	default:
		return e.cfg.PrefetchDegree
	}
}

func (e *Engine) safeLookahead(entry *StreamEntry) uint32 {
	if entry.ConsistentStrideCount >= e.cfg.StrideStabilityThreshold {
		if entry.Class == ClassDense {
			return e.cfg.AggressiveLookahead
		}
		return e.cfg.PrefetchDegree
	}
	return e.cfg.ConservativeLookahead
}

func (e *Engine) atStrideBoundary(entry *StreamEntry) bool {
	var remaining int64
	if entry.Direction == DirectionPositive {
		remaining = gap(entry.Current, entry.End)
	} else {
		remaining = gap(entry.End, entry.Current)
	}
	return remaining <= entry.Stride
}

func (e *Engine) generatePrefetches(idx int) {
	entry := e.streams.Entry(idx)
	if !entry.Valid || !entry.Active {
		return
	}

	degree := e.prefetchDegreeFor(entry)

	for i := uint32(0); i < degree; i++ {
		next := entry.Current + BlockNumber(int64(entry.Direction)*entry.Stride)

		if passedEnd(entry.Direction, next, entry.End) {
			entry.Active = false
			return
		}

		if e.variant == VariantTransformer && i > 0 && e.atStrideBoundary(entry) {
			break
		}

		ratio := e.host.MSHROccupancyRatio()
		if ratio > 0.75 {
			return
		}

		fillThisLevel := ratio < 0.5
		if !e.host.PrefetchLine(next, fillThisLevel) {
			e.stats.PrefetchesDropped++
			return
		}

		entry.Current = next
		entry.StreamLength++
		e.stats.PrefetchesIssued++

		if e.NumHooks() > 0 {
			e.InvokeHook(hooking.HookCtx{
				Domain: e,
				Pos:    hooking.HookPosTaskStep,
				Item: hooking.TaskStep{
					TaskID: entry.TaskID,
					StepID: e.idGen.Generate(),
					Kind:   "prefetch",
					What:   "issue",
				},
			})
		}

		if e.variant == VariantTransformer {
			entry.ConsistentStrideCount++
			if entry.StreamLength%8 == 0 {
				e.updateClassification(idx)
			}
		}
	}

	entry.LastTriggerTS = e.clock
}

func (e *Engine) updateClassification(idx int) {
	entry := e.streams.Entry(idx)
	entry.Class = classifyStream(entry.Stride, entry.StreamLength, e.cfg.DenseStrideMax, e.cfg.MediumStrideMax, e.cfg.DenseLengthMin, e.cfg.MediumLengthMin)
	if entry.GroupID >= 0 {
		e.groups.SetTypicalClass(int(entry.GroupID), entry.Class)
	}

	if e.NumHooks() > 0 {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    hooking.HookPosTaskTag,
			Item: hooking.TaskTag{
				TaskID: entry.TaskID,
				What:   "reclassified",
				Detail: entry.Class.String(),
			},
		})
	}
}

func (e *Engine) isDead(entry *StreamEntry) bool {
	age := e.clock - entry.LastTriggerTS
	return age > e.cfg.DeadStreamThreshold && entry.StreamLength < e.cfg.ShortStreamThreshold
}

func (e *Engine) removeDeadStreams() {
	for i := 0; i < e.streams.Len(); i++ {
		entry := e.streams.Entry(i)
		if !entry.Valid {
			continue
		}

		dead := e.isDead(entry)
		if dead && e.variant == VariantTransformer && e.groups.IsProtected(int(entry.GroupID)) {
			if entry.Confidence >= e.cfg.FastTrackConfidence {
				dead = false
			}
		}

		if dead {
			e.terminateStream(i)
		}
	}
}

func (e *Engine) terminateStream(idx int) {
	entry := e.streams.Entry(idx)

	if e.variant == VariantTransformer {
		regionBase := entry.regionBase(e.cfg.RegionSizeBlocks)
		e.patterns.Record(entry.Direction, entry.Stride, regionBase, e.clock, entry.StreamLength, entry.Class)
		e.groups.RemoveMember(int(entry.GroupID), idx)
		e.phase.OnEvent(true)

		if e.NumHooks() > 0 {
			e.InvokeHook(hooking.HookCtx{
				Domain: e,
				Pos:    HookPosPatternRecorded,
				Item: PatternRecordedEvent{
					Direction:    entry.Direction,
					Stride:       entry.Stride,
					RegionBase:   regionBase,
					StreamLength: entry.StreamLength,
					Class:        entry.Class,
				},
			})
		}
	}

	if e.NumHooks() > 0 {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    hooking.HookPosTaskEnd,
			Item:   hooking.TaskEnd{ID: entry.TaskID},
		})
	}

	entry.Valid = false
	entry.Active = false
	e.stats.StreamsTerminated++
	e.stats.DeadStreamsReclaimed++
}

func (e *Engine) allocateStreamEntry() int {
	if idx := e.streams.FirstInvalid(); idx >= 0 {
		return idx
	}

	e.removeDeadStreams()

	if idx := e.streams.FirstInvalid(); idx >= 0 {
		return idx
	}

	if e.variant == VariantTransformer {
		victim := e.selectVictimStream()
		if victim >= 0 {
			e.terminateStream(victim)
		}
		return victim
	}

	if idx := e.streams.LRUDormant(); idx >= 0 {
		e.streams.Entry(idx).Valid = false
		return idx
	}

	if idx := e.streams.LRUOverall(); idx >= 0 {
		e.streams.Entry(idx).Valid = false
		return idx
	}

	return -1
}

func (e *Engine) selectVictimStream() int {
	victim := -1
	lowest := 0
	for i := 0; i < e.streams.Len(); i++ {
		entry := e.streams.Entry(i)
		if !entry.Valid {
			return i
		}

		priority := e.evictionPriority(entry)
		if victim < 0 || priority < lowest {
			lowest = priority
			victim = i
		}
	}
	return victim
}

func (e *Engine) evictionPriority(entry *StreamEntry) int {
	var priority int
	switch entry.Class {
	case ClassDense:
		priority = 30
	case ClassMedium:
		priority = 20
	case ClassSparse:
		priority = 10
	default:
		priority = 15
	}

	priority += int(entry.Confidence) * 2

	if entry.GroupID >= 0 {
		priority += e.groups.MemberCount(int(entry.GroupID)) * 3
	}

	if entry.Active {
		priority += 10
	}

	age := e.clock - entry.LastTriggerTS
	if age > e.cfg.DeadStreamThreshold/2 {
		priority -= 5
	}
	if age > e.cfg.DeadStreamThreshold {
		priority -= 10
	}

	return priority
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
