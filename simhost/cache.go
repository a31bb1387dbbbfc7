package simhost

import "github.com/sarchlab/streamprefetch/prefetcher"

// FillNotifier is whatever must learn about every cache line install, in
// the shape of the engine's own OnFill signature. A *selector.Selector
// satisfies this directly, since it already forwards fills to both of
// its cores.
type FillNotifier interface {
	OnFill(
		addr prefetcher.BlockNumber, set, way int, wasPrefetch bool,
		evictedAddr prefetcher.BlockNumber, metadataIn prefetcher.Metadata,
	) prefetcher.Metadata
}

type line struct {
	valid        bool
	tag          prefetcher.BlockNumber
	metadata     prefetcher.Metadata
	wasPrefetch  bool
	lastAccessTS uint64
}

// Stats tallies what happened at the cache/MSHR level, separately from
// an engine's own Stats.
type Stats struct {
	Accesses         uint64
	Hits             uint64
	Misses           uint64
	PrefetchesFilled  uint64
	PrefetchesUseful  uint64
	PrefetchesDropped uint64
}

// Cache is a set-associative, LRU-by-timestamp tag array plus a
// saturating MSHR occupancy counter, in the same "linear scan against a
// LastAccessTS field" style the engine's own tables use. It implements
// prefetcher.Host, and forwards every install to a registered
// FillNotifier so accuracy bookkeeping downstream sees the fill→hit
// path spec.md calls out as fragile when metadata isn't preserved
// through it.
type Cache struct {
	cfg      Config
	sets     [][]line
	clock    uint64
	notifier FillNotifier

	// activeIssuer tags every line this Cache installs on behalf of a
	// PrefetchLine call made while it is set. The driver is expected to
	// set it immediately before invoking whichever core's OnAccess may
	// end up calling PrefetchLine, and clear it after — see
	// cmd/streamprefetch's use of it. Left at its zero value, prefetched
	// lines carry no issuer tag and the selector's per-core accuracy
	// accounting for them degrades, exactly as spec.md warns.
	activeIssuer prefetcher.Metadata

	outstanding int

	stats Stats
}

// NewCache constructs an empty cache of the given shape.
func NewCache(cfg Config) *Cache {
	sets := make([][]line, cfg.NumSets)
	for i := range sets {
		sets[i] = make([]line, cfg.NumWays)
	}
	return &Cache{cfg: cfg, sets: sets}
}

// SetNotifier registers who hears about every install. Must be called
// before the first Probe/PrefetchLine.
func (c *Cache) SetNotifier(n FillNotifier) { c.notifier = n }

// SetActiveIssuer tags subsequent PrefetchLine installs with tag, until
// cleared by another call (typically with the zero Metadata).
func (c *Cache) SetActiveIssuer(tag prefetcher.Metadata) { c.activeIssuer = tag }

func (c *Cache) setOf(addr prefetcher.BlockNumber) int {
	return int(int64(addr)) & (c.cfg.NumSets - 1)
}

// Probe looks addr up without installing anything. It reports whether
// addr hit, the metadata stored at fill time (the on_access metadata_in
// the engine expects), and whether this hit consumes a not-yet-used
// prefetch (usefulPrefetch). A consumed prefetch's wasPrefetch bit is
// cleared so a line is only ever counted useful once.
func (c *Cache) Probe(addr prefetcher.BlockNumber) (hit bool, metadataIn prefetcher.Metadata, usefulPrefetch bool) {
	c.stats.Accesses++
	c.clock++

	set := c.sets[c.setOf(addr)]
	for i := range set {
		if set[i].valid && set[i].tag == addr {
			set[i].lastAccessTS = c.clock
			c.stats.Hits++

			usefulPrefetch = set[i].wasPrefetch
			if usefulPrefetch {
				c.stats.PrefetchesUseful++
				set[i].wasPrefetch = false
			}

			return true, set[i].metadata, usefulPrefetch
		}
	}

	c.stats.Misses++
	return false, 0, false
}

// InstallDemand fills addr as a non-speculative line, following a demand
// miss, and reports it to the registered notifier.
func (c *Cache) InstallDemand(addr prefetcher.BlockNumber, metadataIn prefetcher.Metadata) prefetcher.Metadata {
	way, evicted := c.install(addr, metadataIn, false)
	return c.notify(addr, c.setOf(addr), way, false, evicted, metadataIn)
}

// PrefetchLine implements prefetcher.Host. A request is dropped once the
// MSHR is saturated; otherwise the line is installed tagged with
// activeIssuer and reported to the notifier as a prefetch fill.
// fillThisLevel is honored literally: false bypasses this level and
// consumes no capacity here, matching the reference semantics of
// "install into a deeper cache instead".
func (c *Cache) PrefetchLine(addr prefetcher.BlockNumber, fillThisLevel bool) bool {
	if !fillThisLevel {
		return true
	}

	if c.outstanding >= c.cfg.MSHRCapacity {
		c.stats.PrefetchesDropped++
		return false
	}

	c.outstanding++
	way, evicted := c.install(addr, c.activeIssuer, true)
	c.notify(addr, c.setOf(addr), way, true, evicted, c.activeIssuer)
	c.stats.PrefetchesFilled++

	return true
}

// MSHROccupancyRatio implements prefetcher.Host.
func (c *Cache) MSHROccupancyRatio() float64 {
	if c.cfg.MSHRCapacity == 0 {
		return 1
	}
	return float64(c.outstanding) / float64(c.cfg.MSHRCapacity)
}

// Drain retires up to n outstanding prefetch requests, modeling the
// memory system slowly servicing them. The CLI calls this once per
// trace line alongside OnCycle so MSHROccupancyRatio doesn't latch at
// its ceiling for the rest of a run.
func (c *Cache) Drain(n int) {
	c.outstanding -= n
	if c.outstanding < 0 {
		c.outstanding = 0
	}
}

// Stats reports the cache-level counters gathered so far.
func (c *Cache) Stats() Stats { return c.stats }

func (c *Cache) install(addr prefetcher.BlockNumber, metadata prefetcher.Metadata, isPrefetch bool) (way int, evictedAddr prefetcher.BlockNumber) {
	set := c.sets[c.setOf(addr)]

	victim := 0
	for i := range set {
		if !set[i].valid {
			victim = i
			break
		}
		if set[i].lastAccessTS < set[victim].lastAccessTS {
			victim = i
		}
	}

	evictedAddr = prefetcher.BlockNumber(-1)
	if set[victim].valid {
		evictedAddr = set[victim].tag
	}

	set[victim] = line{
		valid:        true,
		tag:          addr,
		metadata:     metadata,
		wasPrefetch:  isPrefetch,
		lastAccessTS: c.clock,
	}

	return victim, evictedAddr
}

func (c *Cache) notify(
	addr prefetcher.BlockNumber, set, way int, wasPrefetch bool,
	evictedAddr prefetcher.BlockNumber, metadataIn prefetcher.Metadata,
) prefetcher.Metadata {
	if c.notifier == nil {
		return metadataIn
	}
	return c.notifier.OnFill(addr, set, way, wasPrefetch, evictedAddr, metadataIn)
}
