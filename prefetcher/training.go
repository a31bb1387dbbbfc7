package prefetcher

// TrainingEntry accumulates up to three recent misses per spatial region
// and infers a direction and stride from them.
type TrainingEntry struct {
	Valid bool

	RegionBase BlockNumber

	// History holds up to the three most recent misses to this region;
	// History[0] is the most recent.
	History [3]BlockNumber

	// MissCount is 0..3; 3 means "confirmed-ready".
	MissCount int

	Direction Direction
	Stride    int64

	LastAccessTS uint64

	// PatternConfidence is populated from pattern-history reinforcement
	// in the transformer variant; it stays 0 in the enhanced variant.
	PatternConfidence uint32
}

// TrainingTable is the region-indexed CAM of in-progress training
// entries. Lookup is linear: with at most a few dozen entries this is the
// direct hardware analogue of a fully-associative CAM, and a map would
// not change the asymptotics that matter here.
type TrainingTable struct {
	entries    []TrainingEntry
	regionSize int64

	// confidenceLookup, if set, is consulted on an entry's first miss and
	// again when it confirms a direction and stride, so that
	// pattern-history reinforcement (transformer only) can seed
	// PatternConfidence. The enhanced variant leaves this nil.
	confidenceLookup func(dir Direction, stride int64, region BlockNumber) uint32
}

// NewTrainingTable creates a training table with the given capacity and
// region size (in blocks; must be a power of two).
func NewTrainingTable(size int, regionSize int64) *TrainingTable {
	return &TrainingTable{
		entries:    make([]TrainingEntry, size),
		regionSize: regionSize,
	}
}

// Find returns the index of the valid entry tracking region, or -1.
func (t *TrainingTable) Find(region BlockNumber) int {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Valid && e.RegionBase == region {
			return i
		}
	}
	return -1
}

// Allocate returns the index of a slot to use for a newly observed
// region: the first invalid slot if one exists, otherwise the entry with
// the oldest LastAccessTS.
func (t *TrainingTable) Allocate(region BlockNumber, now uint64) int {
	for i := range t.entries {
		if !t.entries[i].Valid {
			t.entries[i] = TrainingEntry{
				Valid:        true,
				RegionBase:   region,
				LastAccessTS: now,
			}
			return i
		}
	}

	victim := 0
	for i := range t.entries {
		if t.entries[i].LastAccessTS < t.entries[victim].LastAccessTS {
			victim = i
		}
	}

	t.entries[victim] = TrainingEntry{
		Valid:        true,
		RegionBase:   region,
		LastAccessTS: now,
	}
	return victim
}

// Invalidate clears the entry at idx, e.g. after it is promoted to a
// confirmed stream.
func (t *TrainingTable) Invalidate(idx int) {
	t.entries[idx] = TrainingEntry{}
}

// Entry returns a pointer to the entry at idx for read or in-place
// inspection.
func (t *TrainingTable) Entry(idx int) *TrainingEntry {
	return &t.entries[idx]
}

// Update folds a new miss to the region tracked at idx into that entry's
// history, running the noise filter and direction/stride inference
// described in the component design. It returns true if the entry became
// confirmed-ready (MissCount reached 3) as a result of this call.
func (t *TrainingTable) Update(idx int, miss BlockNumber, now uint64) bool {
	e := &t.entries[idx]
	e.LastAccessTS = now

	switch e.MissCount {
	case 0:
		e.History[0] = miss
		e.MissCount = 1
		t.refreshConfidence(e)
		return false
	case 1:
		e.History[1] = e.History[0]
		e.History[0] = miss
		e.MissCount = 2
		return false
	}

	e.History[2] = e.History[1]
	e.History[1] = e.History[0]
	e.History[0] = miss

	gap1 := gap(e.History[2], e.History[1])
	gap2 := gap(e.History[1], e.History[0])

	if isNoise(gap1, gap2) {
		return false
	}

	dir := detectDirection(gap1, gap2)
	if dir == DirectionUnknown {
		t.resetToSingleMiss(e, miss)
		return false
	}

	stride := detectStride(gap1, gap2)
	if stride < 1 {
		t.resetToSingleMiss(e, miss)
		return false
	}

	e.Direction = dir
	e.Stride = stride
	e.MissCount = 3
	t.refreshConfidence(e)
	return true
}

func (t *TrainingTable) resetToSingleMiss(e *TrainingEntry, miss BlockNumber) {
	e.MissCount = 1
	e.Direction = DirectionUnknown
	e.Stride = 1
	e.History[0] = miss
}

func (t *TrainingTable) refreshConfidence(e *TrainingEntry) {
	if t.confidenceLookup == nil {
		return
	}
	e.PatternConfidence = t.confidenceLookup(e.Direction, e.Stride, e.RegionBase)
}

// Confirmed reports whether the entry at idx is ready for promotion to a
// stream, taking the transformer fast-track path into account when
// fastTrackConfidence > 0. Update sets Direction only when MissCount
// reaches 3, so an entry with two misses is never promoted: the
// fast-track test passes only for an entry that already has three.
func (t *TrainingTable) Confirmed(idx int, confirmationThreshold int, fastTrackConfidence uint32) bool {
	e := &t.entries[idx]
	if e.Direction == DirectionUnknown || e.Stride < 1 {
		return false
	}

	if e.MissCount >= confirmationThreshold {
		return true
	}

	return fastTrackConfidence > 0 &&
		e.MissCount >= 2 &&
		e.PatternConfidence >= fastTrackConfidence
}
