package prefetcher

// StreamEntry is a confirmed stream: a region of memory the engine
// believes will continue to be accessed with a fixed stride, along with
// its current prefetch frontier and lifecycle state.
//
// The transformer-only fields (Class, ReactivationCount, Confidence,
// GroupID, ConsistentStrideCount) are present on every entry so the
// enhanced and transformer variants can share one table implementation;
// the enhanced variant simply never reads them beyond their zero values
// (GroupID stays -1, Confidence is set but unused by any enhanced-mode
// decision).
type StreamEntry struct {
	Valid, Active bool

	Direction Direction
	Stride    int64

	Start, End, Current BlockNumber

	LastTriggerTS uint64
	StreamLength  uint32

	Class                 StreamClass
	ReactivationCount     uint32
	Confidence            uint32
	GroupID               int32
	ConsistentStrideCount uint32

	TaskID string
}

func (e *StreamEntry) regionBase(regionSize int64) BlockNumber {
	return regionBase(e.Start, regionSize)
}

// StreamTable holds the fixed-size set of confirmed streams an engine
// tracks.
type StreamTable struct {
	entries []StreamEntry
}

// NewStreamTable creates a stream table with the given capacity.
func NewStreamTable(size int) *StreamTable {
	entries := make([]StreamEntry, size)
	for i := range entries {
		entries[i].GroupID = -1
	}
	return &StreamTable{entries: entries}
}

// Len returns the table capacity.
func (t *StreamTable) Len() int { return len(t.entries) }

// Entry returns a pointer to the entry at idx.
func (t *StreamTable) Entry(idx int) *StreamEntry {
	return &t.entries[idx]
}

// FindStreamForBlock returns the index of a valid stream whose oriented
// [start, current] range contains b, or -1.
func (t *StreamTable) FindStreamForBlock(b BlockNumber) int {
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Valid {
			continue
		}
		if withinOrientedRange(e.Direction, e.Start, b, e.Current) {
			return i
		}
	}
	return -1
}

// FindMatchingInactiveStream returns the index of a dormant stream
// (valid, not active) with the given direction and stride whose region
// base lies within +/-2*regionSize of the trigger region, or -1.
func (t *StreamTable) FindMatchingInactiveStream(
	dir Direction, stride int64, region BlockNumber, regionSize int64,
) int {
	span := 2 * regionSize
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Valid || e.Active {
			continue
		}
		if e.Direction != dir || e.Stride != stride {
			continue
		}
		if abs64(gap(region, e.regionBase(regionSize))) <= span {
			return i
		}
	}
	return -1
}

// FirstInvalid returns the index of the first invalid slot, or -1.
func (t *StreamTable) FirstInvalid() int {
	for i := range t.entries {
		if !t.entries[i].Valid {
			return i
		}
	}
	return -1
}

// LRUDormant returns the index of the dormant (valid, inactive) stream
// with the oldest LastTriggerTS, or -1 if none are dormant.
func (t *StreamTable) LRUDormant() int {
	victim := -1
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Valid || e.Active {
			continue
		}
		if victim == -1 || e.LastTriggerTS < t.entries[victim].LastTriggerTS {
			victim = i
		}
	}
	return victim
}

// LRUOverall returns the index of the valid stream with the oldest
// LastTriggerTS, or -1 if the table is empty of valid entries.
func (t *StreamTable) LRUOverall() int {
	victim := -1
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Valid {
			continue
		}
		if victim == -1 || e.LastTriggerTS < t.entries[victim].LastTriggerTS {
			victim = i
		}
	}
	return victim
}
