package prefetcher

// maxStreamsPerGroup bounds the fixed-size member array carried by every
// StreamGroup; it is a compile-time constant of the reference design, not
// a tuning parameter.
const maxStreamsPerGroup = 8

// StreamGroup is an equivalence class of transformer-variant streams that
// share (Direction, Stride). Grouped streams with two or more members are
// protected from victim selection and from the dead-stream sweep, which
// models concurrent access to related structures (e.g. multiple fields
// of a record walked at the same stride).
type StreamGroup struct {
	Valid bool

	Direction Direction
	Stride    int64

	// Members holds stream-table indices, -1 for an empty slot.
	Members     [maxStreamsPerGroup]int32
	MemberCount int

	TypicalClass   StreamClass
	LastSeenTS     uint64
	GroupConfidence uint32
}

// GroupTable holds the fixed-size set of stream groups a transformer
// engine tracks.
type GroupTable struct {
	groups []StreamGroup
}

// NewGroupTable creates a group table with the given capacity.
func NewGroupTable(size int) *GroupTable {
	groups := make([]StreamGroup, size)
	for i := range groups {
		for j := range groups[i].Members {
			groups[i].Members[j] = -1
		}
	}
	return &GroupTable{groups: groups}
}

// Group returns a pointer to the group at idx.
func (g *GroupTable) Group(idx int) *StreamGroup {
	return &g.groups[idx]
}

func classifyByStride(stride int64, denseMax, mediumMax int64) StreamClass {
	if stride <= denseMax {
		return ClassDense
	}
	if stride <= mediumMax {
		return ClassMedium
	}
	return ClassSparse
}

// find returns the index of the valid group keyed by (dir, stride), or -1.
func (g *GroupTable) find(dir Direction, stride int64) int {
	for i := range g.groups {
		grp := &g.groups[i]
		if grp.Valid && grp.Direction == dir && grp.Stride == stride {
			return i
		}
	}
	return -1
}

// FindOrCreate returns the index of the group keyed by (dir, stride),
// creating one in an invalid slot if none exists, or evicting the group
// with the fewest members (ties broken by oldest LastSeenTS) if the
// table is full. Evicting a group clears the GroupID of every residual
// member via clearMember.
func (g *GroupTable) FindOrCreate(
	dir Direction, stride int64, now uint64, denseMax, mediumMax int64,
	clearMember func(streamIdx int),
) int {
	if existing := g.find(dir, stride); existing >= 0 {
		g.groups[existing].LastSeenTS = now
		return existing
	}

	for i := range g.groups {
		if !g.groups[i].Valid {
			g.groups[i] = newGroup(dir, stride, now, denseMax, mediumMax)
			return i
		}
	}

	oldestIdx := 0
	for i := range g.groups {
		grp, best := &g.groups[i], &g.groups[oldestIdx]
		if grp.MemberCount < best.MemberCount ||
			(grp.MemberCount == best.MemberCount && grp.LastSeenTS < best.LastSeenTS) {
			oldestIdx = i
		}
	}

	for _, member := range g.groups[oldestIdx].Members {
		if member >= 0 {
			clearMember(int(member))
		}
	}

	g.groups[oldestIdx] = newGroup(dir, stride, now, denseMax, mediumMax)
	return oldestIdx
}

func newGroup(dir Direction, stride int64, now uint64, denseMax, mediumMax int64) StreamGroup {
	grp := StreamGroup{
		Valid:        true,
		Direction:    dir,
		Stride:       stride,
		LastSeenTS:   now,
		TypicalClass: classifyByStride(stride, denseMax, mediumMax),
	}
	for i := range grp.Members {
		grp.Members[i] = -1
	}
	return grp
}

// AddMember places streamIdx into the group's first empty slot and
// returns the group's typical class for the caller to seed the stream's
// own Class field with, matching the reference's "inherit group's
// typical class" behavior. It is a no-op if the group has no empty slot.
func (g *GroupTable) AddMember(groupIdx, streamIdx int) (StreamClass, bool) {
	grp := &g.groups[groupIdx]
	for i := range grp.Members {
		if grp.Members[i] < 0 {
			grp.Members[i] = int32(streamIdx)
			grp.MemberCount++
			return grp.TypicalClass, true
		}
	}
	return ClassUnknown, false
}

// RemoveMember clears streamIdx from the group at groupIdx.
func (g *GroupTable) RemoveMember(groupIdx, streamIdx int) {
	if groupIdx < 0 || groupIdx >= len(g.groups) {
		return
	}
	grp := &g.groups[groupIdx]
	for i := range grp.Members {
		if int(grp.Members[i]) == streamIdx {
			grp.Members[i] = -1
			if grp.MemberCount > 0 {
				grp.MemberCount--
			}
			return
		}
	}
}

// IsProtected reports whether the group at groupIdx has enough members to
// protect its streams from eviction and dead-stream sweeps.
func (g *GroupTable) IsProtected(groupIdx int) bool {
	if groupIdx < 0 || groupIdx >= len(g.groups) {
		return false
	}
	return g.groups[groupIdx].MemberCount >= 2
}

// MemberCount returns the member count of the group at groupIdx, or 0 if
// groupIdx does not refer to a group.
func (g *GroupTable) MemberCount(groupIdx int) int {
	if groupIdx < 0 || groupIdx >= len(g.groups) {
		return 0
	}
	return g.groups[groupIdx].MemberCount
}

// SetTypicalClass updates the group's typical class, used when a
// representative member's classification changes.
func (g *GroupTable) SetTypicalClass(groupIdx int, class StreamClass) {
	if groupIdx < 0 || groupIdx >= len(g.groups) {
		return
	}
	g.groups[groupIdx].TypicalClass = class
}
