// Package selector implements set-dueling between two prefetcher cores,
// dedicating a small fraction of cache sets to each side, sampling a
// further fraction that core A serves while usefulness is recorded per
// issuing core, and steering every remaining set toward whichever core
// is winning.
package selector

import "github.com/sarchlab/streamprefetch/prefetcher"

// Core is the narrow capability interface a selector dispatches to. Both
// the enhanced and transformer *prefetcher.Engine satisfy it without any
// adapter: the selector is a dynamic-dispatch layer above the engine
// package, not a modification of it.
type Core interface {
	OnAccess(addr prefetcher.BlockNumber, ip uint64, hit bool, usefulPrefetch bool, accessType prefetcher.AccessType, metadataIn prefetcher.Metadata) prefetcher.Metadata
	OnFill(addr prefetcher.BlockNumber, set, way int, wasPrefetch bool, evictedAddr prefetcher.BlockNumber, metadataIn prefetcher.Metadata) prefetcher.Metadata
	OnCycle()
	FinalStats() prefetcher.Stats
}

// Metadata tag bits identify which core issued a given prefetch, so a
// later hit on that line can be attributed back to the core that
// requested it. These occupy the two high bits of the wire metadata
// word; the remaining 30 bits are left untouched for the core that owns
// them.
const (
	tagCoreABit    = uint32(1) << 30
	tagCoreBBit    = uint32(1) << 31
	tagSourceMask  = tagCoreABit | tagCoreBBit
	tagPreserveMask = ^tagSourceMask
)

// TagCoreA marks metadata as having come from core A, preserving every
// other bit.
func TagCoreA(m prefetcher.Metadata) prefetcher.Metadata {
	return prefetcher.Metadata((uint32(m) & tagPreserveMask) | tagCoreABit)
}

// TagCoreB marks metadata as having come from core B, preserving every
// other bit.
func TagCoreB(m prefetcher.Metadata) prefetcher.Metadata {
	return prefetcher.Metadata((uint32(m) & tagPreserveMask) | tagCoreBBit)
}

// IsCoreAPrefetch reports whether metadata carries core A's tag.
//
// This tag survives only as far as the host propagates metadata through
// its fill-then-hit path unmodified; a host that clears or reassigns
// metadata bits between fill and the later hit will silently degrade the
// selector's accuracy accounting; see spec's Open Question on this
// conflation. The selector cannot detect or correct for that loss.
func IsCoreAPrefetch(m prefetcher.Metadata) bool {
	return uint32(m)&tagCoreABit != 0
}

// IsCoreBPrefetch reports whether metadata carries core B's tag.
func IsCoreBPrefetch(m prefetcher.Metadata) bool {
	return uint32(m)&tagCoreBBit != 0
}
