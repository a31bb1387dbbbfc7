// Package prefetcher implements the region-indexed training table and
// confirmed-stream tracking engine shared by the enhanced and transformer
// stream prefetcher variants.
//
// The engine is a pure, single-threaded state machine: it is driven
// synchronously by a host simulator through Initialize, OnAccess, OnFill,
// and OnCycle, and it never blocks, spawns goroutines, or retains a
// reference to anything beyond its own tables and the Host it was built
// with.
package prefetcher

import "github.com/sarchlab/streamprefetch/sim/hooking"

// HookPosPatternRecorded marks the point in a transformer-variant
// engine's cycle where a terminated stream's pattern is folded into the
// pattern history table. Only VariantTransformer engines ever trigger
// this hook position.
var HookPosPatternRecorded = &hooking.HookPos{Name: "PatternRecorded"}

// PatternRecordedEvent is the Item carried by a HookPosPatternRecorded
// hook invocation.
type PatternRecordedEvent struct {
	Direction    Direction
	Stride       int64
	RegionBase   BlockNumber
	StreamLength uint32
	Class        StreamClass
}

// BlockNumber is a memory address expressed in cache-line units: the raw
// byte address right-shifted by log2(line size). All engine state is kept
// in block units; the host is responsible for the address/block
// conversion at its boundary.
type BlockNumber int64

// Direction is the sign of a confirmed stream's stride.
type Direction int8

// The three directions a training entry or stream can carry.
const (
	DirectionUnknown Direction = 0
	DirectionPositive Direction = 1
	DirectionNegative Direction = -1
)

// StreamClass buckets a transformer-variant stream by density, driving its
// prefetch degree and its eviction priority.
type StreamClass int8

// The classes a transformer stream can be assigned, from classifyStream.
const (
	ClassUnknown StreamClass = iota
	ClassDense
	ClassMedium
	ClassSparse
)

func (c StreamClass) String() string {
	switch c {
	case ClassDense:
		return "dense"
	case ClassMedium:
		return "medium"
	case ClassSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// Variant selects which of the two documented engines an Engine behaves
// as. The two variants share every table and helper that their behavior
// has in common; Variant only gates the handful of places they diverge
// (allocation fallback, prefetch degree, classification).
type Variant int8

// The two supported engine variants.
const (
	VariantEnhanced Variant = iota
	VariantTransformer
)

func (v Variant) String() string {
	switch v {
	case VariantEnhanced:
		return "enhanced"
	case VariantTransformer:
		return "transformer"
	default:
		return "unknown"
	}
}

// regionBase returns the block-aligned region a block number falls in.
// regionSize must be a power of two.
func regionBase(b BlockNumber, regionSize int64) BlockNumber {
	mask := ^BlockNumber(regionSize - 1)
	return b & mask
}

// gap returns the signed distance in blocks from a to b.
func gap(a, b BlockNumber) int64 {
	return int64(b) - int64(a)
}

// abs64 returns the absolute value of a signed 64-bit integer.
func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
