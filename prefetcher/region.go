package prefetcher

// detectDirection reads two consecutive signed gaps between three
// ordered misses and reports the direction they agree on, or
// DirectionUnknown if they disagree.
func detectDirection(gap1, gap2 int64) Direction {
	if gap1 > 0 && gap2 > 0 {
		return DirectionPositive
	}
	if gap1 < 0 && gap2 < 0 {
		return DirectionNegative
	}
	return DirectionUnknown
}

// detectStride returns the common stride magnitude of two gaps that agree
// in direction, or 0 if they do not describe a consistent stride.
func detectStride(gap1, gap2 int64) int64 {
	if abs64(gap1) != abs64(gap2) {
		return 0
	}
	return abs64(gap1)
}

// isNoise reports whether a gap pair looks like a single ±1-block
// spurious access inside an otherwise regular stream: one gap has
// magnitude exactly 1 and the other has the opposite sign.
func isNoise(gap1, gap2 int64) bool {
	if gap1 == 1 && gap2 < 0 {
		return true
	}
	if gap1 == -1 && gap2 > 0 {
		return true
	}
	if gap2 == 1 && gap1 < 0 {
		return true
	}
	if gap2 == -1 && gap1 > 0 {
		return true
	}
	return false
}

// computeStreamEnd is the single place direction sign meets block
// arithmetic for stream-end computation, used identically at stream
// creation and at reactivation, for both engine variants. Centralising it
// here removes the risk (present in the reference C++, where the two
// direction branches are separately hand-written) of the two branches
// silently drifting apart.
func computeStreamEnd(dir Direction, base BlockNumber, stride int64, horizon int64) BlockNumber {
	return base + BlockNumber(int64(dir)*stride*horizon)
}

// extendEnd returns the new stream end after a reactivation at a further
// trigger point, or the unchanged current end if the candidate is not
// strictly further from the stream's start in the direction of travel.
// A positive-direction stream only ever extends its end to a larger block
// number; a negative-direction stream only ever extends to a smaller one.
func extendEnd(dir Direction, currentEnd, candidate BlockNumber) BlockNumber {
	if dir == DirectionPositive {
		if candidate > currentEnd {
			return candidate
		}
		return currentEnd
	}

	if candidate < currentEnd {
		return candidate
	}
	return currentEnd
}

// passedEnd reports whether next has advanced past end for the given
// direction of travel.
func passedEnd(dir Direction, next, end BlockNumber) bool {
	if dir == DirectionPositive {
		return next > end
	}
	return next < end
}

// withinOrientedRange reports whether b lies between lo and hi as
// oriented by dir: for POSITIVE, lo <= b <= hi; for NEGATIVE, lo >= b >=
// hi.
func withinOrientedRange(dir Direction, lo, b, hi BlockNumber) bool {
	if dir == DirectionPositive {
		return lo <= b && b <= hi
	}
	return lo >= b && b >= hi
}
