package selector

// Config holds the set-dueling tuning parameters. Defaults match the
// grounding source's literal constants.
type Config struct {
	NumSets int
	NumWays int

	// PolicyUpdateInterval is how many prefetcher_cycle_operate-equivalent
	// ticks pass between policy counter re-evaluations.
	PolicyUpdateInterval uint64

	// MinIssuedForUpdate is the minimum issued-prefetch count each core
	// must have accumulated (dedicated-set stats plus sampler stats)
	// before the policy counter is allowed to move; below this, there is
	// not enough data to trust the comparison.
	MinIssuedForUpdate uint64

	// HysteresisRatio is the fractional margin one core's score must beat
	// the other's by before the policy counter moves, avoiding
	// oscillation on near-tied scores.
	HysteresisRatio float64

	PolicyMax int
	PolicyMin int
}

// DefaultConfig returns the documented tuning defaults.
func DefaultConfig(numSets, numWays int) Config {
	return Config{
		NumSets:              numSets,
		NumWays:              numWays,
		PolicyUpdateInterval: 5000,
		MinIssuedForUpdate:   100,
		HysteresisRatio:      1.05,
		PolicyMax:            1024,
		PolicyMin:            -1024,
	}
}

// setSampleRate returns the fraction (as 1-in-N) of sets sampled and
// dedicated. The tier order is an exclusive if/else-if chain: a cache
// with, say, 4096 sets does not land in a dedicated ">= 1024" tier (none
// exists) and instead falls through to the ">= 64" tier, giving it the
// same 1-in-8 rate as a 100-set cache. This mirrors the reference
// exactly rather than "fixing" the tiering to special-case very large
// caches, since that isn't what the source does.
func setSampleRate(numSets int) int {
	if numSets < 1024 && numSets >= 256 {
		return 16
	} else if numSets >= 64 {
		return 8
	} else if numSets >= 8 {
		return 4
	}
	return 32
}

func lg2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// setCategory implements the reversible-hash set categorization: 0 is a
// sampler set, 1 is dedicated to core A, 2 is dedicated to core B, and
// everything else follows the global policy counter.
func setCategory(set, rate int) int {
	mask := rate - 1
	shift := lg2(rate)
	lowSlice := set & mask
	highSlice := (set >> shift) & mask
	return (rate + lowSlice - highSlice) & mask
}
