package prefetcher

// Config holds every tuning parameter of an engine. Both variants share
// this one struct; the transformer-only fields are simply unused when
// Variant is VariantEnhanced. Values default to the tuning table's
// documented defaults and can be overridden by callers (for example the
// CLI, reading environment overrides) before constructing an Engine.
type Config struct {
	Variant Variant

	TrainingTableSize     int
	StreamTableSize       int
	RegionSizeBlocks      int64
	ConfirmationThreshold int
	DeadStreamThreshold   uint64
	ShortStreamThreshold  uint32
	PrefetchDegree        uint32
	CleanupInterval       uint64
	EndHorizon            int64

	// Transformer-only below. Left at zero value for the enhanced
	// variant.
	ReuseWindowSize          uint64
	MaxConfidence            uint32
	FastTrackConfidence      uint32
	ConfidenceBoostOnReuse   uint32
	PatternHistorySize       int
	MaxStreamGroups          int
	DenseStrideMax           int64
	MediumStrideMax          int64
	DenseLengthMin           uint32
	MediumLengthMin          uint32
	DensePrefetchDegree      uint32
	MediumPrefetchDegree     uint32
	SparsePrefetchDegree     uint32
	PhaseWindowSize          uint64
	PhaseTransitionThreshold uint32
	PhaseRecoveryWindow      uint32
	MinPrefetchDegree        uint32
	ConservativeLookahead    uint32
	AggressiveLookahead      uint32
	StrideStabilityThreshold uint32
}

// DefaultEnhancedConfig returns the documented tuning defaults for the
// baseline (enhanced) engine variant.
func DefaultEnhancedConfig() Config {
	return Config{
		Variant:               VariantEnhanced,
		TrainingTableSize:     32,
		StreamTableSize:       16,
		RegionSizeBlocks:      4,
		ConfirmationThreshold: 3,
		DeadStreamThreshold:   1000,
		ShortStreamThreshold:  4,
		PrefetchDegree:        2,
		CleanupInterval:       256,
		EndHorizon:            64,
	}
}

// DefaultTransformerConfig returns the documented tuning defaults for the
// transformer engine variant.
func DefaultTransformerConfig() Config {
	return Config{
		Variant:                  VariantTransformer,
		TrainingTableSize:        32,
		StreamTableSize:          32,
		RegionSizeBlocks:         4,
		ConfirmationThreshold:    3,
		DeadStreamThreshold:      1000,
		ShortStreamThreshold:     4,
		PrefetchDegree:           2,
		CleanupInterval:          256,
		EndHorizon:               64,
		ReuseWindowSize:          2000,
		MaxConfidence:            8,
		FastTrackConfidence:      4,
		ConfidenceBoostOnReuse:   2,
		PatternHistorySize:       16,
		MaxStreamGroups:          8,
		DenseStrideMax:           2,
		MediumStrideMax:          16,
		DenseLengthMin:           8,
		MediumLengthMin:          4,
		DensePrefetchDegree:      4,
		MediumPrefetchDegree:     2,
		SparsePrefetchDegree:     1,
		PhaseWindowSize:          64,
		PhaseTransitionThreshold: 4,
		PhaseRecoveryWindow:      32,
		MinPrefetchDegree:        1,
		ConservativeLookahead:    1,
		AggressiveLookahead:      4,
		StrideStabilityThreshold: 3,
	}
}
