package cmd

import (
	"os"
	"strconv"

	"github.com/sarchlab/streamprefetch/prefetcher"
)

// applyEnvOverrides overrides the handful of most commonly retuned
// fields of cfg from STREAMPREFETCH_-prefixed environment variables
// (set in the process environment, or loaded from a .env file by
// Execute). Fields
// left unset by the environment keep whatever Default...Config already
// put there.
func applyEnvOverrides(cfg prefetcher.Config) prefetcher.Config {
	cfg.TrainingTableSize = envInt("STREAMPREFETCH_TRAINING_TABLE_SIZE", cfg.TrainingTableSize)
	cfg.StreamTableSize = envInt("STREAMPREFETCH_STREAM_TABLE_SIZE", cfg.StreamTableSize)
	cfg.ConfirmationThreshold = envInt("STREAMPREFETCH_CONFIRMATION_THRESHOLD", cfg.ConfirmationThreshold)
	cfg.PrefetchDegree = uint32(envInt("STREAMPREFETCH_PREFETCH_DEGREE", int(cfg.PrefetchDegree)))
	cfg.DeadStreamThreshold = uint64(envInt("STREAMPREFETCH_DEAD_STREAM_THRESHOLD", int(cfg.DeadStreamThreshold)))

	return cfg
}

func envInt(name string, fallback int) int {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
