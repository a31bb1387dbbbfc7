// Package monitor exposes a running prefetcher setup over HTTP for
// external observation, following the teacher's monitoring server shape
// (gorilla/mux router, a JSON stats endpoint, a pprof-backed profile
// endpoint) scaled down to what a synchronous, host-driven engine needs.
package monitor

import "github.com/sarchlab/streamprefetch/prefetcher"

// Snapshot is the live state a Server reports at /stats.
type Snapshot struct {
	Enhanced       prefetcher.Stats `json:"enhanced"`
	Transformer    prefetcher.Stats `json:"transformer"`
	PolicySelector int              `json:"policy_selector"`
}

// SnapshotSource is anything that can produce a point-in-time Snapshot.
// A *selector.Selector wrapping the two engines is the expected
// implementation, kept as an interface here so monitor never imports
// selector and gains no opinion about how the two cores are wired.
type SnapshotSource interface {
	Snapshot() Snapshot
}
