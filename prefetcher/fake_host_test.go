package prefetcher_test

import "github.com/sarchlab/streamprefetch/prefetcher"

// fakeHost is a hand-written test double for prefetcher.Host. The
// interface is small enough that a generated mock buys nothing over a
// slice-recording fake; go.uber.org/mock is reserved for the selector
// package's wider Core interface instead.
type fakeHost struct {
	occupancy float64
	issued    []prefetcher.BlockNumber
	refuseAll bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{}
}

func (h *fakeHost) PrefetchLine(addr prefetcher.BlockNumber, fillThisLevel bool) bool {
	if h.refuseAll {
		return false
	}
	h.issued = append(h.issued, addr)
	return true
}

func (h *fakeHost) MSHROccupancyRatio() float64 {
	return h.occupancy
}

func (h *fakeHost) reset() {
	h.issued = nil
}
