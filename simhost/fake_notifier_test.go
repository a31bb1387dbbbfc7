package simhost_test

import "github.com/sarchlab/streamprefetch/prefetcher"

// fakeNotifier is a hand-written test double for simhost.FillNotifier,
// following the same "small interface, slice-recording fake" convention
// as prefetcher's own fakeHost.
type fakeNotifier struct {
	fills []fillCall
}

type fillCall struct {
	addr        prefetcher.BlockNumber
	set, way    int
	wasPrefetch bool
	evicted     prefetcher.BlockNumber
	metadataIn  prefetcher.Metadata
}

func (n *fakeNotifier) OnFill(
	addr prefetcher.BlockNumber, set, way int, wasPrefetch bool,
	evictedAddr prefetcher.BlockNumber, metadataIn prefetcher.Metadata,
) prefetcher.Metadata {
	n.fills = append(n.fills, fillCall{addr, set, way, wasPrefetch, evictedAddr, metadataIn})
	return metadataIn
}
