package simhost_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/streamprefetch/prefetcher"
	"github.com/sarchlab/streamprefetch/simhost"
)

var _ = Describe("Cache", func() {
	var (
		notifier *fakeNotifier
		cache    *simhost.Cache
	)

	BeforeEach(func() {
		notifier = &fakeNotifier{}
		cache = simhost.NewCache(simhost.Config{NumSets: 4, NumWays: 2, MSHRCapacity: 2})
		cache.SetNotifier(notifier)
	})

	It("reports a miss for an address never installed", func() {
		hit, _, useful := cache.Probe(100)
		Expect(hit).To(BeFalse())
		Expect(useful).To(BeFalse())
	})

	It("hits and reports the stored metadata after a demand install", func() {
		cache.Probe(100)
		cache.InstallDemand(100, 0xAB)

		hit, metadataIn, useful := cache.Probe(100)
		Expect(hit).To(BeTrue())
		Expect(metadataIn).To(Equal(prefetcher.Metadata(0xAB)))
		Expect(useful).To(BeFalse())
	})

	It("marks a prefetched line's first hit useful and only that one", func() {
		cache.SetActiveIssuer(0x1)
		Expect(cache.PrefetchLine(200, true)).To(BeTrue())

		_, _, useful1 := cache.Probe(200)
		Expect(useful1).To(BeTrue())

		_, _, useful2 := cache.Probe(200)
		Expect(useful2).To(BeFalse())
	})

	It("tags a prefetch install with the active issuer and notifies the fill", func() {
		cache.SetActiveIssuer(0x2)
		cache.PrefetchLine(300, true)
		cache.SetActiveIssuer(0)

		Expect(notifier.fills).To(HaveLen(1))
		Expect(notifier.fills[0].addr).To(Equal(prefetcher.BlockNumber(300)))
		Expect(notifier.fills[0].wasPrefetch).To(BeTrue())
		Expect(notifier.fills[0].metadataIn).To(Equal(prefetcher.Metadata(0x2)))
	})

	It("drops a prefetch once the MSHR is saturated", func() {
		Expect(cache.PrefetchLine(400, true)).To(BeTrue())
		Expect(cache.PrefetchLine(401, true)).To(BeTrue())
		Expect(cache.PrefetchLine(402, true)).To(BeFalse())

		Expect(cache.Stats().PrefetchesDropped).To(Equal(uint64(1)))
	})

	It("does not consume MSHR capacity when asked to bypass this level", func() {
		Expect(cache.PrefetchLine(500, false)).To(BeTrue())
		Expect(cache.MSHROccupancyRatio()).To(Equal(0.0))
	})

	It("drains outstanding prefetches back down", func() {
		cache.PrefetchLine(600, true)
		cache.PrefetchLine(601, true)
		Expect(cache.MSHROccupancyRatio()).To(Equal(1.0))

		cache.Drain(1)
		Expect(cache.MSHROccupancyRatio()).To(Equal(0.5))
	})

	It("evicts the least recently used line and reports its address", func() {
		cache.InstallDemand(0, 0)  // set 0, way 0
		cache.InstallDemand(4, 0)  // set 0, way 1 (NumSets=4, so 4&3==0)
		cache.Probe(0)             // refreshes 0's recency

		cache.PrefetchLine(8, true) // set 0 again, must evict 4

		last := notifier.fills[len(notifier.fills)-1]
		Expect(last.addr).To(Equal(prefetcher.BlockNumber(8)))
		Expect(last.evicted).To(Equal(prefetcher.BlockNumber(4)))
	})
})
