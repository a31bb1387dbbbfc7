package prefetcher_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/streamprefetch/prefetcher"
)

func miss(eng *prefetcher.Engine, block prefetcher.BlockNumber) {
	eng.OnAccess(block, 0, false, false, prefetcher.AccessLoad, 0)
}

var _ = Describe("Engine", func() {
	var host *fakeHost

	BeforeEach(func() {
		host = newFakeHost()
	})

	Describe("stride-1 confirmation (enhanced variant)", func() {
		It("promotes on the confirming miss and walks the stream forward", func() {
			eng := prefetcher.NewEnhanced(host, prefetcher.DefaultEnhancedConfig())

			miss(eng, 100)
			miss(eng, 101)
			// The third miss to region 100 confirms direction/stride and
			// creates + launches the stream in the same call, matching the
			// reference dispatcher's ordering (see DESIGN.md, Open Question
			// decision 5).
			miss(eng, 102)
			Expect(host.issued).To(Equal([]prefetcher.BlockNumber{103, 104}))

			miss(eng, 103)
			Expect(host.issued).To(Equal([]prefetcher.BlockNumber{103, 104, 105, 106}))

			miss(eng, 104)
			Expect(host.issued).To(Equal([]prefetcher.BlockNumber{103, 104, 105, 106, 107, 108}))

			stats := eng.FinalStats()
			Expect(stats.StreamsCreated).To(Equal(uint64(1)))
			Expect(stats.PrefetchesIssued).To(Equal(uint64(6)))
		})
	})

	Describe("negative stride", func() {
		It("detects a descending stride and prefetches downward", func() {
			cfg := prefetcher.DefaultEnhancedConfig()
			cfg.RegionSizeBlocks = 16

			eng := prefetcher.NewEnhanced(host, cfg)

			miss(eng, 1000)
			miss(eng, 996)
			miss(eng, 992)
			Expect(host.issued).To(Equal([]prefetcher.BlockNumber{988, 984}))

			miss(eng, 988)
			Expect(host.issued).To(Equal([]prefetcher.BlockNumber{988, 984, 980, 976}))
		})
	})

	Describe("backpressure safety", func() {
		It("issues nothing when the host reports full MSHR occupancy", func() {
			host.occupancy = 1.0
			eng := prefetcher.NewEnhanced(host, prefetcher.DefaultEnhancedConfig())

			miss(eng, 100)
			miss(eng, 101)
			miss(eng, 102)
			miss(eng, 103)
			miss(eng, 104)

			Expect(host.issued).To(BeEmpty())
			Expect(eng.FinalStats().PrefetchesIssued).To(Equal(uint64(0)))
		})
	})

	Describe("dead-stream removal", func() {
		It("reclaims a short-lived stream once it ages past the threshold", func() {
			cfg := prefetcher.DefaultEnhancedConfig()
			eng := prefetcher.NewEnhanced(host, cfg)

			miss(eng, 100)
			miss(eng, 101)
			miss(eng, 102) // creates a stream of length 2, well under ShortStreamThreshold=4

			for i := 0; i < 1025; i++ {
				miss(eng, prefetcher.BlockNumber(1_000_000+i*100))
			}

			Expect(eng.FinalStats().DeadStreamsReclaimed).To(BeNumerically(">=", 1))
		})
	})
})

var _ = Describe("Engine (transformer variant)", func() {
	var host *fakeHost

	BeforeEach(func() {
		host = newFakeHost()
	})

	Describe("early re-launch", func() {
		It("reactivates a dormant stream instead of allocating a new slot", func() {
			cfg := prefetcher.DefaultTransformerConfig()
			cfg.RegionSizeBlocks = 16
			cfg.EndHorizon = 2

			eng := prefetcher.NewTransformer(host, cfg)

			miss(eng, 500)
			miss(eng, 502)
			miss(eng, 504) // confirms POSITIVE stride 2 in region 496, creates the stream
			Expect(host.issued).To(Equal([]prefetcher.BlockNumber{506}))

			eng.OnCycle() // 506 -> 508
			eng.OnCycle() // 508 -> 510 would exceed end (508); stream goes dormant
			Expect(host.issued).To(Equal([]prefetcher.BlockNumber{506, 508}))
			Expect(eng.FinalStats().StreamsCreated).To(Equal(uint64(1)))
			Expect(eng.FinalStats().StreamsReactivated).To(Equal(uint64(0)))

			for i := 0; i < 50; i++ {
				miss(eng, prefetcher.BlockNumber(2_000_000+i*1000))
			}

			miss(eng, 480)
			miss(eng, 482)
			miss(eng, 484) // confirms POSITIVE stride 2 in region 480, within reach of the dormant stream

			Expect(eng.FinalStats().StreamsCreated).To(Equal(uint64(1)))
			Expect(eng.FinalStats().StreamsReactivated).To(Equal(uint64(1)))
			Expect(host.issued).To(Equal([]prefetcher.BlockNumber{506, 508, 486}))
		})
	})
})
