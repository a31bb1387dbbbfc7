package selector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/streamprefetch/prefetcher"
	"github.com/sarchlab/streamprefetch/selector"
)

var _ = Describe("Selector", func() {
	var (
		mockController *gomock.Controller
		coreA, coreB   *MockCore
		cfg            selector.Config
	)

	BeforeEach(func() {
		mockController = gomock.NewController(GinkgoT())
		coreA = NewMockCore(mockController)
		coreB = NewMockCore(mockController)

		// With NumSets=8 the sample rate falls in the ">= 8" tier (4),
		// giving set 1 to core A dedicated, set 2 to core B dedicated,
		// set 0 to the sampler, and set 3 to the policy-controlled
		// category. These are properties of setCategory, verified by
		// hand-computation against the reversible-hash formula.
		cfg = selector.DefaultConfig(8, 4)
		cfg.PolicyUpdateInterval = 1
		cfg.MinIssuedForUpdate = 1
	})

	AfterEach(func() {
		mockController.Finish()
	})

	It("routes a dedicated-A set only to core A and tags the result", func() {
		s := selector.New(coreA, coreB, cfg)

		coreA.EXPECT().
			OnAccess(prefetcher.BlockNumber(1), uint64(0), false, false, prefetcher.AccessLoad, prefetcher.Metadata(0)).
			Return(prefetcher.Metadata(0))

		out := s.OnAccess(1, 0, false, false, prefetcher.AccessLoad, 0)
		Expect(selector.IsCoreAPrefetch(out)).To(BeTrue())
		Expect(selector.IsCoreBPrefetch(out)).To(BeFalse())
	})

	It("routes a dedicated-B set only to core B and tags the result", func() {
		s := selector.New(coreA, coreB, cfg)

		coreB.EXPECT().
			OnAccess(prefetcher.BlockNumber(2), uint64(0), false, false, prefetcher.AccessLoad, prefetcher.Metadata(0)).
			Return(prefetcher.Metadata(0))

		out := s.OnAccess(2, 0, false, false, prefetcher.AccessLoad, 0)
		Expect(selector.IsCoreBPrefetch(out)).To(BeTrue())
		Expect(selector.IsCoreAPrefetch(out)).To(BeFalse())
	})

	It("routes a sampler set to core A only", func() {
		s := selector.New(coreA, coreB, cfg)

		coreA.EXPECT().
			OnAccess(prefetcher.BlockNumber(0), uint64(0), false, false, prefetcher.AccessLoad, prefetcher.Metadata(0)).
			Return(prefetcher.Metadata(0))

		out := s.OnAccess(0, 0, false, false, prefetcher.AccessLoad, 0)
		Expect(selector.IsCoreAPrefetch(out)).To(BeTrue())
	})

	It("defaults a policy-controlled set to core A while the counter is non-negative", func() {
		s := selector.New(coreA, coreB, cfg)
		Expect(s.PolicySelector()).To(Equal(0))

		coreA.EXPECT().
			OnAccess(prefetcher.BlockNumber(3), uint64(0), false, false, prefetcher.AccessLoad, prefetcher.Metadata(0)).
			Return(prefetcher.Metadata(0))

		out := s.OnAccess(3, 0, false, false, prefetcher.AccessLoad, 0)
		Expect(selector.IsCoreAPrefetch(out)).To(BeTrue())
	})

	It("forwards every fill to both cores regardless of category", func() {
		s := selector.New(coreA, coreB, cfg)

		coreA.EXPECT().OnFill(prefetcher.BlockNumber(2), 2, 3, true, prefetcher.BlockNumber(9), prefetcher.Metadata(0)).
			Return(prefetcher.Metadata(0))
		coreB.EXPECT().OnFill(prefetcher.BlockNumber(2), 2, 3, true, prefetcher.BlockNumber(9), prefetcher.Metadata(0)).
			Return(prefetcher.Metadata(0))

		s.OnFill(2, 2, 3, true, 9, 0)
	})

	It("steers the policy counter toward the dedicated core with the higher score", func() {
		s := selector.New(coreA, coreB, cfg)

		coreA.EXPECT().OnAccess(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(prefetcher.Metadata(0)).AnyTimes()
		coreB.EXPECT().OnAccess(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(prefetcher.Metadata(0)).AnyTimes()
		coreA.EXPECT().OnFill(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(prefetcher.Metadata(0)).AnyTimes()
		coreB.EXPECT().OnFill(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(prefetcher.Metadata(0)).AnyTimes()
		coreA.EXPECT().OnCycle().AnyTimes()
		coreB.EXPECT().OnCycle().AnyTimes()

		// Core A's dedicated set (1) sees 10 issued prefetches, 9 useful.
		// Core B's dedicated set (2) sees 10 issued, 1 useful.
		for i := 0; i < 10; i++ {
			s.OnFill(1, 1, 0, true, 0, 0)
			s.OnFill(2, 2, 0, true, 0, 0)
		}
		for i := 0; i < 9; i++ {
			s.OnAccess(1, 0, true, true, prefetcher.AccessLoad, 0)
		}
		s.OnAccess(2, 0, true, true, prefetcher.AccessLoad, 0)

		s.OnCycle()

		Expect(s.PolicySelector()).To(Equal(1))
	})

	It("does not move the policy counter before either core has enough issued prefetches", func() {
		s := selector.New(coreA, coreB, cfg)

		coreA.EXPECT().OnCycle().AnyTimes()
		coreB.EXPECT().OnCycle().AnyTimes()

		s.OnCycle()

		Expect(s.PolicySelector()).To(Equal(0))
	})
})
