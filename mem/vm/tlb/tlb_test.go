package tlb

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vmsim/mem/vm/tlb/internal"
	"go.uber.org/mock/gomock"
)

var _ = Describe("TLB", func() {
	var (
		mockCtrl *gomock.Controller
		set      *MockSet
		tlb      *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		set = NewMockSet(mockCtrl)

		tlb = MakeBuilder().WithNumWays(4).Build("TLB")
		tlb.set = set
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("hit", func() {
		BeforeEach(func() {
			set.EXPECT().
				Lookup(uint64(0x10)).
				Return(internal.Block{VPN: 0x10, FrameNumber: 3}, true)
		})

		It("should return the frame and promote the entry", func() {
			set.EXPECT().Visit(uint64(0x10))

			pfn, found := tlb.Lookup(0x10)

			Expect(found).To(BeTrue())
			Expect(pfn).To(Equal(uint64(3)))
			Expect(tlb.Hits()).To(Equal(uint64(1)))
			Expect(tlb.Misses()).To(Equal(uint64(0)))
		})
	})

	Context("miss", func() {
		BeforeEach(func() {
			set.EXPECT().
				Lookup(uint64(0x10)).
				Return(internal.Block{}, false)
		})

		It("should count the miss without touching the set", func() {
			_, found := tlb.Lookup(0x10)

			Expect(found).To(BeFalse())
			Expect(tlb.Misses()).To(Equal(uint64(1)))
		})
	})

	It("should not count accesses for Contains", func() {
		set.EXPECT().
			Lookup(uint64(0x10)).
			Return(internal.Block{}, true)

		Expect(tlb.Contains(0x10)).To(BeTrue())
		Expect(tlb.Hits()).To(Equal(uint64(0)))
		Expect(tlb.Misses()).To(Equal(uint64(0)))
	})

	It("should forward invalidation", func() {
		set.EXPECT().Remove(uint64(0x10)).Return(false)

		tlb.Invalidate(0x10)
	})
})

var _ = Describe("TLB with LRU set", func() {
	var (
		tlb *Comp
	)

	BeforeEach(func() {
		tlb = MakeBuilder().WithNumWays(4).Build("TLB")
	})

	It("should report a zero hit rate with no access", func() {
		Expect(tlb.HitRate()).To(Equal(0.0))
	})

	It("should hit after insert", func() {
		tlb.Insert(1, 11)

		pfn, found := tlb.Lookup(1)

		Expect(found).To(BeTrue())
		Expect(pfn).To(Equal(uint64(11)))
	})

	It("should overwrite an existing entry", func() {
		tlb.Insert(1, 11)
		tlb.Insert(1, 12)

		pfn, _ := tlb.Lookup(1)
		Expect(pfn).To(Equal(uint64(12)))
		Expect(tlb.Len()).To(Equal(1))
	})

	It("should never hold more than its capacity", func() {
		for vpn := uint64(0); vpn < 100; vpn++ {
			tlb.Insert(vpn, vpn)
			Expect(tlb.Len()).To(BeNumerically("<=", 4))
		}

		Expect(tlb.Len()).To(Equal(4))
		Expect(tlb.Capacity()).To(Equal(4))
	})

	It("should evict the least recently touched entry", func() {
		tlb.Insert(1, 11)
		tlb.Insert(2, 12)
		tlb.Insert(3, 13)
		tlb.Insert(4, 14)
		tlb.Lookup(1)
		tlb.Insert(2, 22)

		tlb.Insert(5, 15)

		Expect(tlb.Contains(3)).To(BeFalse())
		Expect(tlb.Contains(1)).To(BeTrue())
		Expect(tlb.Contains(2)).To(BeTrue())
		Expect(tlb.Contains(4)).To(BeTrue())
		Expect(tlb.Contains(5)).To(BeTrue())
	})

	It("should not promote on a miss", func() {
		tlb.Insert(1, 11)
		tlb.Insert(2, 12)
		tlb.Insert(3, 13)
		tlb.Insert(4, 14)
		tlb.Lookup(9)

		tlb.Insert(5, 15)

		Expect(tlb.Contains(1)).To(BeFalse())
	})

	It("should list entries from most to least recently used", func() {
		tlb.Insert(1, 11)
		tlb.Insert(2, 12)
		tlb.Lookup(1)

		Expect(tlb.Entries()).To(Equal([]internal.Block{
			{VPN: 1, FrameNumber: 11},
			{VPN: 2, FrameNumber: 12},
		}))
	})

	It("should invalidate entries", func() {
		tlb.Insert(1, 11)
		tlb.Invalidate(1)
		tlb.Invalidate(2)

		_, found := tlb.Lookup(1)
		Expect(found).To(BeFalse())
	})

	It("should clear entries but keep the counters", func() {
		tlb.Insert(1, 11)
		tlb.Lookup(1)
		tlb.Lookup(2)
		tlb.Clear()

		Expect(tlb.Len()).To(Equal(0))
		Expect(tlb.Hits()).To(Equal(uint64(1)))
		Expect(tlb.Misses()).To(Equal(uint64(1)))
		Expect(tlb.HitRate()).To(Equal(0.5))
	})

	It("should reset the counters", func() {
		tlb.Insert(1, 11)
		tlb.Lookup(1)
		tlb.ResetStats()

		Expect(tlb.Hits()).To(Equal(uint64(0)))
		Expect(tlb.HitRate()).To(Equal(0.0))
		Expect(tlb.Contains(1)).To(BeTrue())
	})

	It("should never hit with zero capacity", func() {
		tlb = MakeBuilder().WithNumWays(0).Build("TLB")
		tlb.Insert(1, 11)

		_, found := tlb.Lookup(1)
		Expect(found).To(BeFalse())
	})
})
