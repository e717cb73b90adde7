package frame

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vmsim/mem/vm"
)

var _ = Describe("FirstUnpinnedSelector", func() {
	It("should skip free and pinned frames", func() {
		frames := []Frame{
			{},
			{Allocated: true, Pinned: true},
			{Allocated: true},
			{Allocated: true},
		}

		pfn, ok := FirstUnpinnedSelector{}.SelectVictim(frames)

		Expect(ok).To(BeTrue())
		Expect(pfn).To(Equal(uint64(2)))
	})

	It("should find nothing in an empty pool", func() {
		_, ok := FirstUnpinnedSelector{}.SelectVictim(nil)

		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ClockSelector", func() {
	var (
		pt       *vm.HierarchicalPageTable
		selector *ClockSelector
		frames   []Frame
	)

	BeforeEach(func() {
		pt = vm.NewHierarchicalPageTable(vm.SmallConfig())
		selector = NewClockSelector(pt)

		frames = make([]Frame, 3)
		for i := range frames {
			vpn := uint64(10 + i)
			frames[i] = Frame{Allocated: true, OwnerVPN: vpn}
			pt.Insert(vpn, uint64(i))
			pt.SetReferenced(vpn, false)
		}
	})

	It("should pick the first unreferenced frame", func() {
		pt.SetReferenced(10, true)

		pfn, ok := selector.SelectVictim(frames)

		Expect(ok).To(BeTrue())
		Expect(pfn).To(Equal(uint64(1)))

		entry, _ := pt.Entry(10)
		Expect(entry.Referenced).To(BeFalse())
	})

	It("should continue from where the hand stopped", func() {
		pfn, _ := selector.SelectVictim(frames)
		Expect(pfn).To(Equal(uint64(0)))

		pfn, _ = selector.SelectVictim(frames)
		Expect(pfn).To(Equal(uint64(1)))
	})

	It("should give every frame a second chance", func() {
		for i := range frames {
			pt.SetReferenced(frames[i].OwnerVPN, true)
		}

		pfn, ok := selector.SelectVictim(frames)

		Expect(ok).To(BeTrue())
		Expect(pfn).To(Equal(uint64(0)))
	})

	It("should skip pinned frames", func() {
		frames[0].Pinned = true

		pfn, _ := selector.SelectVictim(frames)

		Expect(pfn).To(Equal(uint64(1)))
	})

	It("should find nothing when every frame is pinned", func() {
		for i := range frames {
			frames[i].Pinned = true
		}

		_, ok := selector.SelectVictim(frames)

		Expect(ok).To(BeFalse())
	})

	It("should work as the allocator strategy", func() {
		a := MakeBuilder().
			WithNumFrames(2).
			WithPageSize(256).
			WithVictimSelector(selector).
			Build("Allocator")

		p0, _ := a.AllocateFrame(10)
		p1, _ := a.AllocateFrame(11)
		pt.Insert(10, p0)
		pt.Insert(11, p1)
		pt.SetReferenced(10, false)

		pfn, ok := a.AllocateFrame(12)

		Expect(ok).To(BeTrue())
		Expect(pfn).To(Equal(p0))
	})
})
