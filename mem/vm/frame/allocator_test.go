package frame

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vmsim/mem/vm"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Allocator", func() {
	var (
		a *Allocator
	)

	BeforeEach(func() {
		a = MakeBuilder().
			WithNumFrames(4).
			WithPageSize(256).
			Build("Allocator")
	})

	It("should start with every frame free", func() {
		Expect(a.NumFrames()).To(Equal(uint64(4)))
		Expect(a.NumFreeFrames()).To(Equal(uint64(4)))
		Expect(a.NumAllocatedFrames()).To(Equal(uint64(0)))
		Expect(a.StorageSize()).To(Equal(uint64(1024)))
		Expect(a.PageSize()).To(Equal(uint64(256)))
	})

	It("should take the frame layout from a config", func() {
		a = MakeBuilder().WithConfig(vm.SmallConfig()).Build("Allocator")

		Expect(a.NumFrames()).To(Equal(uint64(64)))
		Expect(a.StorageSize()).To(Equal(uint64(16 * 1024)))
	})

	It("should allocate free frames in FIFO order", func() {
		pfn, ok := a.AllocateFrame(10)
		Expect(ok).To(BeTrue())
		Expect(pfn).To(Equal(uint64(0)))

		pfn, _ = a.AllocateFrame(11)
		Expect(pfn).To(Equal(uint64(1)))

		Expect(a.FreeFrame(0)).To(Succeed())
		pfn, _ = a.AllocateFrame(12)
		Expect(pfn).To(Equal(uint64(2)))
		pfn, _ = a.AllocateFrame(13)
		Expect(pfn).To(Equal(uint64(3)))
		pfn, _ = a.AllocateFrame(14)
		Expect(pfn).To(Equal(uint64(0)))
	})

	It("should record the owner of an allocated frame", func() {
		pfn, _ := a.AllocateFrame(42)

		f, err := a.Frame(pfn)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(Frame{Allocated: true, OwnerVPN: 42}))
		Expect(a.IsAllocated(pfn)).To(BeTrue())
		Expect(a.NumAllocatedFrames()).To(Equal(uint64(1)))
		Expect(a.NumFreeFrames()).To(Equal(uint64(3)))
	})

	It("should count a page fault for every allocation", func() {
		for i := uint64(0); i < 6; i++ {
			a.AllocateFrame(i)
		}

		Expect(a.PageFaults()).To(Equal(uint64(6)))

		a.ResetStats()
		Expect(a.PageFaults()).To(Equal(uint64(0)))
		Expect(a.NumAllocatedFrames()).To(Equal(uint64(4)))
	})

	It("should hand out the first unpinned frame as is when the pool is full", func() {
		for i := uint64(0); i < 4; i++ {
			a.AllocateFrame(100 + i)
		}
		Expect(a.PinFrame(0)).To(Succeed())

		pfn, ok := a.AllocateFrame(200)

		Expect(ok).To(BeTrue())
		Expect(pfn).To(Equal(uint64(1)))

		f, _ := a.Frame(1)
		Expect(f.OwnerVPN).To(Equal(uint64(101)))
		Expect(a.NumAllocatedFrames()).To(Equal(uint64(4)))
	})

	It("should fail when every frame is pinned", func() {
		for i := uint64(0); i < 4; i++ {
			pfn, _ := a.AllocateFrame(i)
			Expect(a.PinFrame(pfn)).To(Succeed())
		}

		_, ok := a.AllocateFrame(9)

		Expect(ok).To(BeFalse())
		Expect(a.PageFaults()).To(Equal(uint64(5)))
	})

	It("should make a frame evictable again after unpinning", func() {
		for i := uint64(0); i < 4; i++ {
			pfn, _ := a.AllocateFrame(i)
			Expect(a.PinFrame(pfn)).To(Succeed())
		}
		Expect(a.UnpinFrame(2)).To(Succeed())

		pfn, ok := a.AllocateFrame(9)

		Expect(ok).To(BeTrue())
		Expect(pfn).To(Equal(uint64(2)))
	})

	It("should reassign the owner", func() {
		pfn, _ := a.AllocateFrame(1)
		Expect(a.Reassign(pfn, 2)).To(Succeed())

		f, _ := a.Frame(pfn)
		Expect(f.OwnerVPN).To(Equal(uint64(2)))
	})

	It("should clear metadata on free", func() {
		pfn, _ := a.AllocateFrame(1)
		Expect(a.PinFrame(pfn)).To(Succeed())
		Expect(a.FreeFrame(pfn)).To(Succeed())

		f, _ := a.Frame(pfn)
		Expect(f).To(Equal(Frame{}))
		Expect(a.NumAllocatedFrames()).To(Equal(uint64(0)))
		Expect(a.NumFreeFrames()).To(Equal(uint64(4)))
	})

	It("should ignore freeing a free frame", func() {
		Expect(a.FreeFrame(1)).To(Succeed())

		Expect(a.NumFreeFrames()).To(Equal(uint64(4)))
	})

	It("should reject frame numbers beyond the pool", func() {
		Expect(a.FreeFrame(4)).To(MatchError(vm.ErrOutOfRange))
		Expect(a.PinFrame(4)).To(MatchError(vm.ErrOutOfRange))
		Expect(a.UnpinFrame(4)).To(MatchError(vm.ErrOutOfRange))
		Expect(a.Reassign(4, 1)).To(MatchError(vm.ErrOutOfRange))

		_, err := a.Frame(4)
		Expect(err).To(MatchError(vm.ErrOutOfRange))
		Expect(a.IsAllocated(4)).To(BeFalse())
	})

	It("should read and write bytes without an ownership check", func() {
		Expect(a.WriteByteAt(700, 5)).To(Succeed())

		b, err := a.ReadByteAt(700)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(byte(5)))
	})

	It("should reject physical addresses beyond the store", func() {
		Expect(a.WriteByteAt(1024, 5)).To(MatchError(vm.ErrOutOfRange))

		_, err := a.ReadByteAt(1024)
		Expect(err).To(MatchError(vm.ErrOutOfRange))
	})

	Context("with a custom victim selector", func() {
		var (
			mockCtrl *gomock.Controller
			selector *MockVictimSelector
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			selector = NewMockVictimSelector(mockCtrl)

			a = MakeBuilder().
				WithNumFrames(2).
				WithPageSize(256).
				WithVictimSelector(selector).
				Build("Allocator")
		})

		It("should not ask for a victim while frames are free", func() {
			a.AllocateFrame(1)
			a.AllocateFrame(2)
		})

		It("should use the selected victim", func() {
			a.AllocateFrame(1)
			a.AllocateFrame(2)

			selector.EXPECT().
				SelectVictim(gomock.Len(2)).
				Return(uint64(1), true)

			pfn, ok := a.AllocateFrame(3)

			Expect(ok).To(BeTrue())
			Expect(pfn).To(Equal(uint64(1)))
		})

		It("should fail when the selector finds nothing", func() {
			a.AllocateFrame(1)
			a.AllocateFrame(2)

			selector.EXPECT().SelectVictim(gomock.Any()).Return(uint64(0), false)

			_, ok := a.AllocateFrame(3)

			Expect(ok).To(BeFalse())
		})
	})
})
