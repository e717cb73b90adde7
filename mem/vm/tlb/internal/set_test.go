package internal

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Set", func() {
	var (
		s Set
	)

	BeforeEach(func() {
		s = NewSet(3)
	})

	It("should miss when empty", func() {
		_, found := s.Lookup(1)
		Expect(found).To(BeFalse())
		Expect(s.Len()).To(Equal(0))
	})

	It("should find an updated block", func() {
		s.Update(1, 10)

		block, found := s.Lookup(1)
		Expect(found).To(BeTrue())
		Expect(block).To(Equal(Block{VPN: 1, FrameNumber: 10}))
	})

	It("should evict the least recently used block", func() {
		s.Update(1, 10)
		s.Update(2, 20)
		s.Update(3, 30)
		s.Visit(1)

		evicted, hasEvicted := s.Update(4, 40)

		Expect(hasEvicted).To(BeTrue())
		Expect(evicted.VPN).To(Equal(uint64(2)))
		Expect(s.Len()).To(Equal(3))
		Expect(s.Blocks()).To(Equal([]Block{
			{VPN: 4, FrameNumber: 40},
			{VPN: 1, FrameNumber: 10},
			{VPN: 3, FrameNumber: 30},
		}))
	})

	It("should overwrite without evicting", func() {
		s.Update(1, 10)
		s.Update(2, 20)
		s.Update(3, 30)

		_, hasEvicted := s.Update(1, 11)

		Expect(hasEvicted).To(BeFalse())
		block, _ := s.Lookup(1)
		Expect(block.FrameNumber).To(Equal(uint64(11)))
		Expect(s.Blocks()[0].VPN).To(Equal(uint64(1)))
	})

	It("should remove blocks", func() {
		s.Update(1, 10)

		Expect(s.Remove(1)).To(BeTrue())
		Expect(s.Remove(1)).To(BeFalse())
		Expect(s.Len()).To(Equal(0))
	})

	It("should hold nothing with zero ways", func() {
		s = NewSet(0)
		s.Update(1, 10)

		Expect(s.Len()).To(Equal(0))
	})

	It("should drop everything on reset", func() {
		s.Update(1, 10)
		s.Update(2, 20)
		s.Reset()

		Expect(s.Len()).To(Equal(0))
		_, found := s.Lookup(2)
		Expect(found).To(BeFalse())
	})
})
