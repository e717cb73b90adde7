package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should build the default preset", func() {
		c := DefaultConfig()

		Expect(c.PageSize).To(Equal(uint64(4096)))
		Expect(c.NumFrames).To(Equal(uint64(16384)))
		Expect(c.EntriesPerLevel()).To(Equal(uint64(1024)))
		Expect(c.PageTableLevels * c.BitsPerLevel).
			To(Equal(c.VirtualAddressBits - c.OffsetBits))
	})

	It("should build the small preset", func() {
		c := SmallConfig()

		Expect(c.PageSize).To(Equal(uint64(256)))
		Expect(c.NumFrames).To(Equal(uint64(64)))
		Expect(c.TLBSize).To(Equal(8))
		Expect(c.PageTableLevels * c.BitsPerLevel).
			To(Equal(c.VirtualAddressBits - c.OffsetBits))
	})

	It("should resolve presets by name", func() {
		c, err := PresetConfig("small")
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(SmallConfig()))

		_, err = PresetConfig("huge")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})

	It("should split addresses", func() {
		c := SmallConfig()

		Expect(c.PageNumber(0x1234)).To(Equal(uint64(0x12)))
		Expect(c.Offset(0x1234)).To(Equal(uint64(0x34)))
		Expect(c.PhysicalAddress(3, 0x34)).To(Equal(uint64(3*256 + 0x34)))
	})

	It("should not change the receiver when overriding the TLB size", func() {
		c := DefaultConfig()
		c2 := c.WithTLBSize(4)

		Expect(c.TLBSize).To(Equal(64))
		Expect(c2.TLBSize).To(Equal(4))
	})
})
