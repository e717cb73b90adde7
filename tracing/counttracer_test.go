package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/addresstranslator"
)

var _ = Describe("CountTracer", func() {
	var (
		tracer *CountTracer
		at     *addresstranslator.Comp
	)

	BeforeEach(func() {
		tracer = NewCountTracer()
		at = addresstranslator.MakeBuilder().
			WithConfig(vm.SmallConfig()).
			Build("AT")
		at.AcceptHook(tracer)
	})

	It("should agree with the translator statistics", func() {
		for i := 0; i < 3; i++ {
			at.Translate(0x100, false)
			at.Translate(0x200, false)
		}
		at.TLB().Clear()
		at.Translate(0x100, false)

		stats := at.Statistics()
		Expect(tracer.Count(addresstranslator.HookPosPageFault)).
			To(Equal(stats.PageFaults))
		Expect(tracer.Count(addresstranslator.HookPosTLBHit)).
			To(Equal(stats.TLBHits))
		Expect(tracer.Count(addresstranslator.HookPosPageTableHit)).
			To(Equal(stats.PageTableHits))
	})

	It("should list positions in the order they are first seen", func() {
		at.Translate(0x100, false)
		at.Translate(0x100, false)
		at.FreePage(0x100)

		Expect(tracer.PosNames()).To(Equal(
			[]string{"PageFault", "TLBHit", "PageFree"}))
	})

	It("should reset", func() {
		at.Translate(0x100, false)

		tracer.Reset()

		Expect(tracer.PosNames()).To(BeEmpty())
		Expect(tracer.Counts()).To(BeEmpty())
	})
})
