package addresstranslator

import (
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/frame"
	"github.com/sarchlab/vmsim/mem/vm/tlb"
	"github.com/sarchlab/vmsim/sim/naming"
)

// EvictionPolicy decides what happens to the previous owner of a frame that
// is reused as a victim.
type EvictionPolicy int

const (
	// EvictionNone hands the victim frame to the new page and leaves the
	// previous owner's page table and TLB entries in place. Until the previous
	// owner is freed, two valid entries can point at the same frame.
	EvictionNone EvictionPolicy = iota

	// EvictionInvalidate drops the previous owner's page table and TLB
	// entries before the new mapping is inserted.
	EvictionInvalidate
)

// VictimPolicy selects the algorithm that picks victim frames.
type VictimPolicy int

const (
	// VictimFirstUnpinned picks the lowest-numbered unpinned frame.
	VictimFirstUnpinned VictimPolicy = iota

	// VictimClock runs the second-chance algorithm over the referenced bits
	// of the page table.
	VictimClock
)

// A Builder can create address translators
type Builder struct {
	config               vm.Config
	evictionPolicy       EvictionPolicy
	victimPolicy         VictimPolicy
	checkAllocatedFrames bool
}

// MakeBuilder creates a new builder with the default config.
func MakeBuilder() Builder {
	return Builder{
		config: vm.DefaultConfig(),
	}
}

// WithConfig sets the parameters of the memory hierarchy.
func (b Builder) WithConfig(c vm.Config) Builder {
	b.config = c
	return b
}

// WithEvictionPolicy sets how victim frames are handed over.
func (b Builder) WithEvictionPolicy(p EvictionPolicy) Builder {
	b.evictionPolicy = p
	return b
}

// WithVictimPolicy sets the algorithm that picks victim frames.
func (b Builder) WithVictimPolicy(p VictimPolicy) Builder {
	b.victimPolicy = p
	return b
}

// WithAllocatedFrameCheck makes byte accesses fail if the translated frame is
// no longer allocated.
func (b Builder) WithAllocatedFrameCheck(enabled bool) Builder {
	b.checkAllocatedFrames = enabled
	return b
}

// Build creates a new address translator that owns a new TLB, page table and
// frame allocator.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		NamedBase:            naming.MakeNamedBase(name),
		config:               b.config,
		evictionPolicy:       b.evictionPolicy,
		checkAllocatedFrames: b.checkAllocatedFrames,
	}

	c.tlb = tlb.MakeBuilder().
		WithNumWays(b.config.TLBSize).
		Build(naming.BuildName(name, "TLB"))
	c.pageTable = vm.NewHierarchicalPageTable(b.config)
	c.allocator = frame.MakeBuilder().
		WithConfig(b.config).
		WithVictimSelector(b.buildVictimSelector(c.pageTable)).
		Build(naming.BuildName(name, "Allocator"))

	return c
}

func (b Builder) buildVictimSelector(
	pageTable *vm.HierarchicalPageTable,
) frame.VictimSelector {
	switch b.victimPolicy {
	case VictimFirstUnpinned:
		return frame.FirstUnpinnedSelector{}
	case VictimClock:
		return frame.NewClockSelector(pageTable)
	default:
		panic("unknown victim policy")
	}
}
