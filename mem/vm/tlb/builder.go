package tlb

import (
	"github.com/sarchlab/vmsim/mem/vm/tlb/internal"
	"github.com/sarchlab/vmsim/sim/naming"
)

// A Builder can build TLBs
type Builder struct {
	numWays int
}

// MakeBuilder returns a Builder
func MakeBuilder() Builder {
	return Builder{
		numWays: 64,
	}
}

// WithNumWays sets the number of entries the TLB can hold.
func (b Builder) WithNumWays(n int) Builder {
	b.numWays = n
	return b
}

// Build creates a new TLB
func (b Builder) Build(name string) *Comp {
	return &Comp{
		NamedBase: naming.MakeNamedBase(name),
		numWays:   b.numWays,
		set:       internal.NewSet(b.numWays),
	}
}
