package frame

import (
	"github.com/sarchlab/vmsim/mem/storage"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim/naming"
)

// A Builder can build frame allocators.
type Builder struct {
	numFrames      uint64
	pageSize       uint64
	victimSelector VictimSelector
}

// MakeBuilder creates a builder with the frame layout of the default config.
func MakeBuilder() Builder {
	c := vm.DefaultConfig()

	return Builder{
		numFrames: c.NumFrames,
		pageSize:  c.PageSize,
	}
}

// WithConfig takes the number of frames and the page size from a config.
func (b Builder) WithConfig(c vm.Config) Builder {
	b.numFrames = c.NumFrames
	b.pageSize = c.PageSize

	return b
}

// WithNumFrames sets the size of the frame pool.
func (b Builder) WithNumFrames(n uint64) Builder {
	b.numFrames = n
	return b
}

// WithPageSize sets the number of bytes per frame.
func (b Builder) WithPageSize(n uint64) Builder {
	b.pageSize = n
	return b
}

// WithVictimSelector sets the strategy that picks a frame when none is free.
// FirstUnpinnedSelector is used if not set.
func (b Builder) WithVictimSelector(s VictimSelector) Builder {
	b.victimSelector = s
	return b
}

// Build creates the allocator with every frame free.
func (b Builder) Build(name string) *Allocator {
	a := &Allocator{
		NamedBase:      naming.MakeNamedBase(name),
		pageSize:       b.pageSize,
		frames:         make([]Frame, b.numFrames),
		freeFrames:     make([]vm.FrameNumber, 0, b.numFrames),
		storage:        storage.New(b.numFrames*b.pageSize, b.pageSize),
		victimSelector: b.victimSelector,
	}

	if a.victimSelector == nil {
		a.victimSelector = FirstUnpinnedSelector{}
	}

	for i := uint64(0); i < b.numFrames; i++ {
		a.freeFrames = append(a.freeFrames, i)
	}

	return a
}
