// Package frame manages the frames of the simulated physical memory.
package frame

import "github.com/sarchlab/vmsim/mem/vm"

// A Frame records the bookkeeping state of one physical frame. The index of
// the frame in the allocator is its frame number.
type Frame struct {
	Allocated bool
	OwnerVPN  vm.PageNumber
	Pinned    bool
}

func (f Frame) isEvictable() bool {
	return f.Allocated && !f.Pinned
}
