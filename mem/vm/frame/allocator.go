package frame

import (
	"errors"
	"fmt"

	"github.com/sarchlab/vmsim/mem/storage"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim/naming"
)

// Allocator owns a fixed pool of frames and the bytes they hold.
type Allocator struct {
	naming.NamedBase

	pageSize uint64

	frames         []Frame
	freeFrames     []vm.FrameNumber
	storage        *storage.Storage
	victimSelector VictimSelector

	numAllocated uint64
	pageFaults   uint64
}

// AllocateFrame finds a frame for the page. It counts a page fault whether
// the allocation succeeds or not.
//
// Free frames are handed out in FIFO order. When no frame is free, a victim
// is picked among the allocated and unpinned frames and returned as is: its
// Frame record still names the previous owner, and the previous owner's
// mappings are not touched. Callers that need a clean hand-off must drop the
// old mapping and call Reassign. The bool return value is false if no frame
// can be found.
func (a *Allocator) AllocateFrame(owner vm.PageNumber) (vm.FrameNumber, bool) {
	a.pageFaults++

	if len(a.freeFrames) > 0 {
		pfn := a.freeFrames[0]
		a.freeFrames = a.freeFrames[1:]

		a.frames[pfn] = Frame{Allocated: true, OwnerVPN: owner}
		a.numAllocated++

		return pfn, true
	}

	return a.victimSelector.SelectVictim(a.frames)
}

// FreeFrame returns the frame to the free list. Freeing a free frame does
// nothing.
func (a *Allocator) FreeFrame(pfn vm.FrameNumber) error {
	if err := a.frameMustExist(pfn); err != nil {
		return err
	}

	if !a.frames[pfn].Allocated {
		return nil
	}

	a.frames[pfn] = Frame{}
	a.numAllocated--
	a.freeFrames = append(a.freeFrames, pfn)

	return nil
}

// Reassign records a new owner for an allocated frame.
func (a *Allocator) Reassign(pfn vm.FrameNumber, owner vm.PageNumber) error {
	if err := a.frameMustExist(pfn); err != nil {
		return err
	}

	a.frames[pfn].OwnerVPN = owner

	return nil
}

// IsAllocated checks if the frame is in use. Frames beyond the pool are never
// allocated.
func (a *Allocator) IsAllocated(pfn vm.FrameNumber) bool {
	if pfn >= uint64(len(a.frames)) {
		return false
	}

	return a.frames[pfn].Allocated
}

// Frame returns the bookkeeping record of the frame.
func (a *Allocator) Frame(pfn vm.FrameNumber) (Frame, error) {
	if err := a.frameMustExist(pfn); err != nil {
		return Frame{}, err
	}

	return a.frames[pfn], nil
}

// PinFrame prevents the frame from being chosen as a victim.
func (a *Allocator) PinFrame(pfn vm.FrameNumber) error {
	if err := a.frameMustExist(pfn); err != nil {
		return err
	}

	a.frames[pfn].Pinned = true

	return nil
}

// UnpinFrame makes the frame eligible as a victim again.
func (a *Allocator) UnpinFrame(pfn vm.FrameNumber) error {
	if err := a.frameMustExist(pfn); err != nil {
		return err
	}

	a.frames[pfn].Pinned = false

	return nil
}

// ReadByteAt reads one byte of physical memory. Only the address is checked;
// the frame does not need to be allocated.
func (a *Allocator) ReadByteAt(pAddr vm.PhysicalAddress) (byte, error) {
	b, err := a.storage.ReadByteAt(pAddr)
	if err != nil {
		return 0, a.convertStorageErr(pAddr, err)
	}

	return b, nil
}

// WriteByteAt writes one byte of physical memory. Only the address is
// checked; the frame does not need to be allocated.
func (a *Allocator) WriteByteAt(pAddr vm.PhysicalAddress, value byte) error {
	err := a.storage.WriteByteAt(pAddr, value)
	if err != nil {
		return a.convertStorageErr(pAddr, err)
	}

	return nil
}

// PageSize returns the number of bytes per frame.
func (a *Allocator) PageSize() uint64 {
	return a.pageSize
}

// NumFrames returns the size of the pool.
func (a *Allocator) NumFrames() uint64 {
	return uint64(len(a.frames))
}

// NumFreeFrames returns the number of frames in the free list.
func (a *Allocator) NumFreeFrames() uint64 {
	return uint64(len(a.freeFrames))
}

// NumAllocatedFrames returns the number of frames in use.
func (a *Allocator) NumAllocatedFrames() uint64 {
	return a.numAllocated
}

// PageFaults returns the number of AllocateFrame calls since the last reset.
func (a *Allocator) PageFaults() uint64 {
	return a.pageFaults
}

// ResetStats zeroes the page fault counter.
func (a *Allocator) ResetStats() {
	a.pageFaults = 0
}

// StorageSize returns the number of bytes in the backing store.
func (a *Allocator) StorageSize() uint64 {
	return a.storage.Capacity()
}

func (a *Allocator) frameMustExist(pfn vm.FrameNumber) error {
	if pfn >= uint64(len(a.frames)) {
		return fmt.Errorf("%w: frame %d, pool has %d frames",
			vm.ErrOutOfRange, pfn, len(a.frames))
	}

	return nil
}

func (a *Allocator) convertStorageErr(pAddr vm.PhysicalAddress, err error) error {
	if errors.Is(err, storage.ErrBeyondCapacity) {
		return fmt.Errorf("%w: physical address 0x%x, memory has %d bytes",
			vm.ErrOutOfRange, pAddr, a.storage.Capacity())
	}

	return err
}
