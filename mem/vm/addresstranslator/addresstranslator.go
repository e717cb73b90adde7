// Package addresstranslator ties a TLB, a hierarchical page table and a frame
// allocator together into a demand-paged virtual memory.
package addresstranslator

import (
	"fmt"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/frame"
	"github.com/sarchlab/vmsim/mem/vm/tlb"
	"github.com/sarchlab/vmsim/sim/hooking"
	"github.com/sarchlab/vmsim/sim/naming"
)

// Statistics counts the outcome of translations. Every Translate call adds
// one to TotalAccesses and one to exactly one of the other counters, unless
// the translation fails, in which case only PageFaults is incremented.
type Statistics struct {
	TotalAccesses uint64 `json:"total_accesses"`
	TLBHits       uint64 `json:"tlb_hits"`
	PageTableHits uint64 `json:"page_table_hits"`
	PageFaults    uint64 `json:"page_faults"`
}

// Comp is an AddressTranslator that translates virtual addresses into
// physical addresses, allocating frames on first touch.
//
// Comp is not safe for concurrent use. A caller that shares it must hold one
// lock around each whole operation, so that two faults on the same page
// cannot both allocate a frame.
type Comp struct {
	hooking.HookableBase
	naming.NamedBase

	config vm.Config

	tlb       *tlb.Comp
	pageTable *vm.HierarchicalPageTable
	allocator *frame.Allocator

	evictionPolicy       EvictionPolicy
	checkAllocatedFrames bool

	stats Statistics
}

// Config returns the config the address translator was built with.
func (c *Comp) Config() vm.Config {
	return c.config
}

// TLB returns the TLB owned by the address translator.
func (c *Comp) TLB() *tlb.Comp {
	return c.tlb
}

// PageTable returns the page table owned by the address translator.
func (c *Comp) PageTable() *vm.HierarchicalPageTable {
	return c.pageTable
}

// Allocator returns the frame allocator owned by the address translator.
func (c *Comp) Allocator() *frame.Allocator {
	return c.allocator
}

// Translate converts a virtual address to a physical address. The lookup
// goes to the TLB first, then to the page table, and finally allocates a new
// frame. The bool return value is false only if a frame cannot be allocated;
// nothing is mapped in that case.
func (c *Comp) Translate(
	vAddr vm.VirtualAddress,
	isWrite bool,
) (vm.PhysicalAddress, bool) {
	c.stats.TotalAccesses++

	event := TranslationEvent{
		VAddr:   vAddr,
		VPN:     c.config.PageNumber(vAddr),
		Offset:  c.config.Offset(vAddr),
		IsWrite: isWrite,
	}

	if pfn, found := c.tlb.Lookup(event.VPN); found {
		c.stats.TLBHits++
		c.pageTable.SetReferenced(event.VPN, true)

		return c.finishTranslation(&event, pfn, HookPosTLBHit), true
	}

	if pfn, found := c.pageTable.Translate(event.VPN); found {
		c.stats.PageTableHits++
		c.tlb.Insert(event.VPN, pfn)

		return c.finishTranslation(&event, pfn, HookPosPageTableHit), true
	}

	c.stats.PageFaults++

	if !c.handlePageFault(event.VPN) {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosTranslationFailure,
			Item:   event,
		})

		return 0, false
	}

	pfn, found := c.pageTable.Translate(event.VPN)
	if !found {
		panic(fmt.Sprintf("page 0x%x not mapped after page fault", event.VPN))
	}

	c.tlb.Insert(event.VPN, pfn)

	return c.finishTranslation(&event, pfn, HookPosPageFault), true
}

func (c *Comp) finishTranslation(
	event *TranslationEvent,
	pfn vm.FrameNumber,
	pos *hooking.HookPos,
) vm.PhysicalAddress {
	if event.IsWrite {
		c.pageTable.SetDirty(event.VPN, true)
	}

	event.FrameNumber = pfn
	event.PAddr = c.config.PhysicalAddress(pfn, event.Offset)

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   *event,
	})

	return event.PAddr
}

// handlePageFault maps the page to a newly allocated frame.
func (c *Comp) handlePageFault(vpn vm.PageNumber) bool {
	pfn, ok := c.allocator.AllocateFrame(vpn)
	if !ok {
		return false
	}

	c.handOverFrame(pfn, vpn)
	c.pageTable.Insert(vpn, pfn)

	return true
}

// handOverFrame deals with the previous owner of a frame that has been
// chosen as a victim. A freshly allocated frame is already owned by vpn.
func (c *Comp) handOverFrame(pfn vm.FrameNumber, vpn vm.PageNumber) {
	f, err := c.allocator.Frame(pfn)
	if err != nil {
		panic(err)
	}

	if f.OwnerVPN == vpn {
		return
	}

	event := EvictionEvent{
		FrameNumber: pfn,
		OldVPN:      f.OwnerVPN,
		NewVPN:      vpn,
	}

	if c.evictionPolicy == EvictionInvalidate {
		c.invalidateMapping(f.OwnerVPN, pfn)

		if err := c.allocator.Reassign(pfn, vpn); err != nil {
			panic(err)
		}

		event.Invalidated = true
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosEviction,
		Item:   event,
	})
}

// invalidateMapping drops the page table and TLB entries of the page if it
// still maps to the frame.
func (c *Comp) invalidateMapping(vpn vm.PageNumber, pfn vm.FrameNumber) {
	entry, found := c.pageTable.Entry(vpn)
	if !found || !entry.Valid || entry.FrameNumber != pfn {
		return
	}

	c.pageTable.Invalidate(vpn)
	c.tlb.Invalidate(vpn)
}

// ReadByteAt reads the byte at a virtual address, allocating the page if
// needed.
func (c *Comp) ReadByteAt(vAddr vm.VirtualAddress) (byte, error) {
	pAddr, err := c.translateForAccess("read", vAddr, false)
	if err != nil {
		return 0, err
	}

	return c.allocator.ReadByteAt(pAddr)
}

// WriteByteAt writes the byte at a virtual address, allocating the page if
// needed.
func (c *Comp) WriteByteAt(vAddr vm.VirtualAddress, value byte) error {
	pAddr, err := c.translateForAccess("write", vAddr, true)
	if err != nil {
		return err
	}

	return c.allocator.WriteByteAt(pAddr, value)
}

func (c *Comp) translateForAccess(
	op string,
	vAddr vm.VirtualAddress,
	isWrite bool,
) (vm.PhysicalAddress, error) {
	pAddr, ok := c.Translate(vAddr, isWrite)
	if !ok {
		return 0, &AccessError{Op: op, VAddr: vAddr, Err: vm.ErrTranslationFailure}
	}

	if c.checkAllocatedFrames &&
		!c.allocator.IsAllocated(pAddr/c.config.PageSize) {
		return 0, &AccessError{Op: op, VAddr: vAddr, Err: ErrFrameNotAllocated}
	}

	return pAddr, nil
}

// AllocatePage makes sure the page of the address is mapped, without
// accessing it. It returns false if no frame can be allocated. Translation
// statistics are not affected.
func (c *Comp) AllocatePage(vAddr vm.VirtualAddress) bool {
	vpn := c.config.PageNumber(vAddr)

	if c.pageTable.IsPresent(vpn) {
		return true
	}

	return c.handlePageFault(vpn)
}

// FreePage unmaps the page of the address and releases its frame. The page
// table entry is invalidated before the TLB entry, and the frame is released
// last, so that no later translation can reach a released frame.
func (c *Comp) FreePage(vAddr vm.VirtualAddress) {
	vpn := c.config.PageNumber(vAddr)

	entry, found := c.pageTable.Entry(vpn)
	if !found || !entry.Valid {
		return
	}

	c.pageTable.Invalidate(vpn)
	c.tlb.Invalidate(vpn)

	if err := c.allocator.FreeFrame(entry.FrameNumber); err != nil {
		panic(err)
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosPageFree,
		Item: TranslationEvent{
			VAddr:       vAddr,
			VPN:         vpn,
			FrameNumber: entry.FrameNumber,
		},
	})
}

// Statistics returns the translation counters.
func (c *Comp) Statistics() Statistics {
	return c.stats
}

// ResetStatistics zeroes the translation counters together with the TLB hit
// and miss counters and the allocator page fault counter.
func (c *Comp) ResetStatistics() {
	c.stats = Statistics{}
	c.tlb.ResetStats()
	c.allocator.ResetStats()
}
