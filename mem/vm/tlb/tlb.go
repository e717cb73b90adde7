// Package tlb provides a fully associative translation lookaside buffer with
// least-recently-used replacement.
package tlb

import (
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/tlb/internal"
	"github.com/sarchlab/vmsim/sim/naming"
)

// Comp is a cache (TLB) that maps virtual page numbers to frame numbers.
type Comp struct {
	naming.NamedBase

	numWays int
	set     internal.Set

	hits   uint64
	misses uint64
}

// Capacity returns the maximum number of entries the TLB holds.
func (c *Comp) Capacity() int {
	return c.numWays
}

// Len returns the number of entries currently held.
func (c *Comp) Len() int {
	return c.set.Len()
}

// Lookup searches the translation of the page. A hit makes the entry the
// most recently used one.
func (c *Comp) Lookup(vpn vm.PageNumber) (vm.FrameNumber, bool) {
	block, found := c.set.Lookup(vpn)
	if !found {
		c.misses++
		return 0, false
	}

	c.hits++
	c.set.Visit(vpn)

	return block.FrameNumber, true
}

// Contains checks if the page is cached without counting an access or
// changing the recency order.
func (c *Comp) Contains(vpn vm.PageNumber) bool {
	_, found := c.set.Lookup(vpn)
	return found
}

// Insert adds or overwrites the translation of the page.
func (c *Comp) Insert(vpn vm.PageNumber, pfn vm.FrameNumber) {
	c.set.Update(vpn, pfn)
}

// Invalidate drops the translation of the page if there is one.
func (c *Comp) Invalidate(vpn vm.PageNumber) {
	c.set.Remove(vpn)
}

// Clear drops all the translations. The hit and miss counters are kept.
func (c *Comp) Clear() {
	c.set.Reset()
}

// Entries lists the cached translations, most recently used first.
func (c *Comp) Entries() []internal.Block {
	return c.set.Blocks()
}

// Hits returns the number of lookups that hit.
func (c *Comp) Hits() uint64 {
	return c.hits
}

// Misses returns the number of lookups that missed.
func (c *Comp) Misses() uint64 {
	return c.misses
}

// HitRate returns hits/(hits+misses), or 0 if there has been no lookup.
func (c *Comp) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}

	return float64(c.hits) / float64(total)
}

// ResetStats zeroes the hit and miss counters.
func (c *Comp) ResetStats() {
	c.hits = 0
	c.misses = 0
}
