// Package internal provides the definition required for defining TLB.
package internal

import (
	"container/list"

	"github.com/sarchlab/vmsim/mem/vm"
)

// A Block is one translation held by a Set.
type Block struct {
	VPN         vm.PageNumber
	FrameNumber vm.FrameNumber
}

// A Set holds a bounded number of blocks ordered by recency. The front of the
// visit list is the most recently used block.
type Set interface {
	Lookup(vpn vm.PageNumber) (block Block, found bool)
	Update(vpn vm.PageNumber, pfn vm.FrameNumber) (evicted Block, hasEvicted bool)
	Visit(vpn vm.PageNumber)
	Remove(vpn vm.PageNumber) bool
	Reset()
	Len() int
	Blocks() []Block
}

// NewSet creates a new TLB set that holds at most numWays blocks.
func NewSet(numWays int) Set {
	s := &setImpl{numWays: numWays}
	s.Reset()

	return s
}

type setImpl struct {
	numWays   int
	visitList *list.List
	vpnToElem map[vm.PageNumber]*list.Element
}

func (s *setImpl) Lookup(vpn vm.PageNumber) (Block, bool) {
	elem, ok := s.vpnToElem[vpn]
	if !ok {
		return Block{}, false
	}

	return elem.Value.(Block), true
}

// Update overwrites or adds the block of the page and makes it the most
// recently used one. The least recently used block is evicted if the set is
// full.
func (s *setImpl) Update(
	vpn vm.PageNumber,
	pfn vm.FrameNumber,
) (evicted Block, hasEvicted bool) {
	block := Block{VPN: vpn, FrameNumber: pfn}

	if elem, ok := s.vpnToElem[vpn]; ok {
		elem.Value = block
		s.visitList.MoveToFront(elem)

		return Block{}, false
	}

	if s.numWays <= 0 {
		return Block{}, false
	}

	if s.visitList.Len() >= s.numWays {
		evicted, hasEvicted = s.evict()
	}

	s.vpnToElem[vpn] = s.visitList.PushFront(block)

	return evicted, hasEvicted
}

func (s *setImpl) evict() (Block, bool) {
	leastVisited := s.visitList.Back()
	if leastVisited == nil {
		return Block{}, false
	}

	block := s.visitList.Remove(leastVisited).(Block)
	delete(s.vpnToElem, block.VPN)

	return block, true
}

func (s *setImpl) Visit(vpn vm.PageNumber) {
	if elem, ok := s.vpnToElem[vpn]; ok {
		s.visitList.MoveToFront(elem)
	}
}

func (s *setImpl) Remove(vpn vm.PageNumber) bool {
	elem, ok := s.vpnToElem[vpn]
	if !ok {
		return false
	}

	s.visitList.Remove(elem)
	delete(s.vpnToElem, vpn)

	return true
}

func (s *setImpl) Reset() {
	s.visitList = list.New()
	s.vpnToElem = make(map[vm.PageNumber]*list.Element)
}

func (s *setImpl) Len() int {
	return s.visitList.Len()
}

// Blocks lists the blocks from the most recently used to the least recently
// used.
func (s *setImpl) Blocks() []Block {
	blocks := make([]Block, 0, s.visitList.Len())
	for e := s.visitList.Front(); e != nil; e = e.Next() {
		blocks = append(blocks, e.Value.(Block))
	}

	return blocks
}
