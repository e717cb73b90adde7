package vm

// A PageTableEntry is an entry in the page table, maintaining the information
// about how to translate a virtual page to a physical frame.
type PageTableEntry struct {
	FrameNumber FrameNumber
	Valid       bool
	Dirty       bool
	Referenced  bool
}

// A node is either an internal node, which only has children, or a leaf,
// which only has entries. Children are allocated lazily.
type node struct {
	children []*node
	entries  []PageTableEntry
}

func newNode(fanOut uint64, leaf bool) *node {
	if leaf {
		return &node{entries: make([]PageTableEntry, fanOut)}
	}

	return &node{children: make([]*node, fanOut)}
}

func (n *node) isLeaf() bool {
	return n.entries != nil
}

// HierarchicalPageTable is a sparse radix tree with a fixed depth that maps
// virtual page numbers to page table entries. Level 0 (the root) is indexed
// by the most significant bit group of the VPN.
type HierarchicalPageTable struct {
	numLevels    uint64
	bitsPerLevel uint64
	fanOut       uint64

	root       *node
	numEntries uint64
	numNodes   uint64
}

// NewHierarchicalPageTable creates an empty page table shaped by the config.
func NewHierarchicalPageTable(config Config) *HierarchicalPageTable {
	pt := &HierarchicalPageTable{
		numLevels:    config.PageTableLevels,
		bitsPerLevel: config.BitsPerLevel,
		fanOut:       config.EntriesPerLevel(),
	}
	pt.Clear()

	return pt
}

// NumLevels returns the depth of the tree.
func (pt *HierarchicalPageTable) NumLevels() uint64 {
	return pt.numLevels
}

// NumEntries returns the number of valid entries.
func (pt *HierarchicalPageTable) NumEntries() uint64 {
	return pt.numEntries
}

// NumNodes returns the number of allocated nodes, including the root.
func (pt *HierarchicalPageTable) NumNodes() uint64 {
	return pt.numNodes
}

// Translate returns the frame that the page maps to. The entry is marked as
// referenced on a hit.
func (pt *HierarchicalPageTable) Translate(vpn PageNumber) (FrameNumber, bool) {
	entry := pt.walk(vpn, false)
	if entry == nil || !entry.Valid {
		return 0, false
	}

	entry.Referenced = true

	return entry.FrameNumber, true
}

// Insert maps the page to the frame, creating the nodes on the path if they
// do not exist yet.
func (pt *HierarchicalPageTable) Insert(vpn PageNumber, pfn FrameNumber) {
	entry := pt.walk(vpn, true)

	if !entry.Valid {
		pt.numEntries++
	}

	entry.FrameNumber = pfn
	entry.Valid = true
	entry.Referenced = true
}

// IsPresent checks if the page has a valid entry.
func (pt *HierarchicalPageTable) IsPresent(vpn PageNumber) bool {
	entry := pt.walk(vpn, false)
	return entry != nil && entry.Valid
}

// Entry returns a copy of the entry of the page. The bool return value is
// false if the path to the leaf has never been allocated. An entry that
// exists may still be invalid.
func (pt *HierarchicalPageTable) Entry(vpn PageNumber) (PageTableEntry, bool) {
	entry := pt.walk(vpn, false)
	if entry == nil {
		return PageTableEntry{}, false
	}

	return *entry, true
}

// SetDirty updates the dirty bit of a valid entry.
func (pt *HierarchicalPageTable) SetDirty(vpn PageNumber, dirty bool) {
	entry := pt.walk(vpn, false)
	if entry != nil && entry.Valid {
		entry.Dirty = dirty
	}
}

// SetReferenced updates the referenced bit of a valid entry.
func (pt *HierarchicalPageTable) SetReferenced(vpn PageNumber, referenced bool) {
	entry := pt.walk(vpn, false)
	if entry != nil && entry.Valid {
		entry.Referenced = referenced
	}
}

// Invalidate marks the entry of the page as invalid. The nodes on the path
// are kept.
func (pt *HierarchicalPageTable) Invalidate(vpn PageNumber) {
	entry := pt.walk(vpn, false)
	if entry != nil && entry.Valid {
		entry.Valid = false
		pt.numEntries--
	}
}

// Clear drops the whole tree.
func (pt *HierarchicalPageTable) Clear() {
	pt.root = newNode(pt.fanOut, pt.numLevels <= 1)
	pt.numEntries = 0
	pt.numNodes = 1
}

// Walk calls fn with every valid entry in ascending VPN order until fn
// returns false.
func (pt *HierarchicalPageTable) Walk(fn func(vpn PageNumber, entry PageTableEntry) bool) {
	pt.walkNode(pt.root, 0, fn)
}

func (pt *HierarchicalPageTable) walkNode(
	n *node,
	prefix PageNumber,
	fn func(PageNumber, PageTableEntry) bool,
) bool {
	if n.isLeaf() {
		for i, e := range n.entries {
			if !e.Valid {
				continue
			}

			if !fn(prefix<<pt.bitsPerLevel|uint64(i), e) {
				return false
			}
		}

		return true
	}

	for i, child := range n.children {
		if child == nil {
			continue
		}

		if !pt.walkNode(child, prefix<<pt.bitsPerLevel|uint64(i), fn) {
			return false
		}
	}

	return true
}

func (pt *HierarchicalPageTable) levelIndex(vpn PageNumber, level uint64) uint64 {
	shift := (pt.numLevels - 1 - level) * pt.bitsPerLevel
	return (vpn >> shift) & (pt.fanOut - 1)
}

// walk returns the leaf entry of the page. With create unset, it returns nil
// when a node on the path is missing.
func (pt *HierarchicalPageTable) walk(vpn PageNumber, create bool) *PageTableEntry {
	current := pt.root

	for level := uint64(0); ; level++ {
		index := pt.levelIndex(vpn, level)

		if current.isLeaf() {
			return &current.entries[index]
		}

		child := current.children[index]
		if child == nil {
			if !create {
				return nil
			}

			child = newNode(pt.fanOut, level+2 >= pt.numLevels)
			current.children[index] = child
			pt.numNodes++
		}

		current = child
	}
}
