package vm

import "fmt"

// VirtualAddress is an address in the simulated virtual address space.
type VirtualAddress = uint64

// PhysicalAddress is a byte address in the simulated physical memory.
type PhysicalAddress = uint64

// PageNumber (VPN) is a virtual address with the offset bits removed.
type PageNumber = uint64

// FrameNumber (PFN) identifies a page-sized slot of physical memory.
type FrameNumber = uint64

// Config holds the parameters of the memory hierarchy. A Config is a plain
// value and is never mutated by the components built from it.
//
// The fields are not cross-validated. PageTableLevels * BitsPerLevel is
// expected to cover VirtualAddressBits - OffsetBits; a mismatch silently
// produces a wrong address decomposition.
type Config struct {
	PageSize           uint64
	OffsetBits         uint64
	VirtualAddressBits uint64
	PhysicalMemorySize uint64
	NumFrames          uint64
	PageTableLevels    uint64
	BitsPerLevel       uint64
	TLBSize            int
}

// DefaultConfig returns a 32-bit address space with 4 KiB pages, 64 MiB of
// physical memory, a two-level 10+10 bit page table and a 64-entry TLB.
func DefaultConfig() Config {
	c := Config{
		PageSize:           4096,
		OffsetBits:         12,
		VirtualAddressBits: 32,
		PhysicalMemorySize: 64 * 1024 * 1024,
		PageTableLevels:    2,
		BitsPerLevel:       10,
		TLBSize:            64,
	}
	c.NumFrames = c.PhysicalMemorySize / c.PageSize

	return c
}

// SmallConfig returns a 16-bit address space with 256 B pages, 16 KiB of
// physical memory, a two-level 4+4 bit page table and an 8-entry TLB.
func SmallConfig() Config {
	c := Config{
		PageSize:           256,
		OffsetBits:         8,
		VirtualAddressBits: 16,
		PhysicalMemorySize: 16 * 1024,
		PageTableLevels:    2,
		BitsPerLevel:       4,
		TLBSize:            8,
	}
	c.NumFrames = c.PhysicalMemorySize / c.PageSize

	return c
}

// PresetConfig returns the preset with the given name. The known presets are
// "default" and "small".
func PresetConfig(name string) (Config, error) {
	switch name {
	case "default", "":
		return DefaultConfig(), nil
	case "small":
		return SmallConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown preset %q", name)
	}
}

// WithTLBSize returns a copy of the config with a different TLB capacity.
func (c Config) WithTLBSize(n int) Config {
	c.TLBSize = n
	return c
}

// EntriesPerLevel returns the fan-out of every page table node.
func (c Config) EntriesPerLevel() uint64 {
	return 1 << c.BitsPerLevel
}

// PageNumber extracts the virtual page number from an address.
func (c Config) PageNumber(vAddr VirtualAddress) PageNumber {
	return vAddr >> c.OffsetBits
}

// Offset extracts the in-page offset from an address.
func (c Config) Offset(vAddr VirtualAddress) uint64 {
	return vAddr & (1<<c.OffsetBits - 1)
}

// PhysicalAddress composes the physical address of an offset in a frame.
func (c Config) PhysicalAddress(pfn FrameNumber, offset uint64) PhysicalAddress {
	return pfn*c.PageSize + offset
}
