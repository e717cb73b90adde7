package addresstranslator

import (
	"fmt"
	"io"

	"github.com/sarchlab/vmsim/mem/vm"
)

// A StatsReport is a snapshot of the configuration, the counters and the memory
// usage of an address translator. Rates are percentages of TotalAccesses.
type StatsReport struct {
	Name       string     `json:"name"`
	Config     vm.Config  `json:"config"`
	Statistics Statistics `json:"statistics"`

	TLBHitRate       float64 `json:"tlb_hit_rate"`
	PageTableHitRate float64 `json:"page_table_hit_rate"`
	PageFaultRate    float64 `json:"page_fault_rate"`

	TLBEntries       int    `json:"tlb_entries"`
	AllocatedFrames  uint64 `json:"allocated_frames"`
	FreeFrames       uint64 `json:"free_frames"`
	NumFrames        uint64 `json:"num_frames"`
	PageTableEntries uint64 `json:"page_table_entries"`
	PageTableNodes   uint64 `json:"page_table_nodes"`
}

// Report collects a snapshot of the address translator.
func (c *Comp) Report() StatsReport {
	r := StatsReport{
		Name:             c.Name(),
		Config:           c.config,
		Statistics:       c.stats,
		TLBEntries:       c.tlb.Len(),
		AllocatedFrames:  c.allocator.NumAllocatedFrames(),
		FreeFrames:       c.allocator.NumFreeFrames(),
		NumFrames:        c.allocator.NumFrames(),
		PageTableEntries: c.pageTable.NumEntries(),
		PageTableNodes:   c.pageTable.NumNodes(),
	}

	if total := c.stats.TotalAccesses; total > 0 {
		r.TLBHitRate = percentage(c.stats.TLBHits, total)
		r.PageTableHitRate = percentage(c.stats.PageTableHits, total)
		r.PageFaultRate = percentage(c.stats.PageFaults, total)
	}

	return r
}

func percentage(n, total uint64) float64 {
	return float64(n) / float64(total) * 100
}

// WriteReport renders the report of the address translator as text.
func (c *Comp) WriteReport(w io.Writer) error {
	return c.Report().Render(w)
}

// Render writes the report as text.
func (r StatsReport) Render(w io.Writer) error {
	p := &reportPrinter{w: w}

	p.line("==== %s statistics ====", r.Name)

	p.line("")
	p.line("Memory configuration:")
	p.line("  Page size:             %d bytes", r.Config.PageSize)
	p.line("  Virtual address space: %d bits", r.Config.VirtualAddressBits)
	p.line("  Physical memory:       %d bytes (%d KB)",
		r.Config.PhysicalMemorySize, r.Config.PhysicalMemorySize/1024)
	p.line("  Frames:                %d", r.Config.NumFrames)
	p.line("  Page table levels:     %d x %d bits",
		r.Config.PageTableLevels, r.Config.BitsPerLevel)
	p.line("  TLB size:              %d entries", r.Config.TLBSize)

	p.line("")
	p.line("Memory accesses:")
	p.line("  Total accesses:        %d", r.Statistics.TotalAccesses)
	p.line("  TLB hits:              %d", r.Statistics.TLBHits)
	p.line("  Page table hits:       %d", r.Statistics.PageTableHits)
	p.line("  Page faults:           %d", r.Statistics.PageFaults)

	if r.Statistics.TotalAccesses > 0 {
		p.line("")
		p.line("Hit rates:")
		p.line("  TLB hit rate:          %.2f%%", r.TLBHitRate)
		p.line("  Page table hit rate:   %.2f%%", r.PageTableHitRate)
		p.line("  Page fault rate:       %.2f%%", r.PageFaultRate)
	}

	p.line("")
	p.line("Memory usage:")
	p.line("  Allocated frames:      %d / %d", r.AllocatedFrames, r.NumFrames)
	p.line("  Free frames:           %d", r.FreeFrames)
	p.line("  Page table entries:    %d", r.PageTableEntries)
	p.line("  Page table nodes:      %d", r.PageTableNodes)
	p.line("  TLB entries:           %d", r.TLBEntries)

	return p.err
}

// reportPrinter keeps the first write error so that the report can be
// written without checking every line.
type reportPrinter struct {
	w   io.Writer
	err error
}

func (p *reportPrinter) line(format string, args ...any) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}
