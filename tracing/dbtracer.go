package tracing

import (
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/mem/vm/addresstranslator"
	"github.com/sarchlab/vmsim/sim/hooking"
	"github.com/sarchlab/vmsim/sim/naming"
)

// Names of the tables that a DBTracer creates.
const (
	TranslationTable = "vmsim_translations"
	EvictionTable    = "vmsim_evictions"
)

type translationTableEntry struct {
	ID         string
	Seq        uint64
	Domain     string
	What       string
	VAddr      uint64
	VPN        uint64
	PageOffset uint64
	Frame      uint64
	PAddr      uint64
	IsWrite    bool
}

type evictionTableEntry struct {
	ID          string
	Seq         uint64
	Domain      string
	Frame       uint64
	OldVPN      uint64
	NewVPN      uint64
	Invalidated bool
}

// DBTracer is a tracer that stores the events of an address translator into
// a DataRecorder, one row per event.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder
	seq     uint64
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{backend: backend}

	backend.CreateTable(TranslationTable, translationTableEntry{})
	backend.CreateTable(EvictionTable, evictionTableEntry{})

	return t
}

// Func records the event.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	t.mu.Lock()
	defer t.mu.Unlock()

	domain := domainName(ctx.Domain)

	switch item := ctx.Item.(type) {
	case addresstranslator.TranslationEvent:
		t.seq++
		t.backend.InsertData(TranslationTable, translationTableEntry{
			ID:         xid.New().String(),
			Seq:        t.seq,
			Domain:     domain,
			What:       ctx.Pos.Name,
			VAddr:      item.VAddr,
			VPN:        item.VPN,
			PageOffset: item.Offset,
			Frame:      item.FrameNumber,
			PAddr:      item.PAddr,
			IsWrite:    item.IsWrite,
		})
	case addresstranslator.EvictionEvent:
		t.seq++
		t.backend.InsertData(EvictionTable, evictionTableEntry{
			ID:          xid.New().String(),
			Seq:         t.seq,
			Domain:      domain,
			Frame:       item.FrameNumber,
			OldVPN:      item.OldVPN,
			NewVPN:      item.NewVPN,
			Invalidated: item.Invalidated,
		})
	}
}

// Flush writes the buffered rows.
func (t *DBTracer) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}

func domainName(domain hooking.Hookable) string {
	if n, ok := domain.(naming.Named); ok {
		return n.Name()
	}

	return ""
}
