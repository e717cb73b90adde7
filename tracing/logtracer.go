// Package tracing provides hooks that observe an address translator.
package tracing

import (
	"log"

	"github.com/sarchlab/vmsim/mem/vm/addresstranslator"
	"github.com/sarchlab/vmsim/sim/hooking"
)

// LogTracer writes one log line for every event of an address translator.
type LogTracer struct {
	*log.Logger
}

// NewLogTracer creates a LogTracer that writes to the given logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{Logger: logger}
}

// Func logs the event.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	switch item := ctx.Item.(type) {
	case addresstranslator.TranslationEvent:
		t.logTranslation(ctx.Pos, item)
	case addresstranslator.EvictionEvent:
		t.Printf("%s: frame %d from page 0x%x to page 0x%x, invalidated=%t",
			ctx.Pos.Name, item.FrameNumber, item.OldVPN, item.NewVPN,
			item.Invalidated)
	}
}

func (t *LogTracer) logTranslation(
	pos *hooking.HookPos,
	e addresstranslator.TranslationEvent,
) {
	switch pos {
	case addresstranslator.HookPosTranslationFailure:
		t.Printf("%s: 0x%x (page 0x%x)", pos.Name, e.VAddr, e.VPN)
	case addresstranslator.HookPosPageFree:
		t.Printf("%s: page 0x%x released frame %d",
			pos.Name, e.VPN, e.FrameNumber)
	default:
		t.Printf("%s: %s 0x%x -> 0x%x (page 0x%x, frame %d)",
			pos.Name, accessKind(e.IsWrite), e.VAddr, e.PAddr,
			e.VPN, e.FrameNumber)
	}
}

func accessKind(isWrite bool) string {
	if isWrite {
		return "write"
	}

	return "read"
}
