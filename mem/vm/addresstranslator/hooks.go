package addresstranslator

import "github.com/sarchlab/vmsim/sim/hooking"

// The positions where an address translator invokes its hooks. Translation
// positions carry a TranslationEvent as the item; HookPosEviction carries an
// EvictionEvent.
var (
	HookPosTLBHit             = &hooking.HookPos{Name: "TLBHit"}
	HookPosPageTableHit       = &hooking.HookPos{Name: "PageTableHit"}
	HookPosPageFault          = &hooking.HookPos{Name: "PageFault"}
	HookPosTranslationFailure = &hooking.HookPos{Name: "TranslationFailure"}
	HookPosPageFree           = &hooking.HookPos{Name: "PageFree"}
	HookPosEviction           = &hooking.HookPos{Name: "Eviction"}
)

// A TranslationEvent describes one translation, or one freed page.
// FrameNumber and PAddr are zero when the translation failed.
type TranslationEvent struct {
	VAddr       uint64
	VPN         uint64
	Offset      uint64
	FrameNumber uint64
	PAddr       uint64
	IsWrite     bool
}

// An EvictionEvent describes a frame taken from one page and handed to
// another. Invalidated tells whether the old mapping was dropped.
type EvictionEvent struct {
	FrameNumber uint64
	OldVPN      uint64
	NewVPN      uint64
	Invalidated bool
}
