package vm

import "errors"

// ErrOutOfRange is returned when a frame number or a physical address falls
// outside of the physical memory.
var ErrOutOfRange = errors.New("out of range")

// ErrTranslationFailure reports that a page fault could not be served because
// no free frame and no unpinned victim frame exist.
var ErrTranslationFailure = errors.New("translation failure")
