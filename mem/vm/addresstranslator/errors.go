package addresstranslator

import (
	"errors"
	"fmt"
)

// ErrFrameNotAllocated is returned by byte accesses, when the allocated
// frame check is enabled, if the translated frame has been released.
var ErrFrameNotAllocated = errors.New("frame not allocated")

// An AccessError reports a byte access that could not be performed. It wraps
// vm.ErrTranslationFailure when no frame could be found for the page.
type AccessError struct {
	Op    string
	VAddr uint64
	Err   error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s virtual address 0x%x: %v", e.Op, e.VAddr, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}
