package tracing

import (
	"sync"

	"github.com/sarchlab/vmsim/sim/hooking"
)

// CountTracer counts how many times each hook position is triggered.
type CountTracer struct {
	lock     sync.Mutex
	posNames []string
	count    map[string]uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		count: make(map[string]uint64),
	}
}

// Func counts the hook position.
func (t *CountTracer) Func(ctx hooking.HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	name := ctx.Pos.Name
	if _, ok := t.count[name]; !ok {
		t.posNames = append(t.posNames, name)
	}

	t.count[name]++
}

// PosNames returns the names of the positions seen, in the order they were
// first seen.
func (t *CountTracer) PosNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.posNames...)
}

// Count returns how many times the position was triggered.
func (t *CountTracer) Count(pos *hooking.HookPos) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count[pos.Name]
}

// Counts returns a copy of all the counters, keyed by position name.
func (t *CountTracer) Counts() map[string]uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	counts := make(map[string]uint64, len(t.count))
	for k, v := range t.count {
		counts[k] = v
	}

	return counts
}

// Reset clears all the counters.
func (t *CountTracer) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.posNames = nil
	t.count = make(map[string]uint64)
}
