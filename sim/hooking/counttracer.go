package hooking

import (
	"sync"
)

// CountFilter decides if an invocation should be counted.
type CountFilter func(ctx HookCtx) bool

// CountTracer counts how many times each hook position is invoked.
type CountTracer struct {
	filter CountFilter
	lock   sync.Mutex

	posNames []string
	posCount map[string]uint64
}

// NewCountTracer creates a new CountTracer. A nil filter counts every
// invocation.
func NewCountTracer(filter CountFilter) *CountTracer {
	return &CountTracer{
		filter:   filter,
		posCount: make(map[string]uint64),
	}
}

// Func counts one invocation.
func (t *CountTracer) Func(ctx HookCtx) {
	if t.filter != nil && !t.filter(ctx) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	name := ctx.Pos.Name
	if _, ok := t.posCount[name]; !ok {
		t.posNames = append(t.posNames, name)
	}

	t.posCount[name]++
}

// PosNames returns the names of the positions seen, in order of first
// appearance.
func (t *CountTracer) PosNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.posNames...)
}

// Count returns the number of invocations counted at a position.
func (t *CountTracer) Count(posName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.posCount[posName]
}
