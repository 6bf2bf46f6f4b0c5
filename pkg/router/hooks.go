package router

import (
	"slices"
	"sync"
)

type hookEntry[T any] struct {
	fn T
}

// hookList is an ordered, concurrency-safe hook registry. Each registration
// gets its own entry, so deregistering removes exactly that registration
// even when the same function was added twice.
type hookList[T any] struct {
	mu      sync.Mutex
	entries []*hookEntry[T]
}

// add appends fn and returns a function removing it again.
func (l *hookList[T]) add(fn T) func() {
	e := &hookEntry[T]{fn: fn}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if i := slices.Index(l.entries, e); i >= 0 {
			l.entries = slices.Delete(l.entries, i, i+1)
		}
	}
}

// snapshot returns the registered hooks in registration order.
func (l *hookList[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]T, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.fn
	}
	return out
}
