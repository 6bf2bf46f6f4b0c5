package router

import (
	"context"
	"slices"
)

// MemoryHistory keeps its own stack of routes and has no location store.
// It backs routers with no Backend: servers, tests and CLI tools.
type MemoryHistory struct {
	*History

	// guarded by History.mu
	stack []*Route
	index int
}

var _ HistoryController = (*MemoryHistory)(nil)

func newMemoryHistory(r *Router, base string) *MemoryHistory {
	m := &MemoryHistory{
		History: newHistory(r, base),
		index:   -1,
	}
	m.impl = m
	return m
}

// Push implements HistoryController.
func (m *MemoryHistory) Push(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error {
	return m.TransitionTo(ctx, loc, func(route *Route) {
		m.mu.Lock()
		m.stack = append(m.stack[:m.index+1], route)
		m.index++
		m.mu.Unlock()
		if onComplete != nil {
			onComplete(route)
		}
	}, onAbort)
}

// Replace implements HistoryController.
func (m *MemoryHistory) Replace(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error {
	return m.TransitionTo(ctx, loc, func(route *Route) {
		m.mu.Lock()
		m.stack = append(m.stack[:max(m.index, 0)], route)
		if m.index < 0 {
			m.index = 0
		}
		m.mu.Unlock()
		if onComplete != nil {
			onComplete(route)
		}
	}, onAbort)
}

// Go implements HistoryController. Out-of-range moves are ignored. The move
// still runs the guards; a duplicate target moves the index without a
// transition.
func (m *MemoryHistory) Go(n int) {
	m.mu.Lock()
	target := m.index + n
	if target < 0 || target >= len(m.stack) {
		m.mu.Unlock()
		return
	}
	route := m.stack[target]
	m.mu.Unlock()

	m.ConfirmTransition(m.ctx, route, func(route *Route) {
		prev := m.Current()
		m.mu.Lock()
		m.index = target
		m.mu.Unlock()
		m.updateRoute(route)
		for _, hook := range m.router.afterHooks.snapshot() {
			hook(route, prev)
		}
	}, func(err error) {
		if IsNavigationFailure(err, FailureDuplicated) {
			m.mu.Lock()
			m.index = target
			m.mu.Unlock()
		}
	})
}

// EnsureURL implements HistoryController. There is no URL to sync.
func (m *MemoryHistory) EnsureURL(bool) {}

// CurrentLocation implements HistoryController. It is the full path of the
// top of the stack.
func (m *MemoryHistory) CurrentLocation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stack) == 0 {
		return "/"
	}
	return m.stack[len(m.stack)-1].FullPath
}

// SetupListeners implements HistoryController. Nothing outside the router
// moves a memory history.
func (m *MemoryHistory) SetupListeners() {}

// Stack returns the full paths of the entries and the current index.
func (m *MemoryHistory) Stack() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, len(m.stack))
	for i, r := range m.stack {
		paths[i] = r.FullPath
	}
	return paths, m.index
}

// Entries returns the routes on the stack.
func (m *MemoryHistory) Entries() []*Route {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.stack)
}
