package location

import (
	"sync"
)

// Memory is an in-process Backend with its own entry stack.
type Memory struct {
	pushState bool // set once by NewMemory

	mu        sync.Mutex
	entries   []string
	index     int
	listeners map[int]func(string)
	nextID    int
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithMemoryPushState sets whether entry-level history manipulation is
// available. Routers in history mode fall back to hash mode without it.
// The default is true.
func WithMemoryPushState(ok bool) MemoryOption {
	return func(m *Memory) {
		m.pushState = ok
	}
}

// NewMemory returns a Memory backend showing url.
func NewMemory(url string, opts ...MemoryOption) *Memory {
	if url == "" {
		url = "/"
	}
	m := &Memory{
		pushState: true,
		entries:   []string{url},
		listeners: make(map[int]func(string)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CurrentLocation implements router.Backend.
func (m *Memory) CurrentLocation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Push implements router.Backend. Entries after the current one are dropped.
func (m *Memory) Push(url string) error {
	m.mu.Lock()
	m.entries = append(m.entries[:m.index+1], url)
	m.index++
	m.mu.Unlock()
	return nil
}

// Replace implements router.Backend.
func (m *Memory) Replace(url string) error {
	m.mu.Lock()
	m.entries[m.index] = url
	m.mu.Unlock()
	return nil
}

// Go implements router.Backend. Out-of-range moves are ignored.
func (m *Memory) Go(n int) {
	m.mu.Lock()
	target := m.index + n
	if n == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return
	}
	m.index = target
	url := m.entries[target]
	m.mu.Unlock()

	m.emit(url)
}

// Listen implements router.Backend.
func (m *Memory) Listen(fn func(url string)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// SupportsPushState implements router.PushStateSupporter. The answer is
// fixed at construction.
func (m *Memory) SupportsPushState() bool {
	return m.pushState
}

// Visit adds url as a new entry the way a user typing into the address bar
// would, and notifies the listeners.
func (m *Memory) Visit(url string) {
	m.Push(url)
	m.emit(url)
}

// Entries returns the entry stack and the current index.
func (m *Memory) Entries() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries...), m.index
}

func (m *Memory) emit(url string) {
	m.mu.Lock()
	fns := make([]func(string), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(url)
	}
}
