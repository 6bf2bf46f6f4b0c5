// Package watch re-reads route tables when they change on disk and adds
// the new routes to a running router.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeWritten ChangeType = iota
	ChangeRemoved
)

func (c ChangeType) String() string {
	if c == ChangeRemoved {
		return "removed"
	}
	return "written"
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Files are the files to watch.
	Files []string

	// Debounce is the quiet period after the last event before OnChange
	// runs.
	Debounce time.Duration

	Logger *slog.Logger
}

// Watcher reports changes to a set of files. It watches their directories
// so that editors replacing a file by rename are seen too.
type Watcher struct {
	config   WatcherConfig
	fsw      *fsnotify.Watcher
	files    map[string]bool
	onChange func(Change)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	timer   *time.Timer
	pending map[string]ChangeType
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		config:  config,
		fsw:     fsw,
		files:   make(map[string]bool),
		pending: make(map[string]ChangeType),
	}
	dirs := make(map[string]bool)
	for _, f := range config.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch: %w", err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// OnChange sets the callback for file changes. It must be set before Start.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Warn("file watcher error", "error", err)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil || !w.files[name] {
		return
	}

	var typ ChangeType
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		typ = ChangeWritten
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		typ = ChangeRemoved
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[name] = typ
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, w.flush)
}

// flush reports the last change of every file touched in the quiet period.
func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	pending := w.pending
	w.pending = make(map[string]ChangeType)
	callback := w.onChange
	w.mu.Unlock()

	if callback == nil {
		return
	}
	for path, typ := range pending {
		callback(Change{Path: path, Type: typ})
	}
}
