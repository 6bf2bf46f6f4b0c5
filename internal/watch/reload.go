package watch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vango-dev/vnav/pkg/router"
)

// LoadFunc reads the current route table.
type LoadFunc func() ([]router.RouteConfig, error)

// Reloader adds routes that appear in a route table to a running router.
// The router cannot drop routes, so removals are only reported.
type Reloader struct {
	router *router.Router
	load   LoadFunc
	logger *slog.Logger
}

// NewReloader returns a Reloader feeding r from load.
func NewReloader(r *router.Router, load LoadFunc, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{router: r, load: load, logger: logger}
}

// Reload reads the table and registers its new top-level routes. It
// returns the paths it added.
func (rl *Reloader) Reload() ([]string, error) {
	routes, err := rl.load()
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool)
	for _, rec := range rl.router.GetRoutes() {
		if rec.Parent == nil && rec.MatchAs == "" {
			known[rec.Path] = true
		}
	}

	var added []string
	seen := make(map[string]bool, len(routes))
	for _, cfg := range routes {
		path := topLevelPath(cfg.Path)
		seen[path] = true
		if known[path] {
			continue
		}
		if err := rl.router.AddRoute("", cfg); err != nil {
			rl.logger.Warn("route not added", "path", path, "error", err)
			continue
		}
		added = append(added, path)
	}

	for path := range known {
		if !seen[path] {
			rl.logger.Warn("route removed from table; restart to drop it", "path", path)
		}
	}
	if len(added) > 0 {
		rl.logger.Info("routes added", "paths", added)
	}
	return added, nil
}

// Watch reloads whenever w reports a change and runs w until ctx is done.
func (rl *Reloader) Watch(ctx context.Context, w *Watcher) error {
	w.OnChange(func(c Change) {
		if c.Type == ChangeRemoved {
			rl.logger.Warn("route table removed", "path", c.Path)
			return
		}
		if _, err := rl.Reload(); err != nil {
			rl.logger.Error("route table reload failed", "path", c.Path, "error", err)
		}
	})
	return w.Start(ctx)
}

func topLevelPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
