package router

import (
	"context"
	"strings"

	"github.com/vango-dev/vnav/pkg/routepath"
)

// Mode selects how routes are written to the location store.
type Mode string

// History modes.
const (
	ModeHash     Mode = "hash"
	ModeHistory  Mode = "history"
	ModeAbstract Mode = "abstract"
)

// Backend is the location store behind a URL history: a browser tab, a
// remote client, or an in-process stand-in. URLs are origin-relative
// ("/app/users/42?tab=1#top").
type Backend interface {
	CurrentLocation() string
	Push(url string) error
	Replace(url string) error

	// Go moves through the backend's own stack. The backend reports the
	// resulting location through the Listen callback.
	Go(n int)

	// Listen subscribes fn to location changes the router did not make.
	Listen(fn func(url string)) (unlisten func())
}

// PushStateSupporter is implemented by backends that may lack entry-level
// history manipulation. Backends not implementing it are assumed capable.
type PushStateSupporter interface {
	SupportsPushState() bool
}

func supportsPushState(b Backend) bool {
	if s, ok := b.(PushStateSupporter); ok {
		return s.SupportsPushState()
	}
	return true
}

// URLHistory keeps routes in a Backend's URL, either as the path after the
// base (ModeHistory) or as the fragment (ModeHash).
type URLHistory struct {
	*History

	mode          Mode
	backend       Backend
	startLocation string
}

var _ HistoryController = (*URLHistory)(nil)

func newURLHistory(r *Router, mode Mode, base string, backend Backend, fallback bool) *URLHistory {
	u := &URLHistory{
		History: newHistory(r, base),
		mode:    mode,
		backend: backend,
	}
	u.impl = u

	if mode == ModeHash {
		if fallback && u.checkFallback() {
			return u
		}
		u.ensureSlash()
		return u
	}

	u.startLocation = u.pathLocation()
	return u
}

// Mode returns ModeHash or ModeHistory.
func (u *URLHistory) Mode() Mode { return u.mode }

// Push implements HistoryController.
func (u *URLHistory) Push(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error {
	return u.TransitionTo(ctx, loc, func(route *Route) {
		u.write(route.FullPath, true)
		if onComplete != nil {
			onComplete(route)
		}
	}, onAbort)
}

// Replace implements HistoryController.
func (u *URLHistory) Replace(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error {
	return u.TransitionTo(ctx, loc, func(route *Route) {
		u.write(route.FullPath, false)
		if onComplete != nil {
			onComplete(route)
		}
	}, onAbort)
}

// Go implements HistoryController.
func (u *URLHistory) Go(n int) { u.backend.Go(n) }

// EnsureURL implements HistoryController.
func (u *URLHistory) EnsureURL(push bool) {
	current := u.Current().FullPath
	if u.CurrentLocation() != current {
		u.write(current, push)
	}
}

// CurrentLocation implements HistoryController.
func (u *URLHistory) CurrentLocation() string {
	if u.mode == ModeHash {
		return u.hashLocation()
	}
	return u.pathLocation()
}

// SetupListeners implements HistoryController. It is a no-op once
// listeners are installed.
func (u *URLHistory) SetupListeners() {
	if u.listening() {
		return
	}
	unlisten := u.backend.Listen(func(string) { u.handleRoutingEvent() })
	u.addCleanup(unlisten)
}

func (u *URLHistory) handleRoutingEvent() {
	log := u.router.logger

	if u.mode == ModeHash {
		if !u.ensureSlash() {
			return
		}
		err := u.TransitionTo(u.ctx, To(u.hashLocation()), func(route *Route) {
			if !supportsPushState(u.backend) {
				u.write(route.FullPath, false)
			}
		}, nil)
		if err != nil {
			log.Debug("location change could not be resolved", "error", err)
		}
		return
	}

	location := u.pathLocation()
	// some backends report the initial location once listeners attach
	if u.Current() == Start && location == u.startLocation {
		return
	}
	if err := u.TransitionTo(u.ctx, To(location), nil, nil); err != nil {
		log.Debug("location change could not be resolved", "error", err)
	}
}

// write stores fullPath in the backend as a new or replacing entry.
func (u *URLHistory) write(fullPath string, push bool) {
	var url string
	if u.mode == ModeHash {
		url = u.hashURL(fullPath)
	} else {
		url = routepath.CleanPath(u.base + fullPath)
	}

	var err error
	if push {
		err = u.backend.Push(url)
	} else {
		err = u.backend.Replace(url)
	}
	if err != nil {
		u.router.logger.Warn("failed to update location", "url", url, "push", push, "error", err)
	}
}

// pathLocation returns the backend location with the base stripped.
func (u *URLHistory) pathLocation() string {
	raw := u.backend.CurrentLocation()

	path, rest := raw, ""
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		path, rest = raw[:i], raw[i:]
	}

	base := u.base
	lowerPath := strings.ToLower(path)
	lowerBase := strings.ToLower(base)
	if base != "" && (lowerPath == lowerBase || strings.HasPrefix(lowerPath, routepath.CleanPath(lowerBase+"/"))) {
		path = path[len(base):]
	}
	if path == "" {
		path = "/"
	}
	return path + rest
}

// hashLocation returns everything after the first '#'.
func (u *URLHistory) hashLocation() string {
	raw := u.backend.CurrentLocation()
	i := strings.IndexByte(raw, '#')
	if i < 0 {
		return ""
	}
	return raw[i+1:]
}

// hashURL keeps the backend URL up to the fragment and puts path after it.
func (u *URLHistory) hashURL(path string) string {
	raw := u.backend.CurrentLocation()
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return raw + "#" + path
}

// ensureSlash makes sure the fragment starts with '/'. It reports whether
// it already did.
func (u *URLHistory) ensureSlash() bool {
	path := u.hashLocation()
	if strings.HasPrefix(path, "/") {
		return true
	}
	u.write("/"+path, false)
	return false
}

// checkFallback rewrites a path-style URL into its hash form for backends
// without push-state support. It reports whether it rewrote.
func (u *URLHistory) checkFallback() bool {
	location := u.pathLocation()
	if strings.HasPrefix(location, "/#") {
		return false
	}
	url := routepath.CleanPath(u.base + "/#" + location)
	if err := u.backend.Replace(url); err != nil {
		u.router.logger.Warn("failed to convert location to hash mode", "url", url, "error", err)
	}
	return true
}
