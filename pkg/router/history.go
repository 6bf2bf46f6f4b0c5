package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// HistoryController is implemented by the history variants. Each variant
// embeds *History, which carries the transition pipeline, and adds the
// location-store side: how a committed route is written to the URL and how
// external URL changes come back in.
type HistoryController interface {
	// State returns the shared transition state.
	State() *History

	// Push navigates to loc and adds a history entry on commit.
	Push(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error

	// Replace navigates to loc and overwrites the current entry on commit.
	Replace(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error

	// Go moves n entries through the history stack.
	Go(n int)

	// EnsureURL makes the location store reflect the current route. With
	// push set a new entry is added instead of rewriting the current one.
	EnsureURL(push bool)

	// CurrentLocation reads the location store.
	CurrentLocation() string

	// SetupListeners subscribes to external location changes.
	SetupListeners()
}

// History is the transition state machine shared by every variant.
//
// Navigations run on the caller's goroutine. Several may be in flight at
// once; each guard step checks that its navigation is still the pending one
// and gives up with a cancelled failure otherwise, so only the most recent
// navigation can commit.
type History struct {
	router *Router
	impl   HistoryController
	base   string

	// ctx is used for transitions started by the location store rather
	// than by a caller.
	ctx context.Context

	mu            sync.Mutex
	current       *Route
	pending       *Route
	ready         bool
	readyCbs      []func(*Route)
	readyErrorCbs []func(error)
	errorCbs      []func(error)
	listener      func(*Route)
	cleanups      []func()
}

func newHistory(r *Router, base string) *History {
	return &History{
		router:  r,
		base:    normalizeBase(base),
		ctx:     context.Background(),
		current: Start,
	}
}

// normalizeBase gives base a leading slash and strips a trailing one, so the
// root base is "".
func normalizeBase(base string) string {
	if base == "" {
		base = "/"
	}
	if base[0] != '/' {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}

// State returns h. It lets variants satisfy HistoryController through
// embedding.
func (h *History) State() *History { return h }

// Base returns the normalized base path.
func (h *History) Base() string { return h.base }

// Current returns the last committed route.
func (h *History) Current() *Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Pending returns the in-flight navigation target, or nil.
func (h *History) Pending() *Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

// Ready reports whether the initial navigation has settled.
func (h *History) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

// Listen sets the function told about every committed route.
func (h *History) Listen(cb func(*Route)) {
	h.mu.Lock()
	h.listener = cb
	h.mu.Unlock()
}

// OnReady runs cb once the initial navigation has committed, right away if
// it already has. errorCb, if set, runs instead when the initial navigation
// fails.
func (h *History) OnReady(cb func(*Route), errorCb func(error)) {
	h.mu.Lock()
	if h.ready {
		current := h.current
		h.mu.Unlock()
		if cb != nil {
			cb(current)
		}
		return
	}
	if cb != nil {
		h.readyCbs = append(h.readyCbs, cb)
	}
	if errorCb != nil {
		h.readyErrorCbs = append(h.readyErrorCbs, errorCb)
	}
	h.mu.Unlock()
}

// OnError registers cb for errors raised during navigation. Navigation
// failures are not errors and never reach cb.
func (h *History) OnError(cb func(error)) {
	h.mu.Lock()
	h.errorCbs = append(h.errorCbs, cb)
	h.mu.Unlock()
}

// Teardown drops the location listeners and returns to Start.
func (h *History) Teardown() {
	h.mu.Lock()
	cleanups := h.cleanups
	h.cleanups = nil
	h.current = Start
	h.pending = nil
	h.mu.Unlock()

	for _, cleanup := range cleanups {
		cleanup()
	}
}

func (h *History) addCleanup(fn func()) {
	h.mu.Lock()
	h.cleanups = append(h.cleanups, fn)
	h.mu.Unlock()
}

func (h *History) listening() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cleanups) > 0
}

// TransitionTo resolves loc against the current route and runs the
// navigation. A location that cannot be resolved is reported to the error
// callbacks and returned; everything else settles through onComplete or
// onAbort before TransitionTo returns.
func (h *History) TransitionTo(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error {
	prev := h.Current()

	route, err := h.router.matcher.Match(loc, prev, nil)
	if err != nil {
		h.broadcastError(err)
		return err
	}

	obs := h.router.observer
	ctx = obs.NavigationStart(ctx, route, prev)

	h.ConfirmTransition(ctx, route, func(route *Route) {
		h.updateRoute(route)
		if onComplete != nil {
			onComplete(route)
		}
		h.impl.EnsureURL(false)
		for _, hook := range h.router.afterHooks.snapshot() {
			hook(route, prev)
		}

		h.mu.Lock()
		var readyCbs []func(*Route)
		if !h.ready {
			h.ready = true
			readyCbs = h.readyCbs
			h.readyCbs = nil
			h.readyErrorCbs = nil
		}
		h.mu.Unlock()
		for _, cb := range readyCbs {
			cb(route)
		}

		obs.NavigationEnd(ctx, route, prev, nil)
	}, func(err error) {
		if onAbort != nil {
			onAbort(err)
		}

		if err != nil {
			h.mu.Lock()
			var errorCbs []func(error)
			// a redirect away from the very first location keeps waiting
			// for the navigation it started
			if !h.ready && (!IsNavigationFailure(err, FailureRedirected) || prev != Start) {
				h.ready = true
				errorCbs = h.readyErrorCbs
				h.readyCbs = nil
				h.readyErrorCbs = nil
			}
			h.mu.Unlock()
			for _, cb := range errorCbs {
				cb(err)
			}
		}

		obs.NavigationEnd(ctx, route, prev, err)
	})
	return nil
}

// ConfirmTransition runs the guard pipeline for route and calls exactly one
// of onComplete or onAbort.
func (h *History) ConfirmTransition(ctx context.Context, route *Route, onComplete func(*Route), onAbort func(error)) {
	h.mu.Lock()
	current := h.current
	h.pending = route
	h.mu.Unlock()

	log := h.router.logger

	abort := func(err error) {
		if err != nil && !IsNavigationFailure(err) {
			h.broadcastError(err)
		}
		if onAbort != nil {
			onAbort(err)
		}
	}

	if IsSameRoute(route, current) &&
		len(route.Matched) == len(current.Matched) &&
		route.leaf() == current.leaf() {
		h.impl.EnsureURL(false)
		abort(newDuplicatedFailure(current, route))
		return
	}

	updated, activated, deactivated := resolveQueue(current.Matched, route.Matched)

	beforeEnter := make([]Guard, len(activated))
	for i, rec := range activated {
		beforeEnter[i] = rec.BeforeEnter
	}

	insp := h.router.inspector
	queue := concatGuards(
		extractLeaveGuards(insp, deactivated),
		h.router.beforeHooks.snapshot(),
		extractUpdateHooks(insp, updated),
		beforeEnter,
		[]Guard{resolveAsyncComponents(activated, log)},
	)

	step := func(guard Guard) bool {
		if h.Pending() != route {
			abort(newCancelledFailure(current, route))
			return false
		}

		out, err := callGuard(ctx, guard, route, current)
		if err != nil {
			abort(err)
			return false
		}

		if target, ok := out.Target(); ok {
			abort(newRedirectedFailure(current, route))
			log.Debug("guard redirected navigation", "from", route.FullPath, "to", target.String())
			var err error
			if target.Replace {
				err = h.impl.Replace(ctx, target, nil, nil)
			} else {
				err = h.impl.Push(ctx, target, nil, nil)
			}
			if err != nil {
				log.Debug("redirect target could not be resolved", "to", target.String(), "error", err)
			}
			return false
		}
		if out.Denied() {
			h.impl.EnsureURL(true)
			abort(newAbortedFailure(current, route))
			return false
		}
		if err := out.Err(); err != nil {
			h.impl.EnsureURL(true)
			abort(err)
			return false
		}
		return true
	}

	runQueue(queue, step, func() {
		enterQueue := concatGuards(
			extractEnterGuards(insp, activated),
			h.router.resolveHooks.snapshot(),
		)
		runQueue(enterQueue, step, func() {
			h.mu.Lock()
			if h.pending != route {
				h.mu.Unlock()
				abort(newCancelledFailure(current, route))
				return
			}
			h.pending = nil
			h.mu.Unlock()

			onComplete(route)

			if host := h.router.host(); host != nil {
				host.NextTick(func() { handleRouteEntered(route) })
			}
		})
	})
}

// callGuard runs guard, turning a panic into an error.
func callGuard(ctx context.Context, guard Guard, to, from *Route) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GuardError{Value: r}
		}
	}()
	return guard(ctx, to, from), nil
}

func (h *History) updateRoute(route *Route) {
	h.mu.Lock()
	h.current = route
	listener := h.listener
	h.mu.Unlock()

	if listener != nil {
		listener(route)
	}
}

// broadcastError hands err to the error callbacks, or logs it when nobody
// listens.
func (h *History) broadcastError(err error) {
	h.mu.Lock()
	cbs := h.errorCbs
	h.mu.Unlock()

	if len(cbs) == 0 {
		log := h.router.logger
		log.Warn("uncaught error during route navigation")
		log.Error(err.Error())
		return
	}
	for _, cb := range cbs {
		cb(err)
	}
}

func (h *History) String() string {
	return fmt.Sprintf("History{base: %q, current: %q}", h.base, h.Current().FullPath)
}
