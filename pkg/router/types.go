package router

import (
	"context"
)

// Instance is a mounted view instance. Instances are owned by the rendering
// layer; the pipeline only binds guards to them.
type Instance any

// GuardName identifies an in-component guard.
type GuardName string

// In-component guard names.
const (
	BeforeRouteLeave  GuardName = "beforeRouteLeave"
	BeforeRouteUpdate GuardName = "beforeRouteUpdate"
	BeforeRouteEnter  GuardName = "beforeRouteEnter"
)

// Guard approves, vetoes or redirects a navigation. It may block; the
// navigation does not proceed until it returns.
type Guard func(ctx context.Context, to, from *Route) Outcome

// ComponentGuard is a guard declared on a view definition. For leave and
// update guards inst is the live mounted instance; for enter guards it is
// nil because the instance does not exist yet.
type ComponentGuard func(ctx context.Context, inst Instance, to, from *Route) Outcome

// AfterHook runs once a navigation has been committed.
type AfterHook func(to, from *Route)

// EnteredFunc receives the instance created for a view that was entered.
// Enter guards hand one to EnterWith.
type EnteredFunc func(inst Instance)

// RedirectFunc computes a redirect target from the route being redirected.
type RedirectFunc func(to *Route) Location

// Host is the rendering layer hosting the router. The router schedules
// post-commit work on the host's render loop.
type Host interface {
	// NextTick runs fn after the host has rendered the pending route.
	NextTick(fn func())
}

// Observer is notified when a transition starts and when it settles.
// NavigationStart may return a derived context; guards of that transition
// receive it.
type Observer interface {
	NavigationStart(ctx context.Context, to, from *Route) context.Context
	NavigationEnd(ctx context.Context, to, from *Route, err error)
}

type nopObserver struct{}

func (nopObserver) NavigationStart(ctx context.Context, _, _ *Route) context.Context { return ctx }
func (nopObserver) NavigationEnd(context.Context, *Route, *Route, error)             {}

// observers fans notifications out in registration order.
type observers []Observer

func (o observers) NavigationStart(ctx context.Context, to, from *Route) context.Context {
	for _, obs := range o {
		ctx = obs.NavigationStart(ctx, to, from)
	}
	return ctx
}

func (o observers) NavigationEnd(ctx context.Context, to, from *Route, err error) {
	for i := len(o) - 1; i >= 0; i-- {
		o[i].NavigationEnd(ctx, to, from, err)
	}
}

// RouteConfig declares a route when building the matcher.
type RouteConfig struct {
	// Path is the pattern, e.g. "/users/:id". Child paths without a leading
	// slash are relative to their parent.
	Path string

	// Name makes the route addressable by name.
	Name string

	// Component is shorthand for Components["default"].
	Component any

	// Components maps view slot names to view definitions or ViewFactory values.
	Components map[string]any

	// Redirect is a string path, a Location or a RedirectFunc.
	Redirect any

	// Alias lists alternative paths that render this route.
	Alias []string

	Children    []RouteConfig
	BeforeEnter Guard
	Meta        map[string]any

	// Props is handed to the rendering layer untouched.
	Props any
}
