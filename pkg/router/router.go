package router

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Router is the public navigation API. It owns the matcher, the global
// hooks and one history controller chosen at construction.
type Router struct {
	logger    *slog.Logger
	matcher   Matcher
	inspector Inspector
	observer  Observer
	mode      Mode
	fallback  bool
	history   HistoryController

	beforeHooks  hookList[Guard]
	resolveHooks hookList[Guard]
	afterHooks   hookList[AfterHook]
	subscribers  hookList[func(*Route)]

	mu    sync.Mutex
	hosts []Host
	app   Host
}

// Option configures a Router.
type Option func(*options)

type options struct {
	routes    []RouteConfig
	mode      Mode
	base      string
	fallback  *bool
	backend   Backend
	matcher   Matcher
	inspector Inspector
	logger    *slog.Logger
	observers []Observer
}

// WithRoutes sets the initial route table.
func WithRoutes(routes ...RouteConfig) Option {
	return func(o *options) {
		o.routes = append(o.routes, routes...)
	}
}

// WithMode selects the history mode. The default is ModeHash.
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithBase sets the base path all URLs are relative to.
func WithBase(base string) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithFallback controls whether ModeHistory falls back to ModeHash when the
// backend cannot push state. It is on by default.
func WithFallback(fallback bool) Option {
	return func(o *options) {
		o.fallback = &fallback
	}
}

// WithBackend sets the location store. Without one the router runs in
// ModeAbstract.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithMatcher replaces the default path-tree matcher. Routes given with
// WithRoutes are added to it.
func WithMatcher(m Matcher) Option {
	return func(o *options) {
		o.matcher = m
	}
}

// WithInspector sets how in-component guards are read off view
// definitions. The default is DefaultInspector.
func WithInspector(insp Inspector) Option {
	return func(o *options) {
		o.inspector = insp
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver adds a transition observer. Observers are notified in the
// order they were added and told about the end in reverse.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}

// New creates a router.
func New(opts ...Option) (*Router, error) {
	o := options{mode: ModeHash}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Router{
		logger:    o.logger,
		matcher:   o.matcher,
		inspector: o.inspector,
		observer:  nopObserver{},
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.inspector == nil {
		r.inspector = DefaultInspector{}
	}
	switch len(o.observers) {
	case 0:
	case 1:
		r.observer = o.observers[0]
	default:
		r.observer = observers(o.observers)
	}

	if r.matcher == nil {
		m, err := NewMatcher(o.routes)
		if err != nil {
			return nil, err
		}
		r.matcher = m
	} else {
		for _, cfg := range o.routes {
			if err := r.matcher.AddRoute("", cfg); err != nil {
				return nil, err
			}
		}
	}

	mode := o.mode
	if mode == "" {
		mode = ModeHash
	}
	r.fallback = mode == ModeHistory &&
		o.backend != nil && !supportsPushState(o.backend) &&
		(o.fallback == nil || *o.fallback)
	if r.fallback {
		mode = ModeHash
	}
	if o.backend == nil {
		mode = ModeAbstract
	}
	r.mode = mode

	switch mode {
	case ModeHash, ModeHistory:
		r.history = newURLHistory(r, mode, o.base, o.backend, r.fallback)
	case ModeAbstract:
		r.history = newMemoryHistory(r, o.base)
	default:
		return nil, &ModeError{Mode: mode}
	}

	r.history.State().Listen(r.notify)

	r.logger.Debug("router created", "mode", r.mode, "base", r.history.State().Base())
	return r, nil
}

// ModeError reports an unknown history mode.
type ModeError struct {
	Mode Mode
}

func (e *ModeError) Error() string { return "router: invalid mode " + string(e.Mode) }

// Mode returns the history mode in use.
func (r *Router) Mode() Mode { return r.mode }

// Fallback reports whether ModeHistory was downgraded to ModeHash.
func (r *Router) Fallback() bool { return r.fallback }

// History returns the history controller.
func (r *Router) History() HistoryController { return r.history }

// Matcher returns the matcher.
func (r *Router) Matcher() Matcher { return r.matcher }

// CurrentRoute returns the last committed route.
func (r *Router) CurrentRoute() *Route { return r.history.State().Current() }

// Match resolves raw against current, or against the current route when
// current is nil.
func (r *Router) Match(raw Location, current *Route, redirectedFrom *Location) (*Route, error) {
	if current == nil {
		current = r.CurrentRoute()
	}
	return r.matcher.Match(raw, current, redirectedFrom)
}

// Push navigates to loc and blocks until the navigation settles. It returns
// the committed route, or the navigation failure or error that stopped it.
func (r *Router) Push(ctx context.Context, loc Location) (*Route, error) {
	return settle(func(onComplete func(*Route), onAbort func(error)) error {
		return r.history.Push(ctx, loc, onComplete, onAbort)
	})
}

// Replace is Push without adding a history entry.
func (r *Router) Replace(ctx context.Context, loc Location) (*Route, error) {
	return settle(func(onComplete func(*Route), onAbort func(error)) error {
		return r.history.Replace(ctx, loc, onComplete, onAbort)
	})
}

// PushFunc navigates to loc and reports the result through the callbacks.
// It returns an error only when loc cannot be resolved.
func (r *Router) PushFunc(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error {
	return r.history.Push(ctx, loc, onComplete, onAbort)
}

// ReplaceFunc is PushFunc without adding a history entry.
func (r *Router) ReplaceFunc(ctx context.Context, loc Location, onComplete func(*Route), onAbort func(error)) error {
	return r.history.Replace(ctx, loc, onComplete, onAbort)
}

func settle(run func(onComplete func(*Route), onAbort func(error)) error) (*Route, error) {
	var (
		route   *Route
		failure error
	)
	if err := run(func(rt *Route) { route = rt }, func(err error) { failure = err }); err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}
	return route, nil
}

// Go moves n entries through history.
func (r *Router) Go(n int) { r.history.Go(n) }

// Back goes one entry back.
func (r *Router) Back() { r.Go(-1) }

// Forward goes one entry forward.
func (r *Router) Forward() { r.Go(1) }

// BeforeEach registers a guard run before every navigation, after leave
// guards. The returned function removes it.
func (r *Router) BeforeEach(g Guard) (remove func()) { return r.beforeHooks.add(g) }

// BeforeResolve registers a guard run after enter guards and async views,
// right before commit.
func (r *Router) BeforeResolve(g Guard) (remove func()) { return r.resolveHooks.add(g) }

// AfterEach registers a hook run after every committed navigation.
func (r *Router) AfterEach(h AfterHook) (remove func()) { return r.afterHooks.add(h) }

// OnReady runs cb once the initial navigation has committed. errorCb runs
// instead if it fails.
func (r *Router) OnReady(cb func(*Route), errorCb func(error)) {
	r.history.State().OnReady(cb, errorCb)
}

// OnError registers a callback for errors raised during navigation.
func (r *Router) OnError(cb func(error)) { r.history.State().OnError(cb) }

// Resolved is the result of Resolve.
type Resolved struct {
	Location Location
	Route    *Route
	Href     string
}

// Resolve resolves to without navigating. current defaults to the current
// route; appendTo resolves relative paths by appending.
func (r *Router) Resolve(to Location, current *Route, appendTo bool) (*Resolved, error) {
	if current == nil {
		current = r.CurrentRoute()
	}
	loc, err := NormalizeLocation(to, current, appendTo)
	if err != nil {
		return nil, err
	}
	route, err := r.matcher.Match(loc, current, nil)
	if err != nil {
		return nil, err
	}
	fullPath := route.RedirectedFrom
	if fullPath == "" {
		fullPath = route.FullPath
	}
	return &Resolved{
		Location: loc,
		Route:    route,
		Href:     createHref(r.history.State().Base(), fullPath, r.mode),
	}, nil
}

// GetMatchedComponents returns the view definitions of every slot of route,
// or of the current route when route is nil.
func (r *Router) GetMatchedComponents(route *Route) []any {
	if route == nil {
		route = r.CurrentRoute()
	}
	var out []any
	flatMapComponents(route.Matched, func(def any, _ *Record, _ string) {
		out = append(out, def)
	})
	return out
}

// AddRoute adds cfg, under the route named parent when parent is set. A
// router that has already navigated re-resolves its current location so
// the new route can take effect.
func (r *Router) AddRoute(parent string, cfg RouteConfig) error {
	if err := r.matcher.AddRoute(parent, cfg); err != nil {
		return err
	}
	return r.refresh()
}

// AddRoutes adds several top-level routes.
//
// Deprecated: use AddRoute.
func (r *Router) AddRoutes(routes []RouteConfig) error {
	r.logger.Warn("router.AddRoutes is deprecated and will be removed; use router.AddRoute instead")
	for _, cfg := range routes {
		if err := r.matcher.AddRoute("", cfg); err != nil {
			return err
		}
	}
	return r.refresh()
}

// GetRoutes returns every registered record.
func (r *Router) GetRoutes() []*Record { return r.matcher.GetRoutes() }

func (r *Router) refresh() error {
	h := r.history.State()
	if h.Current() == Start {
		return nil
	}
	return h.TransitionTo(h.ctx, To(r.history.CurrentLocation()), nil, nil)
}

// Mount attaches host. The first host starts the router: URL histories
// navigate to the backend's current location and then start listening for
// location changes. Host values must be comparable.
func (r *Router) Mount(ctx context.Context, host Host) error {
	r.mu.Lock()
	r.hosts = append(r.hosts, host)
	if r.app != nil {
		r.mu.Unlock()
		return nil
	}
	r.app = host
	r.mu.Unlock()

	if r.mode == ModeAbstract {
		return nil
	}

	setup := func() { r.history.SetupListeners() }
	return r.history.State().TransitionTo(ctx, To(r.history.CurrentLocation()),
		func(*Route) { setup() },
		func(error) { setup() },
	)
}

// Unmount detaches host. Once the last host is gone the records drop their
// instances and the history is torn down.
func (r *Router) Unmount(host Host) {
	r.mu.Lock()
	if i := slices.Index(r.hosts, host); i >= 0 {
		r.hosts = slices.Delete(r.hosts, i, i+1)
	}
	if r.app == host {
		r.app = nil
		if len(r.hosts) > 0 {
			r.app = r.hosts[0]
		}
	}
	last := r.app == nil
	r.mu.Unlock()

	if !last {
		return
	}
	for _, rec := range r.matcher.GetRoutes() {
		rec.Release()
	}
	r.history.State().Teardown()
	r.logger.Debug("router torn down")
}

func (r *Router) host() Host {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.app
}

// SubscribeCurrentRoute calls fn with every committed route. The returned
// function unsubscribes.
func (r *Router) SubscribeCurrentRoute(fn func(*Route)) (unsubscribe func()) {
	return r.subscribers.add(fn)
}

func (r *Router) notify(route *Route) {
	for _, fn := range r.subscribers.snapshot() {
		fn(route)
	}
}
