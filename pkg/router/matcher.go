package router

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/vango-dev/vnav/pkg/routepath"
)

// Matcher resolves locations to routes. The pipeline consumes it; any
// implementation honouring Match's contract may be plugged in with
// WithMatcher.
type Matcher interface {
	// Match resolves raw against current. A location that matches no
	// record yields a route with empty Matched and a nil error; an unknown
	// route name or a broken redirect yields a *MatchError.
	Match(raw Location, current *Route, redirectedFrom *Location) (*Route, error)
	AddRoute(parent string, cfg RouteConfig) error
	GetRoutes() []*Record
}

// Match errors.
var (
	ErrUnknownRoute    = errors.New("no route with that name")
	ErrInvalidRedirect = errors.New("invalid redirect")
	ErrRedirectLoop    = errors.New("too many redirects")
	ErrDuplicateName   = errors.New("duplicate route name")
)

// maxRedirects bounds record redirect chains.
const maxRedirects = 16

// RouteMatcher is the default Matcher, backed by a path tree.
type RouteMatcher struct {
	mu       sync.RWMutex
	root     *RouteNode
	pathList []string
	pathMap  map[string]*Record
	nameMap  map[string]*Record
}

// NewMatcher compiles routes.
func NewMatcher(routes []RouteConfig) (*RouteMatcher, error) {
	m := &RouteMatcher{
		root:    newRouteNode(""),
		pathMap: make(map[string]*Record),
		nameMap: make(map[string]*Record),
	}
	if err := m.AddRoutes(routes); err != nil {
		return nil, err
	}
	return m, nil
}

// AddRoutes registers several top-level routes.
func (m *RouteMatcher) AddRoutes(routes []RouteConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cfg := range routes {
		if err := m.addRouteRecord(cfg, nil, ""); err != nil {
			return err
		}
	}
	return nil
}

// AddRoute registers cfg, as a child of the route named parent when parent
// is not empty.
func (m *RouteMatcher) AddRoute(parent string, cfg RouteConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var parentRec *Record
	if parent != "" {
		parentRec = m.nameMap[parent]
		if parentRec == nil {
			return &MatchError{Location: parent, Err: ErrUnknownRoute}
		}
	}
	return m.addRouteRecord(cfg, parentRec, "")
}

// GetRoutes returns every registered record, aliases included, in
// registration order.
func (m *RouteMatcher) GetRoutes() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Record, 0, len(m.pathList))
	for _, p := range m.pathList {
		out = append(out, m.pathMap[p])
	}
	return out
}

// RouteNames returns the registered route names, sorted.
func (m *RouteMatcher) RouteNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.nameMap))
}

func (m *RouteMatcher) addRouteRecord(cfg RouteConfig, parent *Record, matchAs string) error {
	path := normalizeRecordPath(cfg.Path, parent)

	if cfg.Name != "" && matchAs == "" {
		if _, exists := m.nameMap[cfg.Name]; exists {
			return &MatchError{Location: cfg.Name, Err: ErrDuplicateName}
		}
	}

	switch cfg.Redirect.(type) {
	case nil, string, Location, RedirectFunc, func(*Route) Location:
	default:
		return &MatchError{Location: path, Err: fmt.Errorf("%w: unsupported type %T", ErrInvalidRedirect, cfg.Redirect)}
	}

	components := cfg.Components
	if components == nil && cfg.Component != nil {
		components = map[string]any{"default": cfg.Component}
	}

	record := newRecord(components)
	record.Path = path
	record.Alias = slices.Clone(cfg.Alias)
	record.Name = cfg.Name
	record.Parent = parent
	record.Redirect = cfg.Redirect
	record.BeforeEnter = cfg.BeforeEnter
	record.Meta = cfg.Meta
	record.Props = cfg.Props
	record.MatchAs = matchAs
	if record.Meta == nil {
		record.Meta = make(map[string]any)
	}

	// Children first so a child with an empty path claims the parent's
	// path and becomes its default view.
	for _, child := range cfg.Children {
		childMatchAs := ""
		if matchAs != "" {
			childMatchAs = routepath.CleanPath(matchAs + "/" + child.Path)
		}
		if err := m.addRouteRecord(child, record, childMatchAs); err != nil {
			return err
		}
	}

	if _, exists := m.pathMap[record.Path]; !exists {
		m.pathList = append(m.pathList, record.Path)
		m.pathMap[record.Path] = record
		node := m.root.insertRoute(record.Path)
		if node.record == nil {
			node.record = record
		}
	}

	for _, alias := range cfg.Alias {
		if alias == cfg.Path {
			continue
		}
		target := record.Path
		aliasCfg := RouteConfig{Path: alias, Children: cfg.Children}
		if err := m.addRouteRecord(aliasCfg, parent, target); err != nil {
			return err
		}
	}

	if record.Name != "" && matchAs == "" {
		m.nameMap[record.Name] = record
	}
	return nil
}

func normalizeRecordPath(path string, parent *Record) string {
	if len(path) > 1 {
		path = trimTrailingSlash(path)
	}
	if len(path) == 0 || path[0] != '/' {
		if parent == nil {
			path = "/" + path
		} else {
			path = parent.Path + "/" + path
		}
	}
	path = routepath.CleanPath(path)
	if len(path) > 1 {
		path = trimTrailingSlash(path)
	}
	return path
}

func trimTrailingSlash(p string) string {
	for len(p) > 1 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}

// Match implements Matcher.
func (m *RouteMatcher) Match(raw Location, current *Route, redirectedFrom *Location) (*Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.match(raw, current, redirectedFrom, 0)
}

func (m *RouteMatcher) match(raw Location, current *Route, redirectedFrom *Location, depth int) (*Route, error) {
	loc, err := NormalizeLocation(raw, current, false)
	if err != nil {
		return nil, err
	}

	if loc.Name != "" {
		record := m.nameMap[loc.Name]
		if record == nil {
			return nil, &MatchError{Location: loc.Name, Err: ErrUnknownRoute}
		}

		params := maps.Clone(loc.Params)
		if params == nil {
			params = make(map[string]string)
		}
		if current != nil {
			for _, key := range record.paramNames() {
				if _, ok := params[key]; ok {
					continue
				}
				if v, ok := current.Params[key]; ok {
					params[key] = v
				}
			}
		}

		path, err := fillParams(record.Path, params)
		if err != nil {
			return nil, &MatchError{Location: loc.Name, Err: err}
		}
		loc.Path = path
		loc.Params = params
		return m.createRoute(record, loc, redirectedFrom, depth)
	}

	if loc.Path != "" {
		canon, err := routepath.CanonicalizePath(loc.Path)
		if err != nil {
			return nil, &MatchError{Location: loc.Path, Err: err}
		}
		segments := splitPath(canon.Path)
		if record, ok := m.root.lookup(segments); ok {
			params, err := extractParams(record.Path, segments)
			if err != nil {
				return nil, &MatchError{Location: loc.Path, Err: err}
			}
			loc.Params = params
			return m.createRoute(record, loc, redirectedFrom, depth)
		}
	}

	return createRoute(nil, loc, nil), nil
}

func (m *RouteMatcher) createRoute(record *Record, loc Location, redirectedFrom *Location, depth int) (*Route, error) {
	if record != nil && record.Redirect != nil {
		from := redirectedFrom
		if from == nil {
			from = &loc
		}
		return m.redirect(record, *from, depth)
	}
	if record != nil && record.MatchAs != "" {
		return m.alias(record, loc, depth)
	}
	return createRoute(record, loc, redirectedFrom), nil
}

func (m *RouteMatcher) redirect(record *Record, loc Location, depth int) (*Route, error) {
	if depth >= maxRedirects {
		return nil, &MatchError{Location: loc.String(), Err: ErrRedirectLoop}
	}

	var target Location
	switch r := record.Redirect.(type) {
	case string:
		target = Location{Path: r}
	case Location:
		target = r.clone()
	case RedirectFunc:
		target = r(createRoute(record, loc, nil))
	case func(*Route) Location:
		target = r(createRoute(record, loc, nil))
	default:
		return nil, &MatchError{Location: loc.String(), Err: ErrInvalidRedirect}
	}

	parsed := routepath.ParsePath(target.Path)

	query := target.Query
	if query == nil {
		if parsed.Query != "" {
			query = routepath.ParseQuery(parsed.Query)
		} else {
			query = loc.Query
		}
	}
	hash := target.Hash
	if hash == "" {
		hash = parsed.Hash
	}
	if hash == "" {
		hash = loc.Hash
	}
	params := target.Params
	if params == nil {
		params = loc.Params
	}

	if target.Name != "" {
		if m.nameMap[target.Name] == nil {
			return nil, &MatchError{Location: target.Name, Err: fmt.Errorf("%w: %w", ErrInvalidRedirect, ErrUnknownRoute)}
		}
		next := Location{Name: target.Name, Query: query, Hash: hash, Params: params}
		return m.match(next, nil, &loc, depth+1)
	}

	if parsed.Path != "" {
		rawPath := parsed.Path
		if rawPath[0] != '/' {
			base := "/"
			if record.Parent != nil {
				base = record.Parent.Path
			}
			rawPath = routepath.CleanPath(base + "/" + rawPath)
		}
		resolved, err := fillParams(rawPath, params)
		if err != nil {
			return nil, &MatchError{Location: rawPath, Err: fmt.Errorf("%w: %w", ErrInvalidRedirect, err)}
		}
		next := Location{Path: resolved, Query: query, Hash: hash}
		return m.match(next, nil, &loc, depth+1)
	}

	return nil, &MatchError{Location: loc.String(), Err: ErrInvalidRedirect}
}

func (m *RouteMatcher) alias(record *Record, loc Location, depth int) (*Route, error) {
	aliasedPath, err := fillParams(record.MatchAs, loc.Params)
	if err != nil {
		return nil, &MatchError{Location: record.MatchAs, Err: err}
	}
	aliased, err := m.match(Location{Path: aliasedPath}, nil, nil, depth+1)
	if err != nil {
		return nil, err
	}
	if target := aliased.leaf(); target != nil {
		loc.Params = aliased.Params
		return m.createRoute(target, loc, nil, depth+1)
	}
	return createRoute(nil, loc, nil), nil
}
