package router

import (
	"maps"
	"strings"

	"github.com/vango-dev/vnav/pkg/routepath"
)

// Route is a resolved navigation target. Routes are snapshots: the pipeline
// never mutates one after it has been created, and callers must not either.
type Route struct {
	Name     string
	Path     string
	Hash     string
	Query    map[string]string
	Params   map[string]string
	FullPath string

	// Matched is the record chain from the root to the deepest matched record.
	Matched []*Record

	// RedirectedFrom is the full path of the location that redirected here.
	RedirectedFrom string

	Meta map[string]any
}

// Start is the route that stands for "nowhere". It is the controller's
// current route until the first navigation commits.
var Start = createRoute(nil, Location{Path: "/"}, nil)

func createRoute(record *Record, loc Location, redirectedFrom *Location) *Route {
	route := &Route{
		Name:   loc.Name,
		Path:   loc.Path,
		Hash:   loc.Hash,
		Query:  maps.Clone(loc.Query),
		Params: maps.Clone(loc.Params),
	}
	if route.Name == "" && record != nil {
		route.Name = record.Name
	}
	if route.Path == "" {
		route.Path = "/"
	}
	if route.Query == nil {
		route.Query = make(map[string]string)
	}
	if route.Params == nil {
		route.Params = make(map[string]string)
	}
	if record != nil && record.Meta != nil {
		route.Meta = record.Meta
	} else {
		route.Meta = make(map[string]any)
	}
	route.FullPath = fullPath(route.Path, route.Query, route.Hash)
	route.Matched = formatMatch(record)
	if redirectedFrom != nil {
		route.RedirectedFrom = fullPath(redirectedFrom.Path, redirectedFrom.Query, redirectedFrom.Hash)
	}
	return route
}

func fullPath(path string, query map[string]string, hash string) string {
	if path == "" {
		path = "/"
	}
	return path + routepath.StringifyQuery(query) + hash
}

// formatMatch returns record and its ancestors, root first.
func formatMatch(record *Record) []*Record {
	var out []*Record
	for r := record; r != nil; r = r.Parent {
		out = append(out, r)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// leaf returns the deepest matched record, or nil.
func (r *Route) leaf() *Record {
	if len(r.Matched) == 0 {
		return nil
	}
	return r.Matched[len(r.Matched)-1]
}

// IsSameRoute reports whether a and b address the same location: equal path
// (ignoring a trailing slash), query and hash, or, for path-less routes,
// equal name, query, hash and params. Only Start is the same as Start.
func IsSameRoute(a, b *Route) bool {
	if b == Start {
		return a == b
	}
	if a == nil || b == nil {
		return false
	}
	if a.Path != "" && b.Path != "" {
		return strings.TrimSuffix(a.Path, "/") == strings.TrimSuffix(b.Path, "/") &&
			a.Hash == b.Hash &&
			maps.Equal(a.Query, b.Query)
	}
	if a.Name != "" && b.Name != "" {
		return a.Name == b.Name &&
			a.Hash == b.Hash &&
			maps.Equal(a.Query, b.Query) &&
			maps.Equal(a.Params, b.Params)
	}
	return false
}
