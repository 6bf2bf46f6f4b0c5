package router

import (
	"maps"

	"github.com/vango-dev/vnav/pkg/routepath"
)

// Location describes a navigation target. Path may carry a query string and
// a hash ("/users/42?tab=posts#top"); they are split off during
// normalization and merged with Query and Hash.
type Location struct {
	Name   string
	Path   string
	Hash   string
	Query  map[string]string
	Params map[string]string

	// Append resolves a relative Path against the current path instead of
	// replacing its last segment.
	Append bool

	// Replace asks for the current history entry to be replaced. It is
	// honoured for redirects returned by guards.
	Replace bool

	normalized bool
}

// To is a Location for a raw "path?query#hash" string.
func To(path string) Location { return Location{Path: path} }

// Named is a Location addressing the route called name.
func Named(name string, params map[string]string) Location {
	return Location{Name: name, Params: params}
}

func (l Location) clone() Location {
	l.Query = maps.Clone(l.Query)
	l.Params = maps.Clone(l.Params)
	return l
}

// String renders the location for logs and error messages.
func (l Location) String() string {
	if l.Name != "" {
		return "name:" + l.Name
	}
	return l.Path + routepath.StringifyQuery(l.Query) + l.Hash
}

// NormalizeLocation resolves raw against current.
//
// Named locations are returned as a copy. A location with params but no path
// reuses the current route (by name, or by filling the current leaf record's
// pattern). Anything else has its path resolved relative to the current path
// and its query and hash split out.
func NormalizeLocation(raw Location, current *Route, appendTo bool) (Location, error) {
	if raw.normalized {
		return raw, nil
	}
	if raw.Name != "" {
		return raw.clone(), nil
	}

	if raw.Path == "" && raw.Params != nil && current != nil {
		next := raw.clone()
		next.normalized = true

		params := maps.Clone(current.Params)
		if params == nil {
			params = make(map[string]string)
		}
		maps.Copy(params, raw.Params)

		if current.Name != "" {
			next.Name = current.Name
			next.Params = params
		} else if n := len(current.Matched); n > 0 {
			path, err := fillParams(current.Matched[n-1].Path, params)
			if err != nil {
				return Location{}, &MatchError{Location: current.Path, Err: err}
			}
			next.Path = path
		}
		return next, nil
	}

	parsed := routepath.ParsePath(raw.Path)

	basePath := "/"
	if current != nil && current.Path != "" {
		basePath = current.Path
	}

	path := basePath
	if parsed.Path != "" {
		path = routepath.ResolvePath(parsed.Path, basePath, appendTo || raw.Append)
	}

	hash := raw.Hash
	if hash == "" {
		hash = parsed.Hash
	}
	if hash != "" && hash[0] != '#' {
		hash = "#" + hash
	}

	return Location{
		Path:       path,
		Query:      routepath.ResolveQuery(parsed.Query, raw.Query),
		Hash:       hash,
		Replace:    raw.Replace,
		normalized: true,
	}, nil
}

// ParseLocation splits raw ("path?query#hash") into a Location.
func ParseLocation(raw string) Location {
	parsed := routepath.ParsePath(raw)
	return Location{
		Path:  parsed.Path,
		Query: routepath.ParseQuery(parsed.Query),
		Hash:  parsed.Hash,
	}
}
