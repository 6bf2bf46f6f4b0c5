package router

import (
	"context"
	"fmt"
	"maps"
)

// NavigateOptions configures navigation behavior.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Query adds query parameters to the target.
	Query map[string]any

	// Hash sets the target fragment.
	Hash string

	// Append resolves a relative path by appending it to the current path.
	Append bool
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithQuery adds query parameters to the navigation target.
func WithQuery(query map[string]any) NavigateOption {
	return func(o *NavigateOptions) {
		if o.Query == nil {
			o.Query = make(map[string]any, len(query))
		}
		maps.Copy(o.Query, query)
	}
}

// WithHash sets the fragment of the navigation target.
func WithHash(hash string) NavigateOption {
	return func(o *NavigateOptions) {
		o.Hash = hash
	}
}

// WithAppend resolves a relative path against the full current path.
func WithAppend() NavigateOption {
	return func(o *NavigateOptions) {
		o.Append = true
	}
}

// NavigationRequest represents a navigation built from a path and options.
type NavigationRequest struct {
	Path    string
	Options NavigateOptions
}

// Location converts the request into a Location.
func (nr *NavigationRequest) Location() Location {
	loc := Location{
		Path:    nr.Path,
		Hash:    nr.Options.Hash,
		Append:  nr.Options.Append,
		Replace: nr.Options.Replace,
	}
	if len(nr.Options.Query) > 0 {
		loc.Query = make(map[string]string, len(nr.Options.Query))
		for k, v := range nr.Options.Query {
			loc.Query[k] = fmt.Sprintf("%v", v)
		}
	}
	return loc
}

// Navigator is the subset of Router used by code that only moves around.
type Navigator interface {
	// Navigate goes to path and blocks until the navigation settles.
	Navigate(ctx context.Context, path string, opts ...NavigateOption) (*Route, error)

	// Back navigates back in history.
	Back()

	// Forward navigates forward in history.
	Forward()
}

var _ Navigator = (*Router)(nil)

// Navigate goes to path, pushing or replacing according to opts.
func (r *Router) Navigate(ctx context.Context, path string, opts ...NavigateOption) (*Route, error) {
	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}

	req := &NavigationRequest{Path: path, Options: options}
	loc := req.Location()
	if options.Replace {
		return r.Replace(ctx, loc)
	}
	return r.Push(ctx, loc)
}
