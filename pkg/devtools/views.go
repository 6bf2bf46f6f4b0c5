package devtools

import (
	"fmt"

	"github.com/vango-dev/vnav/pkg/router"
)

// RouteView is the JSON form of a router.Route.
type RouteView struct {
	Name           string            `json:"name,omitempty"`
	Path           string            `json:"path"`
	FullPath       string            `json:"fullPath"`
	Hash           string            `json:"hash,omitempty"`
	Query          map[string]string `json:"query,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
	Matched        []string          `json:"matched"`
	RedirectedFrom string            `json:"redirectedFrom,omitempty"`
}

// NewRouteView returns the JSON form of r.
func NewRouteView(r *router.Route) RouteView {
	v := RouteView{
		Name:           r.Name,
		Path:           r.Path,
		FullPath:       r.FullPath,
		Hash:           r.Hash,
		Query:          r.Query,
		Params:         r.Params,
		Matched:        make([]string, len(r.Matched)),
		RedirectedFrom: r.RedirectedFrom,
	}
	for i, rec := range r.Matched {
		v.Matched[i] = rec.Path
	}
	return v
}

// RecordView is the JSON form of a router.Record.
type RecordView struct {
	Path     string         `json:"path"`
	Name     string         `json:"name,omitempty"`
	Parent   string         `json:"parent,omitempty"`
	Alias    []string       `json:"alias,omitempty"`
	MatchAs  string         `json:"matchAs,omitempty"`
	Redirect string         `json:"redirect,omitempty"`
	Slots    []string       `json:"slots,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	Guarded  bool           `json:"guarded,omitempty"`
}

// NewRecordView returns the JSON form of rec.
func NewRecordView(rec *router.Record) RecordView {
	v := RecordView{
		Path:    rec.Path,
		Name:    rec.Name,
		Alias:   rec.Alias,
		MatchAs: rec.MatchAs,
		Slots:   rec.Slots(),
		Meta:    rec.Meta,
		Guarded: rec.BeforeEnter != nil,
	}
	if rec.Parent != nil {
		v.Parent = rec.Parent.Path
	}
	switch target := rec.Redirect.(type) {
	case nil:
	case string:
		v.Redirect = target
	case router.Location:
		v.Redirect = target.String()
	default:
		v.Redirect = fmt.Sprintf("%T", target)
	}
	return v
}

// ResolveView is the response of /resolve.
type ResolveView struct {
	Href  string    `json:"href"`
	Route RouteView `json:"route"`
}

// ErrorView is the body of error responses. Failure names the navigation
// failure kind when the navigation was stopped rather than broken.
type ErrorView struct {
	Error   string `json:"error"`
	Failure string `json:"failure,omitempty"`
}
