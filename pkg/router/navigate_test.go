package router

import (
	"testing"
)

func TestNavigateOptionFunctions(t *testing.T) {
	var opts NavigateOptions

	WithReplace()(&opts)
	if !opts.Replace {
		t.Error("WithReplace should set Replace to true")
	}

	WithQuery(map[string]any{"page": 1})(&opts)
	WithQuery(map[string]any{"sort": "name"})(&opts)
	if opts.Query["page"] != 1 || opts.Query["sort"] != "name" {
		t.Errorf("Query = %v, want page and sort merged", opts.Query)
	}

	WithHash("top")(&opts)
	if opts.Hash != "top" {
		t.Errorf("Hash = %q, want %q", opts.Hash, "top")
	}

	WithAppend()(&opts)
	if !opts.Append {
		t.Error("WithAppend should set Append to true")
	}
}

func TestNavigationRequestLocation(t *testing.T) {
	req := &NavigationRequest{
		Path: "/search",
		Options: NavigateOptions{
			Replace: true,
			Query:   map[string]any{"q": "go", "page": 2, "exact": true},
			Hash:    "results",
		},
	}

	loc := req.Location()
	if loc.Path != "/search" {
		t.Errorf("Path = %q, want /search", loc.Path)
	}
	if !loc.Replace {
		t.Error("Replace should carry over")
	}
	if loc.Hash != "results" {
		t.Errorf("Hash = %q, want results", loc.Hash)
	}
	want := map[string]string{"q": "go", "page": "2", "exact": "true"}
	for k, v := range want {
		if loc.Query[k] != v {
			t.Errorf("Query[%q] = %q, want %q", k, loc.Query[k], v)
		}
	}
}

func TestNavigationRequestNoQuery(t *testing.T) {
	req := &NavigationRequest{Path: "/"}
	if loc := req.Location(); loc.Query != nil {
		t.Errorf("Query = %v, want nil", loc.Query)
	}
}
