package router

import (
	"testing"
)

func TestBindKinds(t *testing.T) {
	type Args struct {
		Name   string   `param:"name"`
		ID     int      `param:"id"`
		Big    int64    `param:"big"`
		Count  uint     `param:"count"`
		Score  float64  `param:"score"`
		Active bool     `query:"active"`
		Slug   []string `param:"slug"`
	}

	route := &Route{
		Params: map[string]string{
			"name":  "test",
			"id":    "42",
			"big":   "9223372036854775807",
			"count": "7",
			"score": "2.5",
			"slug":  "docs/guide/intro",
		},
		Query: map[string]string{"active": "true"},
	}

	var a Args
	if err := route.Bind(&a); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}

	if a.Name != "test" || a.ID != 42 || a.Big != 9223372036854775807 || a.Count != 7 {
		t.Errorf("scalar fields = %+v", a)
	}
	if a.Score != 2.5 || !a.Active {
		t.Errorf("Score = %v, Active = %v", a.Score, a.Active)
	}
	if len(a.Slug) != 3 || a.Slug[0] != "docs" || a.Slug[2] != "intro" {
		t.Errorf("Slug = %v, want [docs guide intro]", a.Slug)
	}
}

func TestBindEmptySlice(t *testing.T) {
	var a struct {
		Slug []string `param:"slug"`
	}
	route := &Route{Params: map[string]string{"slug": ""}}
	if err := route.Bind(&a); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if len(a.Slug) != 0 {
		t.Errorf("Slug = %v, want empty", a.Slug)
	}
}

func TestBindKeepsMissingKeys(t *testing.T) {
	a := struct {
		ID   int    `param:"id"`
		Name string `param:"name"`
	}{ID: 5, Name: "keep"}

	route := &Route{Params: map[string]string{"id": "9"}}
	if err := route.Bind(&a); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if a.ID != 9 || a.Name != "keep" {
		t.Errorf("got %+v, want ID=9 Name=keep", a)
	}
}

func TestBindErrors(t *testing.T) {
	type Args struct {
		ID int8 `param:"id"`
	}

	tests := []struct {
		name   string
		target any
		params map[string]string
	}{
		{"invalid int", &Args{}, map[string]string{"id": "abc"}},
		{"overflow", &Args{}, map[string]string{"id": "300"}},
		{"not pointer", Args{}, map[string]string{"id": "1"}},
		{"pointer to non-struct", new(int), map[string]string{"id": "1"}},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := &Route{Params: tt.params}
			if err := route.Bind(tt.target); err == nil {
				t.Error("Bind() should fail")
			}
		})
	}
}

func TestRouteBind(t *testing.T) {
	route := &Route{
		Params: map[string]string{"id": "42"},
		Query:  map[string]string{"tab": "posts", "page": "3"},
	}

	var args struct {
		ID   int    `param:"id"`
		Tab  string `query:"tab"`
		Page int    `query:"page"`
	}
	if err := route.Bind(&args); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if args.ID != 42 || args.Tab != "posts" || args.Page != 3 {
		t.Errorf("Bind() = %+v", args)
	}

	route.Query["page"] = "x"
	if err := route.Bind(&args); err == nil {
		t.Error("Bind() with invalid query should fail")
	}
}

func TestValidateParam(t *testing.T) {
	tests := []struct {
		value     string
		paramType string
		wantErr   bool
	}{
		{"123", "int", false},
		{"-5", "int64", false},
		{"abc", "int", true},
		{"5", "uint", false},
		{"-5", "uint", true},
		{"550e8400-e29b-41d4-a716-446655440000", "uuid", false},
		{"not-a-uuid", "uuid", true},
		{"anything", "string", false},
		{"anything", "", false},
		{"anything", "custom", false},
	}

	for _, tt := range tests {
		err := ValidateParam(tt.value, tt.paramType)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateParam(%q, %q) error = %v, wantErr %v", tt.value, tt.paramType, err, tt.wantErr)
		}
	}
}
