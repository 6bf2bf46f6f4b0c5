package routepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePath(t *testing.T) {
	p := ParsePath("/users/42?tab=posts&x=1#top")
	assert.Equal(t, "/users/42", p.Path)
	assert.Equal(t, "tab=posts&x=1", p.Query)
	assert.Equal(t, "#top", p.Hash)

	p = ParsePath("#only")
	assert.Equal(t, "", p.Path)
	assert.Equal(t, "#only", p.Hash)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		relative, base string
		appendTo       bool
		want           string
	}{
		{"/abs", "/a/b", false, "/abs"},
		{"c", "/a/b", false, "/a/c"},
		{"c", "/a/b", true, "/a/b/c"},
		{"c", "/a/b/", false, "/a/b/c"},
		{"../c", "/a/b", false, "/c"},
		{"./c", "/a/b", false, "/a/c"},
		{"../../../c", "/a/b", false, "/c"},
		{"?q=1", "/a/b", false, "/a/b?q=1"},
		{"#h", "/a/b", false, "/a/b#h"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ResolvePath(tc.relative, tc.base, tc.appendTo), "ResolvePath(%q, %q, %v)", tc.relative, tc.base, tc.appendTo)
	}
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "/app/#/users", CleanPath("/app//#/users"))
	assert.Equal(t, "/a/b", CleanPath("///a// /b"))
}

func TestQueryRoundTrip(t *testing.T) {
	q := ParseQuery("?b=2&a=1&a=9&empty=&flag")
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "empty": "", "flag": ""}, q)
	assert.Equal(t, "?a=1&b=2&empty=&flag=", StringifyQuery(q))
	assert.Equal(t, "", StringifyQuery(nil))
	assert.Equal(t, "?q=a+b%26c", StringifyQuery(map[string]string{"q": "a b&c"}))
}

func TestResolveQuery(t *testing.T) {
	got := ResolveQuery("a=1&b=2", map[string]string{"b": "3", "c": "4"})
	assert.Equal(t, map[string]string{"a": "1", "b": "3", "c": "4"}, got)
}
