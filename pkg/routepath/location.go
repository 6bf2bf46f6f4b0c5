package routepath

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// ParsedPath is a raw location string split into its parts.
type ParsedPath struct {
	Path  string
	Query string // without "?"
	Hash  string // with leading "#"
}

// ParsePath splits "path?query#hash". The hash keeps its leading '#'.
func ParsePath(raw string) ParsedPath {
	var p ParsedPath

	if i := strings.IndexByte(raw, '#'); i >= 0 {
		p.Hash = raw[i:]
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		p.Query = raw[i+1:]
		raw = raw[:i]
	}
	p.Path = raw
	return p
}

// ResolvePath resolves relative against base. With appendTo set the
// relative path is appended to base instead of replacing its last segment.
//
//	ResolvePath("c", "/a/b", false)  == "/a/c"
//	ResolvePath("c", "/a/b", true)   == "/a/b/c"
//	ResolvePath("../c", "/a/b", false) == "/c"
func ResolvePath(relative, base string, appendTo bool) string {
	if strings.HasPrefix(relative, "/") {
		return relative
	}
	if strings.HasPrefix(relative, "?") || strings.HasPrefix(relative, "#") {
		return base + relative
	}

	stack := strings.Split(base, "/")

	// drop the last segment unless appending or base ends in a slash
	if !appendTo || stack[len(stack)-1] == "" {
		stack = stack[:len(stack)-1]
	}

	for _, seg := range strings.Split(strings.TrimPrefix(relative, "/"), "/") {
		switch seg {
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case ".":
		default:
			stack = append(stack, seg)
		}
	}

	if len(stack) == 0 || stack[0] != "" {
		stack = append([]string{""}, stack...)
	}
	return strings.Join(stack, "/")
}

var repeatedSlash = regexp.MustCompile(`/(?:\s*/)+`)

// CleanPath collapses runs of slashes into one.
func CleanPath(path string) string {
	return repeatedSlash.ReplaceAllString(path, "/")
}

// ParseQuery parses a query string (with or without the leading "?") into a
// flat map. Repeated keys keep their first value.
func ParseQuery(raw string) map[string]string {
	raw = strings.TrimLeft(strings.TrimSpace(raw), "?#&")
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			val = v
		}
		if _, ok := out[key]; !ok {
			out[key] = val
		}
	}
	return out
}

// StringifyQuery renders query as "?k=v&..." with keys sorted, or "" when
// the map is empty.
func StringifyQuery(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(query[k]))
	}
	return "?" + b.String()
}

// ResolveQuery merges extra over the parsed raw query.
func ResolveQuery(raw string, extra map[string]string) map[string]string {
	out := ParseQuery(raw)
	for k, v := range extra {
		out[k] = v
	}
	return out
}
