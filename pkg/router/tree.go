package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vango-dev/vnav/pkg/routepath"
)

// RouteNode is a node in the path tree.
type RouteNode struct {
	// segment is the path segment this node matches
	segment string

	// isParam indicates this is a parameter segment (:id)
	isParam bool

	// isCatchAll indicates this is a catch-all segment (*slug)
	isCatchAll bool

	// paramName is the parameter name (without : or *)
	paramName string

	// paramType constrains param values (string, int, uuid)
	paramType string

	// record is the route record that ends at this node
	record *Record

	children      []*RouteNode
	paramChild    *RouteNode
	catchAllChild *RouteNode
}

func newRouteNode(segment string) *RouteNode {
	return &RouteNode{segment: segment}
}

// findChild finds a child node with an exact segment match.
func (n *RouteNode) findChild(segment string) *RouteNode {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

// addChild adds or retrieves a child node for the given segment.
func (n *RouteNode) addChild(segment string) *RouteNode {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := newRouteNode(segment)
	n.children = append(n.children, child)
	return child
}

// addParamChild sets the parameter child node. A second pattern with a
// different name at the same position shares the first node.
func (n *RouteNode) addParamChild(name, paramType string) *RouteNode {
	if n.paramChild != nil {
		return n.paramChild
	}
	n.paramChild = &RouteNode{isParam: true, paramName: name, paramType: paramType}
	return n.paramChild
}

// addCatchAllChild sets the catch-all child node.
func (n *RouteNode) addCatchAllChild(name string) *RouteNode {
	if n.catchAllChild != nil {
		return n.catchAllChild
	}
	n.catchAllChild = &RouteNode{isCatchAll: true, paramName: name}
	return n.catchAllChild
}

// insertRoute adds a path pattern to the tree and returns its end node.
func (n *RouteNode) insertRoute(path string) *RouteNode {
	current := n
	for _, seg := range splitPath(path) {
		switch {
		case strings.HasPrefix(seg, "*"):
			// catch-all consumes the rest of the path
			return current.addCatchAllChild(catchAllName(seg))
		case strings.HasPrefix(seg, ":"):
			name, paramType := parseParamSegment(seg)
			current = current.addParamChild(name, paramType)
		default:
			current = current.addChild(seg)
		}
	}
	return current
}

// lookup finds the record for the given segments. Static children win over
// params, params over catch-alls. A typed param only matches values of its
// type.
func (n *RouteNode) lookup(segments []string) (*Record, bool) {
	if len(segments) == 0 {
		if n.record != nil {
			return n.record, true
		}
		if c := n.catchAllChild; c != nil && c.record != nil {
			return c.record, true
		}
		return nil, false
	}

	segment := segments[0]
	remaining := segments[1:]

	if child := n.findChild(segment); child != nil {
		if rec, ok := child.lookup(remaining); ok {
			return rec, true
		}
	}

	if c := n.paramChild; c != nil {
		if value, err := routepath.DecodeSegment(segment, false); err == nil && ValidateParam(value, c.paramType) == nil {
			if rec, ok := c.lookup(remaining); ok {
				return rec, true
			}
		}
	}

	if c := n.catchAllChild; c != nil && c.record != nil {
		if _, err := routepath.DecodeSegment(strings.Join(segments, "/"), true); err == nil {
			return c.record, true
		}
	}

	return nil, false
}

// extractParams reads the params declared by pattern out of segments.
func extractParams(pattern string, segments []string) (map[string]string, error) {
	params := make(map[string]string)
	for i, seg := range splitPath(pattern) {
		switch {
		case strings.HasPrefix(seg, "*"):
			var rest string
			if i < len(segments) {
				rest = strings.Join(segments[i:], "/")
			}
			value, err := routepath.DecodeSegment(rest, true)
			if err != nil {
				return nil, err
			}
			params[catchAllName(seg)] = value
			return params, nil
		case strings.HasPrefix(seg, ":"):
			if i >= len(segments) {
				return nil, fmt.Errorf("%w %q", ErrMissingParam, seg)
			}
			value, err := routepath.DecodeSegment(segments[i], false)
			if err != nil {
				return nil, err
			}
			name, _ := parseParamSegment(seg)
			params[name] = value
		}
	}
	return params, nil
}

// splitPath splits a path into segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// parseParamSegment extracts name and type from a parameter segment.
// Input: ":id" or ":id:int" -> name="id", type="string" or "int"
func parseParamSegment(seg string) (name, paramType string) {
	seg = seg[1:]
	if idx := strings.Index(seg, ":"); idx != -1 {
		return seg[:idx], seg[idx+1:]
	}
	return seg, "string"
}

// catchAllName returns the param name of "*name"; a bare "*" is "pathMatch".
func catchAllName(seg string) string {
	if name := strings.TrimPrefix(seg, "*"); name != "" {
		return name
	}
	return "pathMatch"
}

// ErrMissingParam is returned when a pattern cannot be filled.
var ErrMissingParam = errors.New("missing route param")

// fillParams builds a concrete path from a pattern and params.
func fillParams(pattern string, params map[string]string) (string, error) {
	segments := splitPath(pattern)
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":"):
			name, _ := parseParamSegment(seg)
			value := params[name]
			if value == "" {
				return "", fmt.Errorf("%w %q for path %q", ErrMissingParam, name, pattern)
			}
			out = append(out, url.PathEscape(value))
		case strings.HasPrefix(seg, "*"):
			if value := params[catchAllName(seg)]; value != "" {
				out = append(out, strings.Trim(value, "/"))
			}
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}
