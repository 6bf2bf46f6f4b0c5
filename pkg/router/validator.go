package router

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Route Table Validation
// =============================================================================

// Validator checks a route table for mistakes the matcher would silently
// resolve one way or the other.
type Validator struct {
	routes []RouteConfig
	errors []ValidationError
}

// ValidationError represents a route validation error.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Routes identifies the declarations involved (name, or path)
	Routes []string

	// Path is the conflicting URL pattern
	Path string

	// Details contains additional error-specific information
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorDuplicateRoute indicates two views declared at the same URL pattern.
	// Example: /users/:id and /users/:uid
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorDuplicateName indicates two routes share a name.
	ErrorDuplicateName ValidationErrorType = "DUPLICATE_NAME"

	// ErrorParamConstraintConflict indicates params at the same position
	// with different type constraints.
	// Example: /users/:id:int and /users/:id/posts
	ErrorParamConstraintConflict ValidationErrorType = "PARAM_CONSTRAINT_CONFLICT"

	// ErrorCatchAllNotLast indicates a catch-all followed by more segments.
	ErrorCatchAllNotLast ValidationErrorType = "CATCH_ALL_NOT_LAST"

	// ErrorInvalidRedirect indicates a redirect of an unsupported type.
	ErrorInvalidRedirect ValidationErrorType = "INVALID_REDIRECT"
)

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// NewValidator creates a new route validator.
func NewValidator(routes []RouteConfig) *Validator {
	return &Validator{
		routes: routes,
	}
}

// flatRoute is a RouteConfig with its absolute path.
type flatRoute struct {
	cfg      RouteConfig
	path     string
	hasChild bool
}

func (f flatRoute) id() string {
	if f.cfg.Name != "" {
		return f.cfg.Name
	}
	return f.path
}

func flatten(routes []RouteConfig, parent string, out []flatRoute) []flatRoute {
	for _, cfg := range routes {
		path := cfg.Path
		if !strings.HasPrefix(path, "/") {
			path = strings.TrimSuffix(parent, "/") + "/" + path
		}
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}
		out = append(out, flatRoute{cfg: cfg, path: path, hasChild: len(cfg.Children) > 0})
		out = flatten(cfg.Children, path, out)
	}
	return out
}

// Validate checks all routes for conflicts and errors.
// Returns nil if all routes are valid, or a MultiValidationError with all errors.
func (v *Validator) Validate() error {
	v.errors = nil

	flat := flatten(v.routes, "/", nil)
	v.validateDuplicateRoutes(flat)
	v.validateDuplicateNames(flat)
	v.validateParamConstraints(flat)
	v.validateSegments(flat)

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

// patternKey replaces param names so /users/:id and /users/:uid collide.
func patternKey(path string) string {
	segments := splitPath(path)
	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":"):
			segments[i] = ":"
		case strings.HasPrefix(seg, "*"):
			segments[i] = "*"
		}
	}
	return "/" + strings.Join(segments, "/")
}

// validateDuplicateRoutes checks for leaf routes that resolve to the same
// URL pattern. A parent and its default child legitimately share a path.
func (v *Validator) validateDuplicateRoutes(flat []flatRoute) {
	byPattern := make(map[string][]flatRoute)
	for _, r := range flat {
		if r.hasChild {
			continue
		}
		key := patternKey(r.path)
		byPattern[key] = append(byPattern[key], r)
	}

	for _, key := range sortedKeys(byPattern) {
		routes := byPattern[key]
		if len(routes) <= 1 {
			continue
		}

		ids := make([]string, len(routes))
		for i, r := range routes {
			ids[i] = r.id()
		}

		v.errors = append(v.errors, ValidationError{
			Type:    ErrorDuplicateRoute,
			Message: fmt.Sprintf("Duplicate route detected at %s", key),
			Path:    key,
			Routes:  ids,
			Details: fmt.Sprintf("Routes: %s", strings.Join(ids, ", ")),
		})
	}
}

func (v *Validator) validateDuplicateNames(flat []flatRoute) {
	byName := make(map[string][]flatRoute)
	for _, r := range flat {
		if r.cfg.Name != "" {
			byName[r.cfg.Name] = append(byName[r.cfg.Name], r)
		}
	}
	for _, name := range sortedKeys(byName) {
		routes := byName[name]
		if len(routes) <= 1 {
			continue
		}
		paths := make([]string, len(routes))
		for i, r := range routes {
			paths[i] = r.path
		}
		v.errors = append(v.errors, ValidationError{
			Type:    ErrorDuplicateName,
			Message: fmt.Sprintf("Duplicate route name %q", name),
			Path:    paths[0],
			Routes:  paths,
		})
	}
}

// validateParamConstraints checks for conflicting type constraints on params
// sharing a position in the path tree.
func (v *Validator) validateParamConstraints(flat []flatRoute) {
	type entry struct {
		typ string
		id  string
	}
	byPosition := make(map[string][]entry)

	for _, r := range flat {
		segments := splitPath(r.path)
		for i, seg := range segments {
			if !strings.HasPrefix(seg, ":") {
				continue
			}
			_, typ := parseParamSegment(seg)
			key := patternKey("/" + strings.Join(segments[:i], "/"))
			byPosition[key] = append(byPosition[key], entry{typ: typ, id: r.id()})
		}
	}

	for _, key := range sortedKeys(byPosition) {
		entries := byPosition[key]
		firstType := entries[0].typ
		hasConflict := false
		for _, e := range entries[1:] {
			if e.typ != firstType {
				hasConflict = true
				break
			}
		}
		if !hasConflict {
			continue
		}

		ids := make([]string, len(entries))
		types := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.id
			types[i] = e.typ
		}

		v.errors = append(v.errors, ValidationError{
			Type:    ErrorParamConstraintConflict,
			Message: fmt.Sprintf("Conflicting parameter constraints under %s", key),
			Path:    key,
			Routes:  ids,
			Details: fmt.Sprintf("Types: %s", strings.Join(types, " vs ")),
		})
	}
}

func (v *Validator) validateSegments(flat []flatRoute) {
	for _, r := range flat {
		segments := splitPath(r.path)
		for i, seg := range segments {
			if strings.HasPrefix(seg, "*") && i != len(segments)-1 {
				v.errors = append(v.errors, ValidationError{
					Type:    ErrorCatchAllNotLast,
					Message: fmt.Sprintf("Catch-all %s must be the last segment of %s", seg, r.path),
					Path:    r.path,
					Routes:  []string{r.id()},
				})
				break
			}
		}

		switch r.cfg.Redirect.(type) {
		case nil, string, Location, RedirectFunc, func(*Route) Location:
		default:
			v.errors = append(v.errors, ValidationError{
				Type:    ErrorInvalidRedirect,
				Message: fmt.Sprintf("Unsupported redirect on %s", r.path),
				Path:    r.path,
				Routes:  []string{r.id()},
				Details: fmt.Sprintf("type %T", r.cfg.Redirect),
			})
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// Route Specificity Sorting
// =============================================================================

// SortBySpecificity sorts path patterns by specificity, the order the path
// tree prefers them in.
//
// Order (most specific first):
//  1. Static routes (/users/profile)
//  2. Routes with typed params (/users/:id:int)
//  3. Routes with plain params (/users/:id)
//  4. Catch-all routes (/users/*path)
func SortBySpecificity(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return calculateSpecificity(paths[i]) > calculateSpecificity(paths[j])
	})
}

// calculateSpecificity returns a numeric score for route specificity.
// Higher scores = more specific = matched first.
func calculateSpecificity(path string) int {
	segments := splitPath(path)
	if len(segments) > 0 && strings.HasPrefix(segments[len(segments)-1], "*") {
		return 0
	}

	score := len(segments) * 100
	for _, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			if _, typ := parseParamSegment(seg); typ != "string" {
				score += 20 // Typed param
			} else {
				score += 10 // Plain string param
			}
		} else {
			score += 50 // Static segment
		}
	}
	return score
}

// FormatValidationError formats a validation error for display.
//
//	ERROR: Duplicate route detected at /users/:
//	  user → /users/:
//	  member → /users/:
func FormatValidationError(err ValidationError) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ERROR: %s\n", err.Message))

	for _, id := range err.Routes {
		sb.WriteString(fmt.Sprintf("  %s → %s\n", id, err.Path))
	}

	if err.Details != "" {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", err.Details))
	}

	return sb.String()
}
