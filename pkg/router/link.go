package router

import (
	"strings"

	"github.com/vango-dev/vnav/pkg/routepath"
)

// createHref builds the href for fullPath: base + fullPath in history mode,
// base + "#" + fullPath in hash mode.
func createHref(base, fullPath string, mode Mode) string {
	path := fullPath
	if mode == ModeHash {
		path = "#" + fullPath
	}
	if base != "" {
		return routepath.CleanPath(base + "/" + path)
	}
	return path
}

// Href returns the href a link to loc should carry.
func (r *Router) Href(loc Location) (string, error) {
	res, err := r.Resolve(loc, nil, false)
	if err != nil {
		return "", err
	}
	return res.Href, nil
}

// IsExactActive reports whether a link to target is exactly active on
// current.
func IsExactActive(current, target *Route) bool {
	return IsSameRoute(current, target)
}

// IsActive reports whether a link to target is active on current: current's
// path is target's path or below it, current carries every query value of
// target, and the hashes agree when target has one.
func IsActive(current, target *Route) bool {
	if current == nil || target == nil {
		return false
	}
	currentPath := strings.TrimSuffix(current.Path, "/") + "/"
	targetPath := strings.TrimSuffix(target.Path, "/") + "/"
	if !strings.HasPrefix(currentPath, targetPath) {
		return false
	}
	if target.Hash != "" && current.Hash != target.Hash {
		return false
	}
	for k, v := range target.Query {
		if cv, ok := current.Query[k]; !ok || cv != v {
			return false
		}
	}
	return true
}
