package router

import "context"

// Chain combines guards into one guard. They run in order; the first
// outcome that does not advance is returned.
func Chain(guards ...Guard) Guard {
	return func(ctx context.Context, to, from *Route) Outcome {
		result := Next()
		runQueue(guards, func(g Guard) bool {
			out := g(ctx, to, from)
			if !out.Advances() {
				result = out
				return false
			}
			return true
		}, func() {})
		return result
	}
}

// When runs g only for navigations whose target satisfies match.
func When(match func(to *Route) bool, g Guard) Guard {
	return func(ctx context.Context, to, from *Route) Outcome {
		if !match(to) {
			return Next()
		}
		return g(ctx, to, from)
	}
}

// HasMeta matches targets where any matched record carries key in its
// metadata.
func HasMeta(key string) func(*Route) bool {
	return func(to *Route) bool {
		for _, rec := range to.Matched {
			if _, ok := rec.Meta[key]; ok {
				return true
			}
		}
		return false
	}
}
