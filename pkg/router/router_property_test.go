//go:build property

package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestNavigationProperties validates pipeline ordering properties
func TestNavigationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Property: of navigations started while older ones are blocked, only
	// the last one commits
	properties.Property("latest navigation wins", prop.ForAll(
		func(count int) bool {
			routes := make([]RouteConfig, count)
			for i := range routes {
				routes[i] = RouteConfig{Path: fmt.Sprintf("/p%d", i)}
			}
			r, err := New(WithRoutes(routes...), WithLogger(discardLogger()))
			if err != nil {
				return false
			}

			release := make(chan struct{})
			entered := make(chan struct{}, count)
			r.BeforeEach(func(_ context.Context, to, _ *Route) Outcome {
				if to.Path != fmt.Sprintf("/p%d", count-1) {
					entered <- struct{}{}
					<-release
				}
				return Next()
			})

			ctx := context.Background()
			results := make([]error, count-1)
			var wg sync.WaitGroup
			for i := 0; i < count-1; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, results[i] = r.Push(ctx, To(fmt.Sprintf("/p%d", i)))
				}(i)
				<-entered
			}

			last, err := r.Push(ctx, To(fmt.Sprintf("/p%d", count-1)))
			close(release)
			wg.Wait()
			if err != nil || r.CurrentRoute() != last {
				return false
			}
			for _, err := range results {
				if !IsNavigationFailure(err, FailureCancelled) {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 6),
	))

	// Property: removing a hook keeps the others in registration order
	properties.Property("hook removal preserves order", prop.ForAll(
		func(n int, remove int) bool {
			remove %= n
			var hooks hookList[int]
			removers := make([]func(), n)
			for i := 0; i < n; i++ {
				removers[i] = hooks.add(i)
			}
			removers[remove]()
			removers[remove]()

			got := hooks.snapshot()
			if len(got) != n-1 {
				return false
			}
			want := 0
			for _, v := range got {
				if want == remove {
					want++
				}
				if v != want {
					return false
				}
				want++
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 100),
	))

	// Property: a trailing slash never changes route identity
	properties.Property("trailing slash is ignored", prop.ForAll(
		func(segments []string) bool {
			path := "/" + strings.Join(segments, "/")
			a := createRoute(nil, Location{Path: path + "/"}, nil)
			b := createRoute(nil, Location{Path: path}, nil)
			return IsSameRoute(a, b) && IsSameRoute(b, a)
		},
		gen.SliceOfN(4, gen.RegexMatch(`^[a-z]{1,8}$`)),
	))

	// Property: resolveQueue partitions both record chains at one index
	properties.Property("resolveQueue partitions", prop.ForAll(
		func(shared, curExtra, nextExtra int) bool {
			chain := func(prefix []*Record, extra int) []*Record {
				out := append([]*Record(nil), prefix...)
				for i := 0; i < extra; i++ {
					out = append(out, newRecord(nil))
				}
				return out
			}
			common := chain(nil, shared)
			current := chain(common, curExtra)
			next := chain(common, nextExtra)

			updated, activated, deactivated := resolveQueue(current, next)
			return len(updated) == shared &&
				len(activated) == nextExtra &&
				len(deactivated) == curExtra &&
				len(updated)+len(activated) == len(next) &&
				len(updated)+len(deactivated) == len(current)
		},
		gen.IntRange(0, 5),
		gen.IntRange(0, 5),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
