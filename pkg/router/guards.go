package router

import (
	"context"
	"slices"
)

// Inspector reads in-component guards off view definitions. The router
// never inspects definitions itself; plug a custom Inspector in with
// WithInspector when views are not Guarded.
type Inspector interface {
	RouteGuards(def any, name GuardName) []ComponentGuard
}

// Guarded is implemented by view definitions that declare in-component
// guards. RouteGuard returns nil, a ComponentGuard (or a func with the same
// signature), or a []ComponentGuard.
type Guarded interface {
	RouteGuard(name GuardName) any
}

// DefaultInspector reads guards from definitions implementing Guarded.
type DefaultInspector struct{}

// RouteGuards implements Inspector.
func (DefaultInspector) RouteGuards(def any, name GuardName) []ComponentGuard {
	g, ok := def.(Guarded)
	if !ok {
		return nil
	}
	switch v := g.RouteGuard(name).(type) {
	case ComponentGuard:
		return []ComponentGuard{v}
	case func(context.Context, Instance, *Route, *Route) Outcome:
		return []ComponentGuard{v}
	case []ComponentGuard:
		return v
	}
	return nil
}

// Component is a plain view definition carrying in-component guards.
type Component struct {
	Name string

	BeforeRouteEnter  []ComponentGuard
	BeforeRouteUpdate []ComponentGuard
	BeforeRouteLeave  []ComponentGuard

	// Source is where the definition was loaded from, if it was loaded.
	Source string
}

// RouteGuard implements Guarded.
func (c *Component) RouteGuard(name GuardName) any {
	switch name {
	case BeforeRouteEnter:
		return c.BeforeRouteEnter
	case BeforeRouteUpdate:
		return c.BeforeRouteUpdate
	case BeforeRouteLeave:
		return c.BeforeRouteLeave
	}
	return nil
}

// binder turns a component guard declared in slot of rec into a pipeline
// guard. It returns nil when the guard cannot run yet.
type binder func(g ComponentGuard, inst Instance, rec *Record, slot string) Guard

// extractGuards collects name guards from every slot of records. With
// reverse set the per-slot groups run deepest record first; the guards
// inside a group keep their declared order.
func extractGuards(insp Inspector, records []*Record, name GuardName, bind binder, reverse bool) []Guard {
	var groups [][]Guard
	for _, rec := range records {
		for _, slot := range rec.Slots() {
			declared := insp.RouteGuards(rec.Component(slot), name)
			if len(declared) == 0 {
				continue
			}
			inst := rec.Instance(slot)
			group := make([]Guard, 0, len(declared))
			for _, g := range declared {
				if g == nil {
					continue
				}
				if bound := bind(g, inst, rec, slot); bound != nil {
					group = append(group, bound)
				}
			}
			groups = append(groups, group)
		}
	}
	if reverse {
		slices.Reverse(groups)
	}
	return concatGuards(groups...)
}

// bindGuard binds g to the live instance. Without an instance there is
// nothing to guard.
func bindGuard(g ComponentGuard, inst Instance, _ *Record, _ string) Guard {
	if inst == nil {
		return nil
	}
	return func(ctx context.Context, to, from *Route) Outcome {
		return g(ctx, inst, to, from)
	}
}

// bindEnterGuard runs g with no instance. A callback handed to EnterWith is
// queued on the record until the slot's instance is mounted.
func bindEnterGuard(g ComponentGuard, _ Instance, rec *Record, slot string) Guard {
	return func(ctx context.Context, to, from *Route) Outcome {
		out := g(ctx, nil, to, from)
		if out.Advances() {
			if fn := out.enteredFunc(); fn != nil {
				rec.queueEntered(slot, fn)
			}
		}
		return out
	}
}

func extractLeaveGuards(insp Inspector, deactivated []*Record) []Guard {
	return extractGuards(insp, deactivated, BeforeRouteLeave, bindGuard, true)
}

func extractUpdateHooks(insp Inspector, updated []*Record) []Guard {
	return extractGuards(insp, updated, BeforeRouteUpdate, bindGuard, false)
}

func extractEnterGuards(insp Inspector, activated []*Record) []Guard {
	return extractGuards(insp, activated, BeforeRouteEnter, bindEnterGuard, false)
}

// resolveQueue splits the record chains of the current and next route at
// their first difference.
func resolveQueue(current, next []*Record) (updated, activated, deactivated []*Record) {
	i := 0
	for n := min(len(current), len(next)); i < n; i++ {
		if current[i] != next[i] {
			break
		}
	}
	return next[:i], next[i:], current[i:]
}
