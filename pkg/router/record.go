package router

import (
	"maps"
	"slices"
	"sync"
)

// Record is a compiled route configuration node. Records form a tree through
// Parent; a route's Matched list is the path from the root to its leaf.
//
// The exported fields are fixed once the record is registered. The view
// slots, mounted instances and queued entered callbacks are live state and
// are only reachable through methods.
type Record struct {
	Path        string
	Alias       []string
	Name        string
	Parent      *Record
	Redirect    any
	BeforeEnter Guard
	Meta        map[string]any
	Props       any

	// MatchAs is set on alias records: the path of the record they render.
	MatchAs string

	mu         sync.Mutex
	components map[string]any
	instances  map[string]Instance
	enteredCbs map[string][]EnteredFunc
}

func newRecord(components map[string]any) *Record {
	comps := maps.Clone(components)
	if comps == nil {
		comps = make(map[string]any)
	}
	return &Record{
		components: comps,
		instances:  make(map[string]Instance),
		enteredCbs: make(map[string][]EnteredFunc),
	}
}

// Slots returns the record's view slot names in sorted order.
func (r *Record) Slots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.components))
}

// Component returns the view definition in slot. It is a ViewFactory until
// the async resolver has loaded it.
func (r *Record) Component(slot string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.components[slot]
}

// Components returns a copy of the slot → view definition map.
func (r *Record) Components() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.components)
}

func (r *Record) setComponent(slot string, def any) {
	r.mu.Lock()
	r.components[slot] = def
	r.mu.Unlock()
}

// Instance returns the instance mounted in slot, or nil.
func (r *Record) Instance(slot string) Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[slot]
}

// Mount records inst as the live instance of slot and runs the entered
// callbacks queued for it by enter guards.
func (r *Record) Mount(slot string, inst Instance) {
	r.mu.Lock()
	r.instances[slot] = inst
	cbs := r.enteredCbs[slot]
	delete(r.enteredCbs, slot)
	r.mu.Unlock()

	for _, cb := range cbs {
		cb(inst)
	}
}

// Unmount forgets the instance of slot.
func (r *Record) Unmount(slot string) {
	r.mu.Lock()
	delete(r.instances, slot)
	r.mu.Unlock()
}

// Release drops every mounted instance and every callback still waiting for
// one. It is called when the hosting application goes away.
func (r *Record) Release() {
	r.mu.Lock()
	clear(r.instances)
	clear(r.enteredCbs)
	r.mu.Unlock()
}

func (r *Record) queueEntered(slot string, cb EnteredFunc) {
	r.mu.Lock()
	r.enteredCbs[slot] = append(r.enteredCbs[slot], cb)
	r.mu.Unlock()
}

// flushEntered runs queued callbacks for every slot that already has an
// instance. Slots still waiting keep their callbacks until Mount.
func (r *Record) flushEntered() {
	type pending struct {
		inst Instance
		cbs  []EnteredFunc
	}

	r.mu.Lock()
	var ready []pending
	for slot, cbs := range r.enteredCbs {
		inst, ok := r.instances[slot]
		if !ok || inst == nil || len(cbs) == 0 {
			continue
		}
		ready = append(ready, pending{inst: inst, cbs: cbs})
		delete(r.enteredCbs, slot)
	}
	r.mu.Unlock()

	for _, p := range ready {
		for _, cb := range p.cbs {
			cb(p.inst)
		}
	}
}

// paramNames lists the params declared by the record's path pattern.
func (r *Record) paramNames() []string {
	var names []string
	for _, seg := range splitPath(r.Path) {
		switch {
		case len(seg) > 1 && seg[0] == ':':
			name, _ := parseParamSegment(seg)
			names = append(names, name)
		case len(seg) > 0 && seg[0] == '*':
			names = append(names, catchAllName(seg))
		}
	}
	return names
}

// handleRouteEntered flushes entered callbacks across a committed route.
func handleRouteEntered(route *Route) {
	for _, rec := range route.Matched {
		rec.flushEntered()
	}
}
