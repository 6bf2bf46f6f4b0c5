package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ViewFactory loads a view definition on first use. It either calls resolve
// or reject, now or later from any goroutine, or returns a Thenable (or a
// ComponentHolder) that settles instead. Only the first settlement counts.
type ViewFactory func(ctx context.Context, resolve func(def any), reject func(err error)) any

// Thenable is a value that settles once, calling exactly one of its
// callbacks.
type Thenable interface {
	Then(onResolve func(any), onReject func(error))
}

// ComponentHolder is the legacy factory result: an object exposing the
// pending view instead of being it.
type ComponentHolder interface {
	Component() Thenable
}

// Module is a loaded unit whose default export is the view definition.
type Module interface {
	Default() any
}

// Lazy adapts a blocking loader into a ViewFactory. The loader runs on its
// own goroutine.
func Lazy(load func(ctx context.Context) (any, error)) ViewFactory {
	return func(ctx context.Context, resolve func(any), reject func(error)) any {
		go func() {
			def, err := load(ctx)
			if err != nil {
				reject(err)
				return
			}
			resolve(def)
		}()
		return nil
	}
}

// Future is a Thenable settled by Resolve or Reject.
type Future struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewFuture returns an unsettled Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve settles f with v. Later calls are ignored.
func (f *Future) Resolve(v any) {
	f.once.Do(func() {
		f.value = v
		close(f.done)
	})
}

// Reject settles f with err. Later calls are ignored.
func (f *Future) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Then implements Thenable. Callbacks run on a separate goroutine.
func (f *Future) Then(onResolve func(any), onReject func(error)) {
	go func() {
		<-f.done
		if f.err != nil {
			if onReject != nil {
				onReject(f.err)
			}
			return
		}
		if onResolve != nil {
			onResolve(f.value)
		}
	}()
}

// Wait blocks until f settles or ctx is done.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func asFactory(def any) (ViewFactory, bool) {
	switch f := def.(type) {
	case ViewFactory:
		return f, f != nil
	case func(context.Context, func(any), func(error)) any:
		return f, f != nil
	}
	return nil, false
}

// resolveAsyncComponents returns a guard that loads every lazy view of
// matched, stores the loaded definitions on their records and advances once
// all of them have loaded. The first failure aborts the navigation.
func resolveAsyncComponents(matched []*Record, logger *slog.Logger) Guard {
	return func(ctx context.Context, _, _ *Route) Outcome {
		type job struct {
			rec     *Record
			slot    string
			factory ViewFactory
		}

		var jobs []job
		for _, rec := range matched {
			for _, slot := range rec.Slots() {
				if f, ok := asFactory(rec.Component(slot)); ok {
					jobs = append(jobs, job{rec: rec, slot: slot, factory: f})
				}
			}
		}
		if len(jobs) == 0 {
			return Next()
		}

		var (
			mu        sync.Mutex
			pending   = len(jobs)
			failure   error
			settled   = make(chan struct{})
			closeOnce sync.Once
		)
		finish := func() { closeOnce.Do(func() { close(settled) }) }

		for _, j := range jobs {
			var once sync.Once

			resolve := func(def any) {
				once.Do(func() {
					if m, ok := def.(Module); ok {
						def = m.Default()
					}
					j.rec.setComponent(j.slot, def)

					mu.Lock()
					pending--
					last := pending == 0
					mu.Unlock()
					if last {
						finish()
					}
				})
			}
			reject := func(err error) {
				once.Do(func() {
					logger.Warn("failed to resolve async component", "slot", j.slot, "path", j.rec.Path, "error", err)

					mu.Lock()
					if failure == nil {
						failure = &AsyncComponentError{Slot: j.slot, Err: err}
					}
					mu.Unlock()
					finish()
				})
			}

			switch res := callFactory(ctx, j.factory, resolve, reject).(type) {
			case Thenable:
				res.Then(resolve, reject)
			case ComponentHolder:
				if t := res.Component(); t != nil {
					t.Then(resolve, reject)
				}
			}
		}

		select {
		case <-settled:
		case <-ctx.Done():
			return Fail(ctx.Err())
		}

		mu.Lock()
		defer mu.Unlock()
		if failure != nil {
			return Fail(failure)
		}
		return Next()
	}
}

// callFactory runs f, turning a panic into a rejection.
func callFactory(ctx context.Context, f ViewFactory, resolve func(any), reject func(error)) (res any) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			reject(err)
			res = nil
		}
	}()
	return f(ctx, resolve, reject)
}

// flatMapComponents calls fn for every slot of every record in matched.
func flatMapComponents(matched []*Record, fn func(def any, rec *Record, slot string)) {
	for _, rec := range matched {
		for _, slot := range rec.Slots() {
			fn(rec.Component(slot), rec, slot)
		}
	}
}
