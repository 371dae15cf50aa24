package vango

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Effect is a side effect that re-runs when a signal it read changes.
//
// Effects belonging to an owner are queued and run by
// Owner.RunPendingEffects after the render commits. Effects without an
// owner run synchronously. The Cleanup returned by the last run is called
// before the next run and on dispose.
type Effect struct {
	id    uint64
	owner *Owner

	pending  atomic.Bool
	disposed atomic.Bool

	mu      sync.Mutex
	fn      func() Cleanup
	cleanup Cleanup
	sources []*source
}

func (e *Effect) ID() uint64 { return e.id }

func (e *Effect) IsDisposed() bool { return e.disposed.Load() }

// MarkDirty schedules e once until its next run.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() || !e.pending.CompareAndSwap(false, true) {
		return
	}
	if e.owner != nil {
		e.owner.scheduleEffect(e)
		return
	}
	e.run()
}

func (e *Effect) addSource(s *source) {
	e.mu.Lock()
	if !slices.Contains(e.sources, s) {
		e.sources = append(e.sources, s)
	}
	e.mu.Unlock()
}

// release runs the pending cleanup and drops every subscription, so the
// next run records its dependencies afresh.
func (e *Effect) release() {
	e.mu.Lock()
	cleanup, sources := e.cleanup, e.sources
	e.cleanup, e.sources = nil, nil
	e.mu.Unlock()

	if cleanup != nil {
		cleanup()
	}
	for _, s := range sources {
		s.unsubscribe(e)
	}
}

func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	e.pending.Store(false)
	e.release()

	e.mu.Lock()
	fn := e.fn
	e.mu.Unlock()

	var cleanup Cleanup
	WithOwner(e.owner, func() {
		WithListener(e, func() { cleanup = fn() })
	})

	e.mu.Lock()
	e.cleanup = cleanup
	e.mu.Unlock()
}

func (e *Effect) dispose() {
	if !e.disposed.Swap(true) {
		e.release()
	}
}

// CreateEffect creates an effect owned by the current owner.
//
// During a render it is a hook. The first render creates the effect and
// queues its first run; later renders only swap in the new fn. Outside a
// render the effect runs at once.
//
// Example:
//
//	vango.CreateEffect(func() vango.Cleanup {
//	    if state.Get().IsAuthenticated {
//	        go loadProducts()
//	    }
//	    return nil
//	})
func CreateEffect(fn func() Cleanup) *Effect {
	owner := getCurrentOwner()
	created := false
	e := useSlot(HookEffect, func() *Effect {
		created = true
		return &Effect{id: nextID(), owner: owner, fn: fn}
	})
	if !created {
		e.mu.Lock()
		e.fn = fn
		e.mu.Unlock()
		return e
	}

	if owner == nil {
		e.run()
		return e
	}
	owner.registerEffect(e)
	if IsRendering() {
		e.pending.Store(true)
		owner.scheduleEffect(e)
	} else {
		e.run()
	}
	return e
}

// OnMount runs fn once, after the first render of the component. Reads
// inside fn are not tracked.
func OnMount(fn func()) {
	CreateEffect(func() Cleanup {
		Untracked(fn)
		return nil
	})
}

// OnUnmount runs fn when the current owner is disposed. Called during a
// render it registers once per mount and runs the fn of the latest
// render.
func OnUnmount(fn func()) {
	owner := getCurrentOwner()
	if owner == nil {
		return
	}
	var latest atomic.Pointer[func()]
	h := useSlot(HookEffect, func() *atomic.Pointer[func()] {
		owner.OnCleanup(func() {
			if f := latest.Load(); f != nil && *f != nil {
				(*f)()
			}
		})
		return &latest
	})
	h.Store(&fn)
}
