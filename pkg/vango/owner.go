package vango

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Owner is the reactive scope of one mounted component. It owns the
// effects and cleanups created while it is current, the hook slots of the
// component, and the values provided to descendants. Owners mirror the
// component tree; the session holds the root.
type Owner struct {
	id       uint64
	parent   *Owner
	disposed atomic.Bool

	mu       sync.Mutex
	children []*Owner
	effects  []*Effect
	cleanups []func()
	queued   []*Effect
	values   map[any]any

	hooks hookState
}

// NewOwner returns an owner attached to parent, or a root owner when
// parent is nil.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{id: nextID(), parent: parent}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, o)
		parent.mu.Unlock()
	}
	return o
}

func (o *Owner) ID() uint64 { return o.id }

func (o *Owner) Parent() *Owner { return o.parent }

func (o *Owner) IsDisposed() bool { return o.disposed.Load() }

func (o *Owner) snapshotChildren() []*Owner {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.children)
}

func (o *Owner) registerEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	o.effects = append(o.effects, e)
	o.mu.Unlock()
}

// scheduleEffect queues e for the next RunPendingEffects.
func (o *Owner) scheduleEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	o.queued = append(o.queued, e)
	o.mu.Unlock()
}

// OnCleanup registers fn to run on Dispose. Cleanups run last registered
// first. On a disposed owner fn runs at once.
func (o *Owner) OnCleanup(fn func()) {
	if fn == nil {
		return
	}
	if o.disposed.Load() {
		fn()
		return
	}
	o.mu.Lock()
	o.cleanups = append(o.cleanups, fn)
	o.mu.Unlock()
}

// SetValue stores a value visible to o and its descendants.
func (o *Owner) SetValue(key, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.values == nil {
		o.values = map[any]any{}
	}
	o.values[key] = value
}

// GetValueLocal looks key up on o alone.
func (o *Owner) GetValueLocal(key any) any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.values[key]
}

// GetValue looks key up on o, then on each ancestor.
func (o *Owner) GetValue(key any) any {
	for cur := o; cur != nil; cur = cur.parent {
		if v := cur.GetValueLocal(key); v != nil {
			return v
		}
	}
	return nil
}

// RunPendingEffects runs the queued effects of o, then of its children.
// The session calls it after every committed render.
func (o *Owner) RunPendingEffects() {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	queued := o.queued
	o.queued = nil
	o.mu.Unlock()

	for _, e := range queued {
		if e.pending.Load() {
			e.run()
		}
	}
	for _, child := range o.snapshotChildren() {
		child.RunPendingEffects()
	}
}

// HasPendingEffects reports whether o or a descendant has queued effects.
func (o *Owner) HasPendingEffects() bool {
	if o.disposed.Load() {
		return false
	}
	o.mu.Lock()
	queued := len(o.queued) > 0
	o.mu.Unlock()
	return queued || slices.ContainsFunc(o.snapshotChildren(), (*Owner).HasPendingEffects)
}

// Dispose tears o down: children newest first, then effects, then
// cleanups newest first. It detaches o from its parent and is idempotent.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}
	if p := o.parent; p != nil {
		p.mu.Lock()
		p.children = slices.DeleteFunc(p.children, func(c *Owner) bool { return c == o })
		p.mu.Unlock()
	}

	o.mu.Lock()
	children, effects, cleanups := o.children, o.effects, o.cleanups
	o.children, o.effects, o.cleanups, o.queued = nil, nil, nil, nil
	o.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}
	for _, e := range effects {
		e.dispose()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
