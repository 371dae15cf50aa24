package vango

import "sync"

// Ref is a mutable box that lives as long as the component that created
// it. Writing a Ref never triggers a render, which makes it the home for
// resources built once per mount, such as an auth client.
type Ref[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool
}

// NewRef returns the component's ref, creating it with initial on the
// first render. Call it unconditionally during render.
//
// Example:
//
//	client := vango.NewRef[*spa.Client](nil)
//	vango.OnMount(func() {
//	    if !client.IsSet() {
//	        client.Set(newClient())
//	    }
//	})
func NewRef[T any](initial T) *Ref[T] {
	return useSlot(HookRef, func() *Ref[T] { return &Ref[T]{value: initial} })
}

func (r *Ref[T]) Current() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	r.value, r.set = value, true
	r.mu.Unlock()
}

// IsSet reports whether Set was called since creation or the last Clear.
func (r *Ref[T]) IsSet() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set
}

// Clear restores the zero value and unsets the ref.
func (r *Ref[T]) Clear() {
	var zero T
	r.mu.Lock()
	r.value, r.set = zero, false
	r.mu.Unlock()
}
