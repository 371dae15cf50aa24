package vango

import (
	"reflect"
	"slices"
	"sync"
)

// source is the subscriber list shared by every signal type.
type source struct {
	id        uint64
	mu        sync.Mutex
	listeners []Listener
}

// track subscribes the current listener, if any, to s.
func (s *source) track() {
	l := getCurrentListener()
	if l == nil {
		return
	}
	s.mu.Lock()
	if !slices.ContainsFunc(s.listeners, sameListener(l)) {
		s.listeners = append(s.listeners, l)
	}
	s.mu.Unlock()
	if e, ok := l.(*Effect); ok {
		e.addSource(s)
	}
}

func (s *source) unsubscribe(l Listener) {
	s.mu.Lock()
	s.listeners = slices.DeleteFunc(s.listeners, sameListener(l))
	s.mu.Unlock()
}

// notify marks every subscriber dirty, or queues them inside a Batch.
// The list is copied so listeners may resubscribe while being notified.
func (s *source) notify() {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	batching := getBatchDepth() > 0
	for _, l := range listeners {
		if batching {
			queuePendingUpdate(l)
		} else {
			l.MarkDirty()
		}
	}
}

func sameListener(l Listener) func(Listener) bool {
	id := l.ID()
	return func(other Listener) bool { return other.ID() == id }
}

// Signal holds a value that components and effects subscribe to by
// reading it with Get. Writing a different value notifies them.
type Signal[T any] struct {
	src source

	mu    sync.RWMutex
	value T
	equal func(a, b T) bool
}

// NewSignal returns a signal holding initial. Called during a render it
// is a hook: every render gets the same signal and initial only counts
// the first time.
func NewSignal[T any](initial T) *Signal[T] {
	return useSlot(HookSignal, func() *Signal[T] {
		return &Signal[T]{src: source{id: nextID()}, value: initial}
	})
}

// Get returns the value and subscribes the current listener.
func (s *Signal[T]) Get() T {
	v := s.Peek()
	s.src.track()
	return v
}

// Peek returns the value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value and notifies subscribers unless it equals the
// current value.
func (s *Signal[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update replaces the value with fn(current) under the signal's lock.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	changed := !s.same(s.value, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.src.notify()
	}
}

// WithEquals replaces the equality used to detect changes.
func (s *Signal[T]) WithEquals(fn func(a, b T) bool) *Signal[T] {
	s.equal = fn
	return s
}

func (s *Signal[T]) ID() uint64 { return s.src.id }

func (s *Signal[T]) same(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals compares scalars with == and everything else with
// reflect.DeepEqual.
func defaultEquals[T any](a, b T) bool {
	switch any(a).(type) {
	case string, bool, int, int64, uint64, float64:
		return any(a) == any(b)
	}
	return reflect.DeepEqual(a, b)
}

// Inc adds one to an int signal.
func Inc(s *Signal[int]) { s.Update(func(n int) int { return n + 1 }) }

// Toggle negates a bool signal.
func Toggle(s *Signal[bool]) { s.Update(func(b bool) bool { return !b }) }
