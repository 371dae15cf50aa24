package spa

import (
	"sync"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
)

// Emitter delivers client events to registered listeners. Listeners run
// on the emitting goroutine, in registration order. It is safe for
// concurrent use.
type Emitter struct {
	mu        sync.Mutex
	listeners map[saascannon.Event][]*listener
}

type listener struct {
	fn func()
}

// On registers fn for event. The returned function removes it and is
// safe to call more than once.
func (e *Emitter) On(event saascannon.Event, fn func()) (off func()) {
	l := &listener{fn: fn}

	e.mu.Lock()
	if e.listeners == nil {
		e.listeners = make(map[saascannon.Event][]*listener)
	}
	e.listeners[event] = append(e.listeners[event], l)
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		ls := e.listeners[event]
		for i, existing := range ls {
			if existing == l {
				e.listeners[event] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every listener of event.
func (e *Emitter) Emit(event saascannon.Event) {
	e.mu.Lock()
	ls := make([]*listener, len(e.listeners[event]))
	copy(ls, e.listeners[event])
	e.mu.Unlock()

	for _, l := range ls {
		l.fn()
	}
}

// Len returns the number of listeners of event.
func (e *Emitter) Len(event saascannon.Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}
