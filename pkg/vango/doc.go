// Package vango provides the reactive core that hosts components.
//
// Dependencies are tracked automatically at runtime: reading a signal
// during component render subscribes the component to that signal's
// changes, and writing it schedules a re-render.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//
// Ref[T] holds a mutable value that survives re-renders without
// triggering them:
//
//	client := NewRef[*Client](nil)
//
// Effects run after render and re-run when the signals they read change:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// Context[T] passes values down the component tree:
//
//	var ThemeContext = CreateContext("light")
//	ThemeContext.Provider("dark", children...)
//	theme := ThemeContext.Use()
//
// # Hooks
//
// NewSignal, NewRef, CreateEffect and Context.Use are hook-like: when
// called during a component render they MUST be called unconditionally
// and in the same order on every render. Their identity is stored in the
// owner's hook slots, so the same instance is returned on re-render.
//
// # Thread Safety
//
// All reactive primitives are safe for concurrent use. The tracking
// context is per-goroutine, so work started on another goroutine must
// hand results back with Ctx.Dispatch rather than writing signals from
// that goroutine in the middle of a render.
package vango
