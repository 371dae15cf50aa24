package vango

import (
	"sync/atomic"

	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

// Context passes a value down the component tree without threading it
// through every component. A Provider node makes a value visible to its
// descendants; Use reads the nearest one.
//
// Example:
//
//	var Tenant = vango.CreateContext("")
//
//	func App() vango.Component {
//	    return vango.Func(func() *vango.VNode {
//	        return Tenant.Provider("acme", Dashboard())
//	    })
//	}
//
//	func Dashboard() vango.Component {
//	    return vango.Func(func() *vango.VNode {
//	        return vdom.H1(vdom.Text(Tenant.Use()))
//	    })
//	}
type Context[T any] struct {
	fallback T
}

// CreateContext returns a context whose Use yields fallback when no
// Provider is above the caller.
func CreateContext[T any](fallback T) *Context[T] {
	return &Context[T]{fallback: fallback}
}

// provided is stored on the provider's owner under the *Context key. It
// is updated in place on re-render, so descendants that re-render with
// the provider read the new value.
type provided[T any] struct {
	v atomic.Pointer[T]
}

type providerComponent[T any] struct {
	ctx      *Context[T]
	value    T
	children []any
}

func (p *providerComponent[T]) Render() *vdom.VNode {
	if owner := getCurrentOwner(); owner != nil {
		slot, ok := owner.GetValueLocal(p.ctx).(*provided[T])
		if !ok {
			slot = &provided[T]{}
			owner.SetValue(p.ctx, slot)
		}
		value := p.value
		slot.v.Store(&value)
	}
	return vdom.Fragment(p.children...)
}

// Provider renders children with value visible to them. Siblings of the
// provider do not see it.
func (c *Context[T]) Provider(value T, children ...any) *vdom.VNode {
	return vdom.ComponentNode(&providerComponent[T]{ctx: c, value: value, children: children})
}

// Lookup returns the nearest provided value and whether a Provider was
// found. It is a hook.
func (c *Context[T]) Lookup() (T, bool) {
	TrackHook(HookContext)
	if owner := getCurrentOwner(); owner != nil {
		if slot, ok := owner.GetValue(c).(*provided[T]); ok {
			if v := slot.v.Load(); v != nil {
				return *v, true
			}
		}
	}
	return c.fallback, false
}

// Use returns the nearest provided value, or the fallback.
func (c *Context[T]) Use() T {
	v, _ := c.Lookup()
	return v
}

// Default returns the fallback value.
func (c *Context[T]) Default() T { return c.fallback }
