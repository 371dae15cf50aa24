package vango

import "github.com/saascannon/saascannon-vango/pkg/vdom"

// Component and VNode are re-exported so components can be written
// against this package alone.
type (
	Component = vdom.Component
	VNode     = vdom.VNode
)

// Func turns a render function into a Component. Hooks called inside
// render keep their state for as long as the component stays mounted.
//
// Example:
//
//	func AccountBadge() vango.Component {
//	    return vango.Func(func() *vango.VNode {
//	        auth := saascannon.Use()
//	        return vdom.Span(vdom.Text(auth.User.DisplayName()))
//	    })
//	}
func Func(render func() *vdom.VNode) Component {
	return vdom.Func(render)
}
