// Package saascannon exposes an authentication client to a component
// tree.
//
// A Provider constructs one Client when it mounts, waits for the client
// to report EventAuthStateLoaded and then renders its children with a
// Value describing the client. Descendants read that value with Use:
//
//	app := spa.NewProvider(saascannon.Props[spa.Options]{
//	    Config:   opts,
//	    Loading:  vdom.P(vdom.Text("Loading…")),
//	    Children: []any{Nav()},
//	})
//
//	func Nav() vango.Component {
//	    return vango.Func(func() *vango.VNode {
//	        auth := saascannon.Use()
//	        ...
//	    })
//	}
//
// Use panics when no ready Provider encloses the caller. Lookup is the
// non-panicking form.
package saascannon
