// Package vdom is the node tree components render into.
//
// Element builders take a mixed argument list. Attr and EventHandler
// values become props, everything else is a child:
//
//	Nav(Class("account"),
//	    Span(Textf("Signed in as %s", email)),
//	    Button(OnClick(logout), Text("Log out")),
//	)
//
// A child may be a *VNode, a []*VNode, a []any, a Component or a string.
// nil children are dropped so optional content can be written inline.
package vdom
