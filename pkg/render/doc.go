// Package render turns resolved VNode trees into HTML.
//
// Text and attribute values are always escaped; KindRaw nodes are
// written verbatim and must only carry trusted content. Attributes are
// written in sorted order so output is deterministic, and event handlers
// are never serialized: they become data-on-<event> markers.
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// # Live pages
//
// RenderInteractive and RenderLivePage also stamp every element that has
// an event handler with a data-hid attribute and return the handler
// table, which a session uses to route browser events back to the
// component that rendered them:
//
//	handlers, err := renderer.RenderLivePage(w, render.PageData{
//	    Body:      tree,
//	    Title:     "Dashboard",
//	    SessionID: sess.ID(),
//	})
package render
