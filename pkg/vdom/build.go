package vdom

import "fmt"

// IsVoidElement reports whether tag never has children.
func IsVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img",
		"input", "link", "meta", "source", "track", "wbr":
		return true
	}
	return false
}

// El builds an element with any tag. See the package documentation for
// the accepted arguments. Children of void elements are discarded.
func El(tag string, args ...any) *VNode {
	node := &VNode{Kind: KindElement, Tag: tag, Props: Props{}}
	var children []any
	for _, arg := range args {
		switch v := arg.(type) {
		case Attr:
			node.apply(v)
		case []Attr:
			for _, a := range v {
				node.apply(a)
			}
		case EventHandler:
			if v.Event != "" {
				node.Props[v.Event] = v.Handler
			}
		default:
			children = append(children, arg)
		}
	}
	if !IsVoidElement(tag) {
		node.Children = flatten(node.Children, children)
	}
	return node
}

func (v *VNode) apply(a Attr) {
	switch a.Key {
	case "":
	case "key":
		v.Key, _ = a.Value.(string)
	default:
		v.Props[a.Key] = a.Value
	}
}

func Html(args ...any) *VNode { return El("html", args...) }
func Head(args ...any) *VNode { return El("head", args...) }
func Body(args ...any) *VNode { return El("body", args...) }
func TitleEl(args ...any) *VNode { return El("title", args...) }
func Meta(args ...any) *VNode { return El("meta", args...) }
func Script(args ...any) *VNode { return El("script", args...) }
func Main(args ...any) *VNode { return El("main", args...) }
func Nav(args ...any) *VNode { return El("nav", args...) }
func Div(args ...any) *VNode { return El("div", args...) }
func Span(args ...any) *VNode { return El("span", args...) }
func P(args ...any) *VNode { return El("p", args...) }
func H1(args ...any) *VNode { return El("h1", args...) }
func H2(args ...any) *VNode { return El("h2", args...) }
func A(args ...any) *VNode { return El("a", args...) }
func Button(args ...any) *VNode { return El("button", args...) }
func Ul(args ...any) *VNode { return El("ul", args...) }
func Li(args ...any) *VNode { return El("li", args...) }
func Br(args ...any) *VNode { return El("br", args...) }
func Input(args ...any) *VNode { return El("input", args...) }

func Text(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Raw inserts html as is. Never pass user input.
func Raw(html string) *VNode {
	return &VNode{Kind: KindRaw, Text: html}
}

// Fragment groups children without a wrapping element.
func Fragment(children ...any) *VNode {
	return &VNode{Kind: KindFragment, Children: flatten(make([]*VNode, 0, len(children)), children)}
}

// Child converts a single child value to a node. Unsupported values give
// nil.
func Child(child any) *VNode {
	switch v := child.(type) {
	case *VNode:
		return v
	case string:
		return Text(v)
	case Component:
		return ComponentNode(v)
	case []*VNode, []any:
		return Fragment(v)
	}
	return nil
}

// flatten appends the nodes of children to dst, expanding slices.
func flatten(dst []*VNode, children []any) []*VNode {
	for _, child := range children {
		switch v := child.(type) {
		case []*VNode:
			for _, n := range v {
				if n != nil {
					dst = append(dst, n)
				}
			}
		case []any:
			dst = flatten(dst, v)
		default:
			if n := Child(v); n != nil {
				dst = append(dst, n)
			}
		}
	}
	return dst
}

func If(cond bool, node *VNode) *VNode {
	if cond {
		return node
	}
	return nil
}

func IfElse(cond bool, then, otherwise *VNode) *VNode {
	if cond {
		return then
	}
	return otherwise
}

// Range renders one node per item, skipping nil results.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	out := make([]*VNode, 0, len(items))
	for i, item := range items {
		if n := fn(item, i); n != nil {
			out = append(out, n)
		}
	}
	return out
}
