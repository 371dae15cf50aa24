package vdom

import "strings"

// VKind tells what a VNode represents.
type VKind uint8

const (
	KindElement VKind = iota
	KindText
	KindFragment
	KindComponent
	// KindRaw is HTML written without escaping.
	KindRaw
)

var kindNames = [...]string{"Element", "Text", "Fragment", "Component", "Raw"}

func (k VKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// VNode is one node of a rendered tree. Text holds the content of text
// and raw nodes, Comp the component of a component node.
type VNode struct {
	Kind     VKind
	Tag      string
	Props    Props
	Children []*VNode
	Key      string
	Text     string
	Comp     Component
}

// Props maps attribute names to values. Keys starting with "on" hold
// event handlers.
type Props map[string]any

// IsInteractive reports whether v is an element with at least one event
// handler. The renderer gives such elements a hydration ID.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key := range v.Props {
		if strings.HasPrefix(key, "on") {
			return true
		}
	}
	return false
}

// Component renders a subtree. Components are re-rendered by the session
// whenever a signal they read changes.
type Component interface {
	Render() *VNode
}

type renderFunc func() *VNode

func (f renderFunc) Render() *VNode {
	if f == nil {
		return nil
	}
	return f()
}

// Func adapts a render function to Component.
func Func(render func() *VNode) Component {
	return renderFunc(render)
}

// ComponentNode wraps c in a component node, or returns nil for a nil c.
func ComponentNode(c Component) *VNode {
	if c == nil {
		return nil
	}
	return &VNode{Kind: KindComponent, Comp: c}
}
