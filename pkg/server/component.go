package server

import (
	"reflect"
	"strconv"
	"sync/atomic"

	"github.com/saascannon/saascannon-vango/pkg/vango"
	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

type Component = vdom.Component

// ComponentInstance is a mounted component. It is the listener of every
// signal the component reads while rendering, and its Owner is the scope
// of the component's hooks.
type ComponentInstance struct {
	InstanceID string

	// Component is replaced by the freshly built value at the same
	// position each time the parent re-renders.
	Component Component

	// Owner is a child of the parent instance's owner, which is the chain
	// context lookups walk.
	Owner *vango.Owner

	Parent   *ComponentInstance
	Children []*ComponentInstance

	dirty   atomic.Bool
	session *Session

	// lastTree is the latest output. Its component nodes map to child
	// instances through slots.
	lastTree *vdom.VNode
	slots    map[*vdom.VNode]*ComponentInstance
	lastKey  string
}

var _ vango.Listener = (*ComponentInstance)(nil)

var instances atomic.Uint64

func newComponentInstance(component Component, parent *ComponentInstance, session *Session) *ComponentInstance {
	var scope *vango.Owner
	switch {
	case parent != nil:
		scope = parent.Owner
	case session != nil:
		scope = session.owner
	}
	return &ComponentInstance{
		InstanceID: "c" + strconv.FormatUint(instances.Add(1), 10),
		Component:  component,
		Owner:      vango.NewOwner(scope),
		Parent:     parent,
		session:    session,
	}
}

// Render runs the component's render function with its owner, itself as
// listener and the session runtime installed.
func (c *ComponentInstance) Render() *vdom.VNode {
	if c.Component == nil {
		return nil
	}
	var rt vango.Ctx
	if c.session != nil {
		rt = c.session.ctx
	}

	var tree *vdom.VNode
	vango.WithCtx(rt, func() {
		vango.WithOwner(c.Owner, func() {
			c.Owner.StartRender()
			defer c.Owner.EndRender()
			vango.WithListener(c, func() { tree = c.Component.Render() })
		})
	})

	c.lastTree = tree
	if c.session != nil {
		c.session.metrics.rendered()
	}
	return tree
}

// MarkDirty queues a re-render of c on its session.
func (c *ComponentInstance) MarkDirty() {
	if !c.dirty.CompareAndSwap(false, true) || c.session == nil {
		return
	}
	if DebugMode {
		c.session.logger.Debug("component marked dirty", "component", c.InstanceID)
	}
	c.session.scheduleRender()
}

func (c *ComponentInstance) ID() uint64 { return c.Owner.ID() }

func (c *ComponentInstance) IsDirty() bool { return c.dirty.Load() }

func (c *ComponentInstance) LastTree() *vdom.VNode { return c.lastTree }

// Dispose unmounts c and its children, newest child first. OnUnmount
// callbacks and effect cleanups run here.
func (c *ComponentInstance) Dispose() {
	for i := len(c.Children) - 1; i >= 0; i-- {
		c.Children[i].Dispose()
	}
	if c.Owner != nil {
		c.Owner.Dispose()
	}
	c.Children, c.slots, c.Component, c.lastTree = nil, nil, nil, nil
}

// renderTree renders c and then reconciles and renders its children.
func (c *ComponentInstance) renderTree() {
	c.dirty.Store(false)
	tree := c.Render()
	c.reconcile(tree)
}

// reconcile matches the component nodes of tree to existing child
// instances, by key when the node has one and by position among unkeyed
// nodes otherwise. A match must also have the same component type.
// Matched children keep their state and re-render with the new component
// value; unmatched old children are disposed.
func (c *ComponentInstance) reconcile(tree *vdom.VNode) {
	var nodes []*vdom.VNode
	collectComponentNodes(tree, &nodes)

	keyed := make(map[string]*ComponentInstance)
	var unkeyed []*ComponentInstance
	for _, child := range c.Children {
		if k := child.key(); k != "" {
			keyed[k] = child
		} else {
			unkeyed = append(unkeyed, child)
		}
	}

	used := make(map[*ComponentInstance]bool, len(c.Children))
	children := make([]*ComponentInstance, 0, len(nodes))
	slots := make(map[*vdom.VNode]*ComponentInstance, len(nodes))
	pos := 0

	for _, node := range nodes {
		var match *ComponentInstance
		if node.Key != "" {
			match = keyed[node.Key]
		} else if pos < len(unkeyed) {
			match = unkeyed[pos]
			pos++
		}
		if match != nil && (used[match] || !sameType(match.Component, node.Comp)) {
			match = nil
		}

		if match == nil {
			match = newComponentInstance(node.Comp, c, c.session)
		} else {
			match.Component = node.Comp
		}
		match.lastKey = node.Key
		used[match] = true
		children = append(children, match)
		slots[node] = match
	}

	for _, old := range c.Children {
		if !used[old] {
			old.Dispose()
		}
	}

	c.Children = children
	c.slots = slots

	for _, child := range children {
		child.renderTree()
	}
}

func (c *ComponentInstance) key() string {
	return c.lastKey
}

func sameType(a, b Component) bool {
	return a != nil && b != nil && reflect.TypeOf(a) == reflect.TypeOf(b)
}

// collectComponentNodes appends the component nodes of tree in document
// order without descending into them.
func collectComponentNodes(node *vdom.VNode, out *[]*vdom.VNode) {
	if node == nil {
		return
	}
	if node.Kind == vdom.KindComponent {
		if node.Comp != nil {
			*out = append(*out, node)
		}
		return
	}
	for _, child := range node.Children {
		collectComponentNodes(child, out)
	}
}

// compose returns c's output with every component node replaced by the
// composed output of its instance. lastTree is never modified.
func (c *ComponentInstance) compose() *vdom.VNode {
	return c.composeNode(c.lastTree)
}

func (c *ComponentInstance) composeNode(node *vdom.VNode) *vdom.VNode {
	if node == nil {
		return nil
	}
	if node.Kind == vdom.KindComponent {
		if child, ok := c.slots[node]; ok {
			return child.compose()
		}
		return nil
	}
	if len(node.Children) == 0 {
		return node
	}

	out := *node
	out.Children = make([]*vdom.VNode, 0, len(node.Children))
	for _, child := range node.Children {
		if composed := c.composeNode(child); composed != nil {
			out.Children = append(out.Children, composed)
		}
	}
	return &out
}

// topDirty appends the dirty instances under c that have no dirty
// ancestor. Re-rendering those re-renders everything dirty.
func (c *ComponentInstance) topDirty(out *[]*ComponentInstance) {
	if c.IsDirty() {
		*out = append(*out, c)
		return
	}
	for _, child := range c.Children {
		child.topDirty(out)
	}
}
