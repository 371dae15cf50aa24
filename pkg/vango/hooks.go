package vango

import "fmt"

// HookType names a kind of hook for order checks in DebugMode.
type HookType uint8

const (
	HookSignal HookType = iota + 1
	HookEffect
	HookRef
	HookContext
)

func (h HookType) String() string {
	switch h {
	case HookSignal:
		return "Signal"
	case HookEffect:
		return "Effect"
	case HookRef:
		return "Ref"
	case HookContext:
		return "Context"
	}
	return "Unknown"
}

// hookState is touched only by the goroutine rendering the owner.
type hookState struct {
	slots []any
	next  int

	// order is recorded on the first render and checked afterwards.
	order    []HookType
	seen     int
	recorded bool
}

// StartRender begins a render of o's component.
func (o *Owner) StartRender() {
	beginRender()
	o.hooks.next = 0
	o.hooks.seen = 0
}

// EndRender finishes a render. In DebugMode it panics when the render
// called fewer hooks than the first one.
func (o *Owner) EndRender() {
	endRender()
	h := &o.hooks
	if !DebugMode {
		return
	}
	if !h.recorded {
		h.recorded = true
		return
	}
	if h.seen < len(h.order) {
		panic(fmt.Sprintf("vango: hook order changed: expected %d hooks, got %d", len(h.order), h.seen))
	}
}

// TrackHook records or checks one hook call in DebugMode.
func (o *Owner) TrackHook(ht HookType) {
	if !DebugMode {
		return
	}
	h := &o.hooks
	defer func() { h.seen++ }()
	if !h.recorded {
		h.order = append(h.order, ht)
		return
	}
	switch {
	case h.seen >= len(h.order):
		panic(fmt.Sprintf("vango: hook order changed: extra %s hook at index %d", ht, h.seen))
	case h.order[h.seen] != ht:
		panic(fmt.Sprintf("vango: hook order changed at index %d: expected %s, got %s", h.seen, h.order[h.seen], ht))
	}
}

// UseHookSlot returns the value of the next slot, or nil when this render
// is the first to reach it. Store the new value with SetHookSlot.
func (o *Owner) UseHookSlot() any {
	h := &o.hooks
	i := h.next
	h.next++
	if i < len(h.slots) {
		return h.slots[i]
	}
	return nil
}

func (o *Owner) SetHookSlot(value any) {
	o.hooks.slots = append(o.hooks.slots, value)
}

// TrackHook records a hook on the rendering owner, if any.
func TrackHook(ht HookType) {
	if owner := getCurrentOwner(); owner != nil && IsRendering() {
		owner.TrackHook(ht)
	}
}

// useSlot backs every hook: during a render it returns the value kept in
// the owner's next slot, creating it on the first render. Outside a
// render it just calls create.
func useSlot[T any](ht HookType, create func() T) T {
	owner := getCurrentOwner()
	if owner == nil || !IsRendering() {
		return create()
	}
	owner.TrackHook(ht)
	slot := owner.UseHookSlot()
	if slot == nil {
		v := create()
		owner.SetHookSlot(v)
		return v
	}
	v, ok := slot.(T)
	if !ok {
		panic(fmt.Sprintf("vango: hook slot type changed, got %T", slot))
	}
	return v
}
