package vango

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// tracker is the reactive state of one goroutine: who owns new
// primitives, who is listening to reads, and whether a render or batch
// is in progress. Sessions render on their own loop goroutine, so two
// sessions never share a tracker.
type tracker struct {
	owner    *Owner
	listener Listener
	ctx      any

	batchDepth  int
	pending     []Listener
	renderDepth int
}

func (t *tracker) idle() bool {
	return t.owner == nil && t.listener == nil && t.ctx == nil &&
		t.batchDepth == 0 && t.renderDepth == 0
}

// trackers maps goroutine IDs to their tracker.
var trackers sync.Map

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the ID from the first line of the current stack,
// "goroutine 42 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	line := bytes.TrimPrefix(buf[:runtime.Stack(buf[:], false)], goroutinePrefix)
	if i := bytes.IndexByte(line, ' '); i >= 0 {
		line = line[:i]
	}
	id, _ := strconv.ParseUint(string(line), 10, 64)
	return id
}

// current returns the tracker of the calling goroutine.
func current() *tracker {
	gid := goroutineID()
	if t, ok := trackers.Load(gid); ok {
		return t.(*tracker)
	}
	t, _ := trackers.LoadOrStore(gid, &tracker{})
	return t.(*tracker)
}

// lookup is current without the store, for reads from goroutines that
// may never have touched the runtime.
func lookup() *tracker {
	if t, ok := trackers.Load(goroutineID()); ok {
		return t.(*tracker)
	}
	return &tracker{}
}

// release forgets the calling goroutine's tracker once it holds nothing.
func release() {
	gid := goroutineID()
	if t, ok := trackers.Load(gid); ok && t.(*tracker).idle() {
		trackers.Delete(gid)
	}
}

func getCurrentListener() Listener { return lookup().listener }

// setCurrentListener installs l and returns the previous listener.
func setCurrentListener(l Listener) Listener {
	t := current()
	old := t.listener
	t.listener = l
	return old
}

func getCurrentOwner() *Owner { return lookup().owner }

// setCurrentOwner installs o and returns the previous owner.
func setCurrentOwner(o *Owner) *Owner {
	t := current()
	old := t.owner
	t.owner = o
	return old
}

func getCurrentCtx() any { return lookup().ctx }

func setCurrentCtx(c any) any {
	t := current()
	old := t.ctx
	t.ctx = c
	return old
}

func getBatchDepth() int { return lookup().batchDepth }

func incrementBatchDepth() { current().batchDepth++ }

// decrementBatchDepth reports whether the outermost batch just ended.
func decrementBatchDepth() bool {
	t := current()
	t.batchDepth--
	return t.batchDepth == 0
}

func queuePendingUpdate(l Listener) {
	t := current()
	t.pending = append(t.pending, l)
}

func drainPendingUpdates() []Listener {
	t := current()
	pending := t.pending
	t.pending = nil
	return pending
}

func beginRender() { current().renderDepth++ }

func endRender() {
	if t := current(); t.renderDepth > 0 {
		t.renderDepth--
	}
}

// IsRendering reports whether a component render is in progress on the
// current goroutine.
func IsRendering() bool {
	return lookup().renderDepth > 0
}

// WithOwner runs fn with owner as the current owner, so primitives
// created by fn (typically on another goroutine) belong to it.
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithListener runs fn with l receiving the signal reads of fn.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// WithCtx runs fn with c as the runtime context returned by UseCtx. The
// server wraps every render, effect pass and dispatched callback in it.
func WithCtx(c any, fn func()) {
	old := setCurrentCtx(c)
	defer func() {
		setCurrentCtx(old)
		release()
	}()
	fn()
}
