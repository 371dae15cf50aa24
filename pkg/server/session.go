package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/saascannon/saascannon-vango/pkg/render"
	"github.com/saascannon/saascannon-vango/pkg/vango"
	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

// Update is published to subscribers after every render pass that changed
// the page, and when a component navigates away.
type Update struct {
	// HTML is the rendered body of the session. Empty for redirects.
	HTML string `json:"html,omitempty"`

	// Redirect is the URL the client should leave the page for.
	Redirect string `json:"redirect,omitempty"`
}

// Session hosts one root component tree and its event loop.
//
// Rendering, effects and dispatched callbacks all run serialized on the
// session loop, either inside Mount/Flush or inside Run. Other goroutines
// hand work to the loop with Dispatch.
type Session struct {
	// Identity
	ID        string
	CreatedAt time.Time

	rootComponent Component
	root          *ComponentInstance

	// owner is the reactive root; every component owner descends from it.
	owner *vango.Owner
	ctx   *sessionCtx

	stdCtx context.Context
	cancel context.CancelFunc

	// loopMu serializes renders, effects and dispatched callbacks.
	loopMu  sync.Mutex
	mounted bool

	dispatchCh chan func()
	renderCh   chan struct{}
	done       chan struct{}
	closed     atomic.Bool

	stateMu  sync.RWMutex
	tree     *vdom.VNode
	html     string
	handlers render.Handlers
	redirect string

	subsMu  sync.Mutex
	subs    map[uint64]func(Update)
	nextSub uint64

	// General-purpose session data. Use Get/Set/Delete to access.
	data   map[string]any
	dataMu sync.RWMutex

	config   *SessionConfig
	logger   *slog.Logger
	metrics  *Metrics
	renderer *render.Renderer
}

// NewSession creates a session for root. Nothing renders until Mount.
func NewSession(root Component, config *SessionConfig) *Session {
	config = config.withDefaults()
	id := uuid.NewString()
	stdCtx, cancel := context.WithCancel(config.StdContext)

	s := &Session{
		ID:            id,
		CreatedAt:     time.Now(),
		rootComponent: root,
		owner:         vango.NewOwner(nil),
		stdCtx:        stdCtx,
		cancel:        cancel,
		dispatchCh:    make(chan func(), config.DispatchBuffer),
		renderCh:      make(chan struct{}, 1),
		done:          make(chan struct{}),
		subs:          make(map[uint64]func(Update)),
		data:          make(map[string]any),
		config:        config,
		logger:        config.Logger.With("session_id", id),
		metrics:       config.Metrics,
		renderer:      render.NewRenderer(config.Renderer),
	}
	s.ctx = &sessionCtx{session: s}
	return s
}

// Mount renders the root component tree, runs the effects scheduled by
// that render and settles any work they trigger. Panics raised while
// rendering or running effects propagate to the caller.
func (s *Session) Mount() error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if s.closed.Load() {
		return &SessionError{SessionID: s.ID, Op: "mount", Err: ErrSessionClosed}
	}
	if s.mounted {
		return nil
	}

	s.root = newComponentInstance(s.rootComponent, nil, s)
	s.root.InstanceID = "root"
	s.root.renderTree()
	s.mounted = true
	s.metrics.sessionOpened()

	s.settle()
	s.publish()

	s.logger.Info("mounted root component", "components", s.countInstances())
	return nil
}

// Flush runs queued callbacks, pending effects and re-renders of dirty
// components until the session is quiescent, then publishes the result.
func (s *Session) Flush() error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	return s.flushLocked()
}

func (s *Session) flushLocked() error {
	if s.closed.Load() {
		return &SessionError{SessionID: s.ID, Op: "flush", Err: ErrSessionClosed}
	}
	if !s.mounted {
		return &SessionError{SessionID: s.ID, Op: "flush", Err: ErrNotMounted}
	}
	if s.settle() {
		s.publish()
	}
	return nil
}

// Run processes dispatched callbacks and render requests until ctx is
// cancelled or the session is closed. Panics are recovered and logged.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case fn := <-s.dispatchCh:
			s.loopMu.Lock()
			s.execute(fn)
			s.safeFlush()
			s.loopMu.Unlock()
		case <-s.renderCh:
			s.loopMu.Lock()
			s.safeFlush()
			s.loopMu.Unlock()
		}
	}
}

func (s *Session) safeFlush() {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.panicked()
			s.logger.Error("render panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	if err := s.flushLocked(); err != nil {
		s.logger.Debug("flush skipped", "error", err)
	}
}

// settle loops over dispatched callbacks, effects and dirty components
// until none are left. It reports whether any component rendered.
func (s *Session) settle() bool {
	rendered := false
	for pass := 0; pass < s.config.MaxRenderPasses; pass++ {
		progressed := s.drainDispatch() > 0

		if s.owner.HasPendingEffects() {
			vango.WithCtx(s.ctx, s.owner.RunPendingEffects)
			progressed = true
		}

		if s.root != nil {
			var dirty []*ComponentInstance
			s.root.topDirty(&dirty)
			for _, c := range dirty {
				c.renderTree()
			}
			if len(dirty) > 0 {
				rendered = true
				progressed = true
				if DebugMode {
					s.logger.Debug("render pass", "pass", pass, "components", len(dirty))
				}
			}
		}

		if !progressed {
			return rendered
		}
	}

	s.logger.Warn("session did not settle", "max_passes", s.config.MaxRenderPasses)
	return rendered
}

func (s *Session) drainDispatch() int {
	n := 0
	for {
		select {
		case fn := <-s.dispatchCh:
			s.execute(fn)
			n++
		default:
			return n
		}
	}
}

// execute runs a dispatched function with the session context installed.
func (s *Session) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.panicked()
			s.logger.Error("dispatch panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	vango.WithCtx(s.ctx, fn)
}

// publish renders the composed tree and notifies subscribers.
func (s *Session) publish() {
	tree := s.root.compose()

	var buf bytes.Buffer
	handlers, err := s.renderer.RenderInteractive(&buf, tree)
	if err != nil {
		s.logger.Error("render html", "error", err)
		return
	}

	s.stateMu.Lock()
	s.tree = tree
	s.html = buf.String()
	s.handlers = handlers
	s.stateMu.Unlock()

	s.notify(Update{HTML: buf.String()})
}

func (s *Session) scheduleRender() {
	select {
	case s.renderCh <- struct{}{}:
	default:
		// Already scheduled
	}
}

// Dispatch queues a function to run on the session loop. It is safe to
// call from any goroutine and never blocks; callbacks beyond the queue
// size are dropped and logged.
//
// Example:
//
//	go func() {
//	    user, err := api.Me(ctx.StdContext())
//	    ctx.Dispatch(func() {
//	        if err == nil { userSignal.Set(user) }
//	    })
//	}()
func (s *Session) Dispatch(fn func()) {
	if fn == nil || s.closed.Load() {
		return
	}
	select {
	case s.dispatchCh <- fn:
	case <-s.done:
	default:
		s.metrics.dispatchDropped()
		s.logger.Warn("dispatch queue full, discarding callback")
	}
}

// HandleEvent routes a browser event to the handler registered for the
// element with the given hydration ID. The handler runs on the session
// loop.
func (s *Session) HandleEvent(hid, event string) error {
	s.stateMu.RLock()
	h, ok := s.handlers[hid+"_on"+event]
	s.stateMu.RUnlock()
	if !ok {
		s.metrics.event(event, "not_found")
		return &SessionError{SessionID: s.ID, Op: "event " + hid, Err: ErrHandlerNotFound}
	}

	s.metrics.event(event, "ok")
	s.Dispatch(func() {
		switch fn := h.(type) {
		case func():
			fn()
		case func(Ctx):
			fn(s.ctx)
		default:
			s.logger.Warn("unsupported handler type", "hid", hid, "event", event)
		}
	})
	return nil
}

// Navigate records url as the session's pending redirect and tells
// subscribers to leave the page.
func (s *Session) Navigate(url string) {
	s.stateMu.Lock()
	s.redirect = url
	s.stateMu.Unlock()
	s.logger.Debug("navigate", "url", url)
	s.notify(Update{Redirect: url})
}

// Redirect returns the pending redirect, or "" when there is none.
func (s *Session) Redirect() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.redirect
}

// Subscribe registers fn to receive updates. fn runs on the session loop
// and must not block. The returned function unsubscribes.
func (s *Session) Subscribe(fn func(Update)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Session) notify(u Update) {
	s.subsMu.Lock()
	subs := make([]func(Update), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

// HTML returns the body HTML of the last render pass.
func (s *Session) HTML() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.html
}

// Tree returns the composed VNode tree of the last render pass.
func (s *Session) Tree() *vdom.VNode {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.tree
}

// RenderPage writes the last render pass as a complete live HTML document.
func (s *Session) RenderPage(w io.Writer) error {
	s.stateMu.RLock()
	tree := s.tree
	s.stateMu.RUnlock()

	if tree == nil {
		return &SessionError{SessionID: s.ID, Op: "render page", Err: ErrNotMounted}
	}
	_, err := s.renderer.RenderLivePage(w, render.PageData{
		Body:      tree,
		Title:     s.config.Title,
		SessionID: s.ID,
	})
	return err
}

// Close disposes every component (running unmount cleanups), cancels the
// session context and stops Run. It must not be called from the session
// loop.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.cancel()
	close(s.done)

	s.loopMu.Lock()
	if s.root != nil {
		s.root.Dispose()
	}
	s.owner.Dispose()
	wasMounted := s.mounted
	s.loopMu.Unlock()

	if wasMounted {
		s.metrics.sessionClosed()
	}
	s.logger.Info("session closed", "age", time.Since(s.CreatedAt))
}

// IsClosed returns whether the session is closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel that's closed when the session is done.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// StdContext returns the session context, cancelled by Close.
func (s *Session) StdContext() context.Context {
	return s.stdCtx
}

// Ctx returns the runtime context components see through vango.UseCtx.
func (s *Session) Ctx() Ctx {
	return s.ctx
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Owner returns the reactive root owner of the session.
func (s *Session) Owner() *vango.Owner {
	return s.owner
}

// Root returns the root component instance, or nil before Mount.
func (s *Session) Root() *ComponentInstance {
	return s.root
}

func (s *Session) countInstances() int {
	var count func(*ComponentInstance) int
	count = func(c *ComponentInstance) int {
		n := 1
		for _, child := range c.Children {
			n += count(child)
		}
		return n
	}
	if s.root == nil {
		return 0
	}
	return count(s.root)
}

// Get returns a session data value, or nil.
func (s *Session) Get(key string) any {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data[key]
}

// Set stores a session data value.
func (s *Session) Set(key string, value any) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data[key] = value
}

// Delete removes a session data value.
func (s *Session) Delete(key string) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	delete(s.data, key)
}
