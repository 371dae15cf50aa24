package saascannon

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/saascannon/saascannon-vango/pkg/vango"
	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

// DebugMode enables verbose provider logging.
var DebugMode = false

// ErrNoClientFactory is logged when Props.NewClient is nil.
var ErrNoClientFactory = errors.New("saascannon: Props.NewClient is nil")

// Props configures a Provider. C is the configuration type of the
// client package, passed to NewClient unmodified.
type Props[C any] struct {
	// Config is handed to NewClient as is.
	Config C

	// NewClient constructs the client. It runs once per mount.
	NewClient func(C) (Client, error)

	// Children render once the client has loaded its auth state.
	Children []any

	// Loading renders until then. It may be nil.
	Loading any

	// ClientInitialised, if set, is called once with the client when it
	// becomes ready, before the first render of Children.
	ClientInitialised func(Client)

	// Logger defaults to the session logger.
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *Metrics
}

// Provider owns one Client for as long as it is mounted and publishes a
// Value to its descendants once the client reports
// EventAuthStateLoaded. Until then only Loading is rendered.
//
// On unmount the provider removes its listeners and cancels the context
// passed to LoadAuthState.
//
// Example:
//
//	spa.NewProvider(saascannon.Props[spa.Options]{
//	    Config:   opts,
//	    Loading:  vdom.P(vdom.Text("Loading…")),
//	    Children: []any{Nav(), Main()},
//	})
func Provider[C any](props Props[C]) vango.Component {
	return vango.Func(func() *vdom.VNode {
		return renderProvider(props)
	})
}

// providerState is the per-mount state of a Provider. It lives in a ref,
// so it survives re-renders but not unmount.
type providerState[C any] struct {
	props    *vango.Ref[Props[C]]
	client   *vango.Ref[Client]
	loading  *vango.Signal[bool]
	revision *vango.Signal[int]

	// Client notifications may fire on any goroutine. They set a flag
	// and bump notices; deliver picks the flags up on the session loop.
	notices       *vango.Signal[int]
	loadedPending atomic.Bool
	changePending atomic.Bool

	// Everything below is touched only on the session loop.
	logger    *slog.Logger
	cancel    context.CancelFunc
	offs      []func()
	mountedAt time.Time
	ready     bool
	stopped   bool
}

func renderProvider[C any](props Props[C]) *vdom.VNode {
	latest := vango.NewRef(props)
	latest.Set(props)
	client := vango.NewRef[Client](nil)
	loading := vango.NewSignal(true)
	revision := vango.NewSignal(0)
	notices := vango.NewSignal(0)
	state := vango.NewRef[*providerState[C]](nil)

	if !state.IsSet() {
		state.Set(&providerState[C]{
			props:    latest,
			client:   client,
			loading:  loading,
			revision: revision,
			notices:  notices,
		})
	}
	s := state.Current()
	ctx := vango.UseCtx()

	vango.CreateEffect(func() vango.Cleanup {
		notices.Get()
		vango.Untracked(s.deliver)
		return nil
	})
	vango.OnMount(func() { s.start(ctx) })
	vango.OnUnmount(s.stop)

	revision.Get()
	notices.Get()
	isLoading := loading.Get()
	c := client.Current()
	if c == nil || isLoading {
		return vdom.Fragment(props.Loading)
	}
	return valueContext.Provider(newValue(c), props.Children...)
}

// start constructs the client, listens for EventAuthStateLoaded and then
// starts the load. It does nothing outside a session.
func (s *providerState[C]) start(ctx vango.Ctx) {
	if ctx == nil || s.stopped || s.client.Current() != nil {
		return
	}
	s.logger = s.loggerFor(ctx)
	s.mountedAt = time.Now()

	props := s.props.Current()
	if props.NewClient == nil {
		s.logger.Error("cannot construct client", "error", ErrNoClientFactory)
		props.Metrics.clientError()
		return
	}

	c, err := props.NewClient(props.Config)
	if err == nil && c == nil {
		err = ErrNoClientFactory
	}
	if err != nil {
		s.logger.Error("client construction failed", "error", err)
		props.Metrics.clientError()
		return
	}
	s.client.Set(c)
	props.Metrics.constructed()

	s.offs = append(s.offs, c.On(EventAuthStateLoaded, func() {
		s.post(&s.loadedPending)
	}))

	loadCtx, cancel := context.WithCancel(ctx.StdContext())
	s.cancel = cancel
	c.LoadAuthState(loadCtx)
}

// post records a notification. Writing notices marks the provider dirty,
// which wakes the session loop even when its dispatch queue is full.
func (s *providerState[C]) post(flag *atomic.Bool) {
	flag.Store(true)
	vango.Inc(s.notices)
}

// deliver runs on the session loop, from the effect watching notices.
func (s *providerState[C]) deliver() {
	if s.loadedPending.Swap(false) {
		s.loaded()
	}
	if s.changePending.Swap(false) {
		s.changed()
	}
}

// loaded runs on the session loop when the client reports its state.
func (s *providerState[C]) loaded() {
	if s.stopped {
		return
	}
	s.logger.Debug("auth state loaded", "authenticated", s.client.Current().User() != nil)

	if s.ready {
		vango.Inc(s.revision)
		return
	}
	s.ready = true

	props := s.props.Current()
	c := s.client.Current()
	if props.ClientInitialised != nil {
		props.ClientInitialised(c)
	}

	vango.Batch(func() {
		s.loading.Set(false)
		vango.Inc(s.revision)
	})
	props.Metrics.ready(s.mountedAt)

	s.offs = append(s.offs, c.On(EventAuthStateChanged, func() {
		s.post(&s.changePending)
	}))
}

func (s *providerState[C]) changed() {
	if s.stopped {
		return
	}
	if DebugMode {
		s.logger.Debug("auth state changed", "authenticated", s.client.Current().User() != nil)
	}
	vango.Inc(s.revision)
}

func (s *providerState[C]) stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	for _, off := range s.offs {
		off()
	}
	s.offs = nil
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *providerState[C]) loggerFor(ctx vango.Ctx) *slog.Logger {
	if l := s.props.Current().Logger; l != nil {
		return l
	}
	if l := ctx.Logger(); l != nil {
		return l
	}
	return slog.Default()
}
