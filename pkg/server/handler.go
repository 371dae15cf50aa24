package server

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppFunc builds the root component for a new page load.
type AppFunc func(r *http.Request) Component

// HandlerConfig configures Handler.
type HandlerConfig struct {
	// Session is the template for every session. StdContext is ignored;
	// sessions outlive the request that created them.
	Session *SessionConfig

	// Gatherer serves /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	// CheckOrigin validates WebSocket upgrades.
	// Default: same-origin only.
	CheckOrigin func(r *http.Request) bool

	// IdleTimeout closes sessions that have had no live connection for
	// this long. Default: 2 minutes.
	IdleTimeout time.Duration

	// LivePath is the WebSocket route. Default: "/ws".
	LivePath string

	// Middlewares wrap every route, outermost first.
	Middlewares []func(http.Handler) http.Handler
}

// Handler serves server-rendered pages that stay live over a WebSocket.
//
// Routes:
//
//	GET /         render a fresh session (302 if it navigated away)
//	GET /ws       live updates for ?session=<id>
//	GET /metrics  Prometheus metrics, when a Gatherer is configured
type Handler struct {
	router   chi.Router
	app      AppFunc
	sessions *Manager
	config   HandlerConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a Handler for app.
func NewHandler(app AppFunc, config HandlerConfig) *Handler {
	config.Session = config.Session.withDefaults()
	if config.CheckOrigin == nil {
		config.CheckOrigin = SameOriginCheck
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 2 * time.Minute
	}
	if config.LivePath == "" {
		config.LivePath = "/ws"
	}

	h := &Handler{
		router:   chi.NewRouter(),
		app:      app,
		sessions: NewManager(),
		config:   config,
		upgrader: websocket.Upgrader{CheckOrigin: config.CheckOrigin},
		logger:   config.Session.Logger,
	}

	h.router.Use(config.Middlewares...)
	h.router.Get("/", h.servePage)
	h.router.Get(config.LivePath, h.serveLive)
	if config.Gatherer != nil {
		h.router.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	}
	return h
}

// Router exposes the underlying router so applications can add routes
// such as an OAuth callback.
func (h *Handler) Router() chi.Router {
	return h.router
}

// Sessions returns the session manager.
func (h *Handler) Sessions() *Manager {
	return h.sessions
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Run sweeps idle sessions until ctx is cancelled, then closes all of them.
func (h *Handler) Run(ctx context.Context) {
	ticker := time.NewTicker(h.config.IdleTimeout / 2)
	defer ticker.Stop()
	defer h.sessions.CloseAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.sessions.Sweep(h.config.IdleTimeout); n > 0 {
				h.logger.Debug("swept idle sessions", "count", n)
			}
		}
	}
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	cfg := h.config.Session.Clone()
	cfg.StdContext = context.Background()
	sess := NewSession(h.app(r), cfg)

	if err := h.mount(sess); err != nil {
		sess.Close()
		h.logger.Error("mount failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if url := sess.Redirect(); url != "" {
		sess.Close()
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	h.sessions.Add(sess)
	go sess.Run(sess.StdContext())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := sess.RenderPage(w); err != nil {
		h.logger.Error("render page", "session_id", sess.ID, "error", err)
	}
}

// mount mounts sess, turning a render panic into an error.
func (h *Handler) mount(sess *Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			sess.metrics.panicked()
			h.logger.Error("mount panic", "panic", r, "stack", string(debug.Stack()))
			err = &SessionError{SessionID: sess.ID, Op: "mount", Err: ErrSessionClosed}
		}
	}()
	return sess.Mount()
}

// SameOriginCheck accepts WebSocket upgrades whose Origin matches Host,
// and requests without an Origin header.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
