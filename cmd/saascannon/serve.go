package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/saascannon/saascannon-vango/internal/config"
	"github.com/saascannon/saascannon-vango/internal/errors"
	"github.com/saascannon/saascannon-vango/pkg/middleware"
	"github.com/saascannon/saascannon-vango/pkg/saascannon"
	"github.com/saascannon/saascannon-vango/pkg/server"
	"github.com/saascannon/saascannon-vango/pkg/spa"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	port        int
	host        string
	openBrowser bool
}

func serveCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		Long: `Start the server.

Pages are rendered on the server and stay live over a WebSocket. The
login callback is served at the path of the configured redirect URI.

Routes:
  /           the app
  /ws         live updates
  /callback   login callback (path of saascannon.redirectUri)
  /metrics    Prometheus metrics

Examples:
  saascannon serve
  saascannon serve --port=8080
  saascannon serve --config=deploy/saascannon.yaml --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVarP(&opts.openBrowser, "open", "o", false, "Open the app in a browser once listening")

	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions, out, stderr io.Writer) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	cfg.SetAddress(opts.host, opts.port)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := spa.New(cfg.SpaOptions()); err != nil {
		return errors.FromAuth(err, "S002")
	}

	logger, logFile := newLogger(cfg.Log, stderr)
	defer logFile.Close()
	slog.SetDefault(logger)

	handler, stores := newHandler(cfg, logger, prometheus.NewRegistry())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go handler.Run(runCtx)
	go sweepStores(runCtx, stores, logger)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           stores.Middleware(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printBanner(out)
	success(out, "Serving %s", cfg.Name)
	field(out, "Local", "http://"+cfg.Address())
	field(out, "Public", cfg.PublicURL)
	field(out, "Callback", cfg.Saascannon.RedirectURI)
	field(out, "Tenant", cfg.SpaOptions().BaseURL())
	if cfg.Path() != "" {
		field(out, "Config", cfg.Path())
	}
	fmt.Fprintln(out)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	if opts.openBrowser {
		go func() {
			time.Sleep(300 * time.Millisecond)
			if err := open.Run(cfg.PublicURL); err != nil {
				errorMsg(stderr, "Could not open a browser: %v", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("S142").Wrap(err).WithDetail("Listening on " + cfg.Address() + " failed.")
		}
		return nil
	case <-ctx.Done():
	}

	info(out, "Shutting down…")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("S142").Wrap(err)
	}
	cancel()
	success(out, "Stopped")
	return nil
}

// newHandler assembles the live handler, its login callback and the
// per-browser token stores. Metrics of every layer go to reg.
func newHandler(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*server.Handler, *spa.BrowserStores) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	stores := spa.NewBrowserStores()
	stores.Secure = cfg.Session.SecureCookies

	handler := server.NewHandler(newApp(cfg, saascannon.NewMetrics(saascannon.WithRegistry(reg))), server.HandlerConfig{
		Session: &server.SessionConfig{
			Logger:         logger,
			Title:          cfg.Name,
			DispatchBuffer: cfg.Session.DispatchBuffer,
			Metrics:        server.NewMetrics(server.WithRegistry(reg)),
		},
		Gatherer:    reg,
		IdleTimeout: cfg.IdleTimeout(),
		Middlewares: []func(http.Handler) http.Handler{
			middleware.OpenTelemetry(middleware.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/metrics"
			})),
			middleware.Prometheus(middleware.WithRegistry(reg)),
		},
	})

	handler.Router().Get(cfg.CallbackPath(), func(w http.ResponseWriter, r *http.Request) {
		opts := cfg.SpaOptions()
		opts.Store = spa.StoreFromContext(r.Context())
		opts.Logger = logger
		client, err := spa.New(opts)
		if err != nil {
			logger.Error("callback client", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		client.ServeCallback(w, r)
	})

	return handler, stores
}

// sweepStores drops the token stores of browsers that went away.
func sweepStores(ctx context.Context, stores *spa.BrowserStores, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := stores.Sweep(); n > 0 {
				logger.Debug("swept browser stores", "count", n)
			}
		}
	}
}
