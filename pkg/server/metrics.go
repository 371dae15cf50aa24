package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the session metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "saascannon").
	Namespace string

	// Subsystem is the metrics subsystem (default: "session").
	Subsystem string

	// Registry is the Prometheus registerer to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithRegistry sets the Prometheus registerer.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the Prometheus collectors for sessions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsActive  prometheus.Gauge
	Renders         prometheus.Counter
	Events          *prometheus.CounterVec
	DispatchDropped prometheus.Counter
	Panics          prometheus.Counter
}

// NewMetrics creates and registers the session collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "saascannon",
		Subsystem: "session",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	return &Metrics{
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "active",
			Help:      "Number of mounted sessions",
		}),
		Renders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "renders_total",
			Help:      "Total number of component renders",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "events_total",
			Help:      "Total number of browser events handled",
		}, []string{"event", "status"}),
		DispatchDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "dispatch_dropped_total",
			Help:      "Dispatch callbacks dropped because the queue was full",
		}),
		Panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "panics_total",
			Help:      "Panics recovered from dispatched callbacks and event handlers",
		}),
	}
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.SessionsActive.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.SessionsActive.Dec()
	}
}

func (m *Metrics) rendered() {
	if m != nil {
		m.Renders.Inc()
	}
}

func (m *Metrics) event(name, status string) {
	if m != nil {
		m.Events.WithLabelValues(name, status).Inc()
	}
}

func (m *Metrics) dispatchDropped() {
	if m != nil {
		m.DispatchDropped.Inc()
	}
}

func (m *Metrics) panicked() {
	if m != nil {
		m.Panics.Inc()
	}
}
