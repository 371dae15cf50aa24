package saascannon

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures provider metrics.
type MetricsConfig struct {
	Namespace string
	Subsystem string
	Registry  prometheus.Registerer
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the registerer the collectors are added to.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the Prometheus collectors for providers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ClientsConstructed prometheus.Counter
	ClientErrors       prometheus.Counter
	Ready              prometheus.Counter
	TimeToReady        prometheus.Histogram
}

// NewMetrics creates and registers the provider collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "saascannon",
		Subsystem: "provider",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	return &Metrics{
		ClientsConstructed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "clients_constructed_total",
			Help:      "Clients constructed by mounted providers",
		}),
		ClientErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "client_errors_total",
			Help:      "Client constructions that failed",
		}),
		Ready: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "ready_total",
			Help:      "Providers that received auth-state-loaded",
		}),
		TimeToReady: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "time_to_ready_seconds",
			Help:      "Time from mount to auth-state-loaded",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

func (m *Metrics) constructed() {
	if m != nil {
		m.ClientsConstructed.Inc()
	}
}

func (m *Metrics) clientError() {
	if m != nil {
		m.ClientErrors.Inc()
	}
}

func (m *Metrics) ready(since time.Time) {
	if m != nil {
		m.Ready.Inc()
		m.TimeToReady.Observe(time.Since(since).Seconds())
	}
}
