// Package metrics provides Prometheus metrics collection for contentgate.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artpar/contentgate/ports"
)

const namespace = "contentgate"

// Collector holds all Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Auth metrics
	AuthAttempts     *prometheus.CounterVec
	SessionsRejected *prometheus.CounterVec

	// Item metrics
	ItemWrites *prometheus.CounterVec
}

// New creates a collector on a private registry, with the Go and process
// collectors registered alongside.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a collector registered on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Sign-in attempts by result",
			},
			[]string{"result"},
		),
		SessionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_rejected_total",
				Help:      "Session tokens that failed to decode, by reason",
			},
			[]string{"reason"},
		),
		ItemWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "item_writes_total",
				Help:      "Committed item writes by list and operation",
			},
			[]string{"list", "operation"},
		),
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ItemWrite(list, operation string) {
	c.ItemWrites.WithLabelValues(list, operation).Inc()
}

func (c *Collector) AuthAttempt(result string) {
	c.AuthAttempts.WithLabelValues(result).Inc()
}

func (c *Collector) SessionRejected(reason string) {
	c.SessionsRejected.WithLabelValues(reason).Inc()
}

var _ ports.Metrics = (*Collector)(nil)

// Nop discards all metrics.
type Nop struct{}

func (Nop) ItemWrite(string, string) {}
func (Nop) AuthAttempt(string)       {}
func (Nop) SessionRejected(string)   {}

var _ ports.Metrics = Nop{}
