package telemetry

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/shared"
)

const metricsNamespace = "tiller"

// Metrics owns the Prometheus registry served on /metrics
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	events          *prometheus.CounterVec
	paymentsAmount  prometheus.Counter
	paymentsRecords *prometheus.CounterVec
}

// NewMetrics creates a registry with the Go runtime and process collectors
// plus the HTTP and billing series.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "billing",
			Name:      "events_total",
			Help:      "Billing domain events by type.",
		}, []string{"type"}),
		paymentsAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "billing",
			Name:      "payments_received_bdt_total",
			Help:      "Sum of confirmed payment amounts.",
		}),
		paymentsRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "billing",
			Name:      "payments_total",
			Help:      "Confirmed payments by resulting bill status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
		m.events,
		m.paymentsAmount,
		m.paymentsRecords,
	)
	return m
}

// RegisterDB exports connection pool statistics of db
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RequestStarted marks a request in flight and returns the function that
// records its outcome.
func (m *Metrics) RequestStarted(method, route string) func(status int) {
	start := time.Now()
	m.httpInFlight.Inc()
	return func(status int) {
		m.httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handle counts billing events. It subscribes to every event type.
func (m *Metrics) Handle(_ context.Context, event shared.DomainEvent) error {
	m.events.WithLabelValues(event.EventType()).Inc()
	if e, ok := event.(*billing.PaymentRecordedEvent); ok {
		m.paymentsAmount.Add(e.Amount.InexactFloat64())
		m.paymentsRecords.WithLabelValues(string(e.Status)).Inc()
	}
	return nil
}

// EventTypes returns nil so the bus delivers every event
func (m *Metrics) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*Metrics)(nil)
