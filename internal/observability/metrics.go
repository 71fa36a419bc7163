// Package observability exposes Prometheus instruments for the chat service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions     prometheus.Gauge
	Turns              *prometheus.CounterVec
	Fallbacks          prometheus.Counter
	CompletionFailures prometheus.Counter
	ClassifierFailures prometheus.Counter
	ProfileUpdates     *prometheus.CounterVec
	PIIDetections      *prometheus.CounterVec
	StoreErrors        *prometheus.CounterVec
	TurnLatency        *prometheus.HistogramVec
}

// NewMetrics registers the instruments on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live chat sessions.",
		}),
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed turns by answering model and route label.",
		}, []string{"model", "label"}),
		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Turns that retried against the fallback model.",
		}),
		CompletionFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_failures_total",
			Help:      "Turns where both the routed and the fallback model failed.",
		}),
		ClassifierFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Classifier calls that failed or returned invalid JSON.",
		}),
		ProfileUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_updates_total",
			Help:      "Profile fields changed by learned facts.",
		}, []string{"field"}),
		PIIDetections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pii_detections_total",
			Help:      "Turns flagged for personal data by source.",
		}, []string{"source"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Datastore failures by operation.",
		}, []string{"op"}),
		TurnLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end turn latency in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}, []string{"label"}),
	}
}

func (m *Metrics) ObserveTurn(modelName, label string, fallback, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	if failed {
		m.CompletionFailures.Inc()
		modelName = "none"
	}
	if fallback {
		m.Fallbacks.Inc()
	}
	m.Turns.WithLabelValues(modelName, label).Inc()
	m.TurnLatency.WithLabelValues(label).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ClassifierFailed() {
	if m == nil {
		return
	}
	m.ClassifierFailures.Inc()
}

func (m *Metrics) ProfileUpdated(field string) {
	if m == nil {
		return
	}
	m.ProfileUpdates.WithLabelValues(field).Inc()
}

func (m *Metrics) PIIDetected(source string) {
	if m == nil {
		return
	}
	m.PIIDetections.WithLabelValues(source).Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
