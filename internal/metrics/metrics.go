// Package metrics exposes Prometheus collectors for the diary service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "emotional_diary"

// Metrics groups the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	analysisRequests *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	entryOperations  *prometheus.CounterVec
}

// New builds the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"method", "route"},
		),
		analysisRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gemini",
				Name:      "requests_total",
				Help:      "Calls to the analysis provider by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gemini",
				Name:      "request_duration_seconds",
				Help:      "Latency of calls to the analysis provider.",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 9), // 100ms to ~25s
			},
			[]string{"operation"},
		),
		entryOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "entries",
				Name:      "operations_total",
				Help:      "Entry create/update attempts by outcome.",
			},
			[]string{"operation", "outcome"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.analysisRequests,
		m.analysisDuration,
		m.entryOperations,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one handled request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAnalysis records one provider call. outcome is "ok" or the name of
// the failing extraction stage.
func (m *Metrics) ObserveAnalysis(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analysisRequests.WithLabelValues(operation, outcome).Inc()
	m.analysisDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveEntry records the outcome of an entry create or update.
func (m *Metrics) ObserveEntry(operation, outcome string) {
	if m == nil {
		return
	}
	m.entryOperations.WithLabelValues(operation, outcome).Inc()
}
