// Package metrics exposes Prometheus collectors for polls, tasks and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

const namespace = "metatext"

// Ensure Metrics implements PollObserver
var _ driven.PollObserver = (*Metrics)(nil)

// Metrics owns a private registry and every collector the service exports
type Metrics struct {
	registry *prometheus.Registry

	pollAttempts  prometheus.Counter
	pollOutcomes  *prometheus.CounterVec
	pollDuration  *prometheus.HistogramVec
	tasks         *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "image_poll",
			Name:      "attempts_total",
			Help:      "Image availability load attempts.",
		}),
		pollOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "image_poll",
			Name:      "outcomes_total",
			Help:      "Finished image availability polls by terminal state.",
		}, []string{"state"}),
		pollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "image_poll",
			Name:      "duration_seconds",
			Help:      "Time from poll start to terminal state.",
			Buckets:   []float64{0.05, 0.1, 0.3, 0.6, 1, 2, 5, 10, 20},
		}, []string{"state"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "Processed background tasks by type and result.",
		}, []string{"type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pollAttempts,
		m.pollOutcomes,
		m.pollDuration,
		m.tasks,
		m.httpRequests,
		m.httpDurations,
	)
	return m
}

// Registry returns the registry backing the metrics endpoint
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAttempt counts one image load attempt
func (m *Metrics) ObserveAttempt() {
	m.pollAttempts.Inc()
}

// ObserveOutcome records a finished poll
func (m *Metrics) ObserveOutcome(state domain.PollState, elapsed time.Duration) {
	m.pollOutcomes.WithLabelValues(string(state)).Inc()
	m.pollDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
}

// ObserveTask records a processed background task. result is "ok", "retry" or "failed".
func (m *Metrics) ObserveTask(taskType domain.TaskType, result string) {
	m.tasks.WithLabelValues(string(taskType), result).Inc()
}

// ObserveRequest records a served HTTP request. route is the mux pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
