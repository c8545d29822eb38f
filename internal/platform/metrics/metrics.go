// Package metrics owns the prometheus collectors for the router
// a nil *Metrics is valid and records nothing, which keeps tests and the CLI quiet
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lasrouter"

// Metrics groups every collector behind a private registry
type Metrics struct {
	reg *prometheus.Registry

	requests       *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	modelFailures  *prometheus.CounterVec
	clarifications *prometheus.CounterVec
	execDuration   *prometheus.HistogramVec
	ledgerFailures *prometheus.CounterVec
	subscribers    prometheus.Gauge
	dropped        prometheus.Counter
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "requests_total",
			Help: "Requests that reached a terminal status, by origin and status",
		}, []string{"origin", "status"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "resolutions_total",
			Help: "Intent resolutions by winning tier",
		}, []string{"source"}),
		modelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "model_failures_total",
			Help: "Model tier attempts that fell through, by reason",
		}, []string{"reason"}),
		clarifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "clarifications_total",
			Help: "Inputs answered with a clarification, by gate stage",
		}, []string{"stage"}),
		execDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "execution_duration_seconds",
			Help:    "Wall clock duration of analysis subprocesses",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"tool", "outcome"}),
		ledgerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_write_failures_total",
			Help: "Ledger saves that failed, by operation",
		}, []string{"op"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "broadcast_subscribers",
			Help: "Currently connected live-update subscribers",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "broadcast_dropped_total",
			Help: "Events dropped because a subscriber buffer was full",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.resolutions, m.modelFailures, m.clarifications,
		m.execDuration, m.ledgerFailures, m.subscribers, m.dropped,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// RequestDone counts a request reaching a terminal status
func (m *Metrics) RequestDone(origin, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(origin, status).Inc()
}

// Resolved counts the tier that produced a resolution
func (m *Metrics) Resolved(source string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
}

// ModelFailed counts a model tier fall through
func (m *Metrics) ModelFailed(reason string) {
	if m == nil {
		return
	}
	m.modelFailures.WithLabelValues(reason).Inc()
}

// Clarified counts a clarification answered at stage
func (m *Metrics) Clarified(stage string) {
	if m == nil {
		return
	}
	m.clarifications.WithLabelValues(stage).Inc()
}

// Executed observes a subprocess run
func (m *Metrics) Executed(tool string, ok bool, ms int64) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	m.execDuration.WithLabelValues(tool, outcome).Observe(float64(ms) / 1000)
}

// LedgerWriteFailed counts a failed ledger save
func (m *Metrics) LedgerWriteFailed(op string) {
	if m == nil {
		return
	}
	m.ledgerFailures.WithLabelValues(op).Inc()
}

// SubscriberAdded and SubscriberRemoved track the live subscriber gauge
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

// SubscriberRemoved decrements the live subscriber gauge
func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

// EventDropped counts an event a slow subscriber missed
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
