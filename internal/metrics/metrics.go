// Package metrics exposes Prometheus collectors fed by sequent signals.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/sequent"
)

const namespace = "sequent"

// Metrics holds the service collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry
	observer *capitan.Observer

	// stepsAccepted counts recorded steps.
	// Labels: kind (thought, revision, branch)
	stepsAccepted *prometheus.CounterVec

	// stepsRejected counts submissions that failed validation.
	stepsRejected prometheus.Counter

	// delegateFailures counts coordinator calls that failed or timed out.
	delegateFailures prometheus.Counter

	// delegateDuration measures successful coordinator calls.
	delegateDuration prometheus.Histogram

	// activeSessions tracks open ledgers.
	activeSessions prometheus.Gauge

	// journalFailures counts best-effort journal writes that failed.
	journalFailures prometheus.Counter
}

// New registers the collectors and starts observing sequent signals.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		stepsAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "steps",
			Name:      "accepted_total",
			Help:      "Total steps recorded in a ledger",
		}, []string{"kind"}),
		stepsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "steps",
			Name:      "rejected_total",
			Help:      "Total submissions rejected by validation",
		}),
		delegateFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delegate",
			Name:      "failures_total",
			Help:      "Total failed coordinator calls",
		}),
		delegateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "delegate",
			Name:      "duration_seconds",
			Help:      "Coordinator response latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Ledgers currently open",
		}),
		journalFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "failures_total",
			Help:      "Total failed journal writes",
		}),
	}

	m.observer = capitan.Observe(m.handle,
		sequent.LedgerOpened,
		sequent.LedgerClosed,
		sequent.StepAccepted,
		sequent.StepRejected,
		sequent.DelegateCompleted,
		sequent.DelegateFailed,
		sequent.JournalFailed,
	)
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Close stops observing signals. Collected values stay readable.
func (m *Metrics) Close() {
	m.observer.Close()
}

func (m *Metrics) handle(_ context.Context, e *capitan.Event) {
	switch e.Signal().Name() {
	case sequent.LedgerOpened.Name():
		m.activeSessions.Inc()
	case sequent.LedgerClosed.Name():
		m.activeSessions.Dec()
	case sequent.StepAccepted.Name():
		kind, ok := sequent.FieldStepKind.From(e)
		if !ok {
			kind = "unknown"
		}
		m.stepsAccepted.WithLabelValues(kind).Inc()
	case sequent.StepRejected.Name():
		m.stepsRejected.Inc()
	case sequent.DelegateCompleted.Name():
		if d, ok := sequent.FieldDuration.From(e); ok {
			m.delegateDuration.Observe(d.Seconds())
		}
	case sequent.DelegateFailed.Name():
		m.delegateFailures.Inc()
	case sequent.JournalFailed.Name():
		m.journalFailures.Inc()
	}
}
