// Package observability exposes Prometheus metrics for the tracking engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nutriplan"

// Metrics groups the engine's collectors. A nil *Metrics is valid and
// records nothing, so services can be built without a registry in tests.
type Metrics struct {
	QuotaDecisions       *prometheus.CounterVec
	QuotaResets          *prometheus.CounterVec
	CompletionsFired     prometheus.Counter
	DuplicateCompletions prometheus.Counter
	ContentionRetries    *prometheus.CounterVec
	RetriesExhausted     *prometheus.CounterVec
	EventsPublished      *prometheus.CounterVec
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QuotaDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "decisions_total",
			Help:      "Quota check-and-consume results by resource and outcome",
		}, []string{"resource", "outcome"}),
		QuotaResets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "period_resets_total",
			Help:      "Monthly quota period rollovers by resource",
		}, []string{"resource"}),
		CompletionsFired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "completions_total",
			Help:      "Plans transitioned to completed",
		}),
		DuplicateCompletions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "duplicate_completions_total",
			Help:      "Completion checks that found the plan already completed",
		}),
		ContentionRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "contention_retries_total",
			Help:      "Atomic updates retried after a conflict, by operation",
		}, []string{"op"}),
		RetriesExhausted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "retries_exhausted_total",
			Help:      "Atomic updates that gave up after the retry budget, by operation",
		}, []string{"op"}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Completion events delivered to sinks, by sink and status",
		}, []string{"sink", "status"}),
	}
}

func (m *Metrics) QuotaDecision(resource string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if allowed {
		outcome = "allowed"
	}
	m.QuotaDecisions.WithLabelValues(resource, outcome).Inc()
}

func (m *Metrics) QuotaReset(resource string) {
	if m == nil {
		return
	}
	m.QuotaResets.WithLabelValues(resource).Inc()
}

func (m *Metrics) CompletionFired() {
	if m == nil {
		return
	}
	m.CompletionsFired.Inc()
}

func (m *Metrics) DuplicateCompletion() {
	if m == nil {
		return
	}
	m.DuplicateCompletions.Inc()
}

func (m *Metrics) Retry(op string) {
	if m == nil {
		return
	}
	m.ContentionRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) Exhausted(op string) {
	if m == nil {
		return
	}
	m.RetriesExhausted.WithLabelValues(op).Inc()
}

func (m *Metrics) Published(sink string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(sink, status).Inc()
}
