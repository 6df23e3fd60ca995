package services

import (
	"time"

	"dar-review-api/workflow"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the service's Prometheus collectors.
var Registry = prometheus.NewRegistry()

// Dispatch outcomes used as the outcome label.
const (
	outcomeOK                = "ok"
	outcomeInvalidTransition = "invalid_transition"
	outcomeContentIncomplete = "content_incomplete"
	outcomeNotFound          = "not_found"
	outcomeRejected          = "rejected"
	outcomeSystemError       = "system_error"
)

// LifecycleMetrics counts dispatch outcomes per event. A nil *LifecycleMetrics records nothing.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	m := &LifecycleMetrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dar",
				Subsystem: "lifecycle",
				Name:      "transitions_total",
				Help:      "Lifecycle actions attempted, by event and outcome.",
			},
			[]string{"event", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dar",
				Subsystem: "lifecycle",
				Name:      "dispatch_seconds",
				Help:      "Time spent dispatching lifecycle actions.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"event"},
		),
	}
	reg.MustRegister(m.transitions, m.duration)
	return m
}

func (m *LifecycleMetrics) observe(event workflow.Event, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := string(event)
	if !event.Valid() {
		label = "unknown"
	}
	m.transitions.WithLabelValues(label, outcome).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}
