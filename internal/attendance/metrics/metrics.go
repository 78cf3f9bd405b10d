// Package metrics provides observability for the attendance ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger collectors. A nil *Metrics no-ops every observer.
type Metrics struct {
	// Mark attempts by terminal outcome
	MarkAttempts *prometheus.CounterVec

	// Full mark attempt duration, verification included
	MarkDuration prometheus.Histogram
}

// New creates and registers the attendance metrics.
func New() *Metrics {
	return &Metrics{
		MarkAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_attendance_mark_attempts_total",
			Help: "Mark attempts by terminal outcome",
		}, []string{"outcome"}), // outcome: "marked", "verification_failed", "already_marked", "session_inactive", "not_enrolled", "throttled", "error"

		MarkDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_attendance_mark_duration_seconds",
			Help:    "Duration of full mark attempts including verification",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementAttempt records one mark attempt outcome.
func (m *Metrics) IncrementAttempt(outcome string) {
	if m != nil {
		m.MarkAttempts.WithLabelValues(outcome).Inc()
	}
}

// ObserveMarkDuration records one full attempt duration.
func (m *Metrics) ObserveMarkDuration(d time.Duration) {
	if m != nil {
		m.MarkDuration.Observe(d.Seconds())
	}
}
