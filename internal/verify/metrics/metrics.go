// Package metrics provides observability for the verification engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the verification engine collectors. A nil *Metrics is safe;
// every observer no-ops so tests can pass nil.
type Metrics struct {
	// Comparator call latencies by modality
	FactorLatency *prometheus.HistogramVec

	// Verification outcomes by method descriptor and result
	Outcome *prometheus.CounterVec

	// Factors degraded to inapplicable by a comparator failure
	DegradedFactors *prometheus.CounterVec
}

// New creates and registers the verification metrics.
func New() *Metrics {
	return &Metrics{
		FactorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollcall_verify_factor_duration_seconds",
			Help:    "Duration of comparator calls by modality",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"modality"}),

		Outcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_verify_outcomes_total",
			Help: "Verification outcomes by method descriptor and result",
		}, []string{"method", "result"}),

		DegradedFactors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_verify_degraded_factors_total",
			Help: "Factors treated as inapplicable because the comparator failed",
		}, []string{"modality"}),
	}
}

// ObserveFactorLatency records one comparator call duration.
func (m *Metrics) ObserveFactorLatency(modality string, d time.Duration) {
	if m != nil {
		m.FactorLatency.WithLabelValues(modality).Observe(d.Seconds())
	}
}

// IncrementOutcome records one verification outcome.
func (m *Metrics) IncrementOutcome(method string, success bool) {
	if m != nil {
		result := "failure"
		if success {
			result = "success"
		}
		m.Outcome.WithLabelValues(method, result).Inc()
	}
}

// IncrementDegraded records one comparator failure degraded to inapplicable.
func (m *Metrics) IncrementDegraded(modality string) {
	if m != nil {
		m.DegradedFactors.WithLabelValues(modality).Inc()
	}
}
