// Package metrics provides observability for the anomaly module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the anomaly collectors. A nil *Metrics no-ops every observer.
type Metrics struct {
	// Recorded anomalies by type and severity
	Recorded *prometheus.CounterVec

	// Resolved anomalies
	Resolved prometheus.Counter

	// Positive side-channel detections by check
	DetectorHits *prometheus.CounterVec

	// Duplicate-face scan duration
	ScanDuration prometheus.Histogram
}

// New creates and registers the anomaly metrics.
func New() *Metrics {
	return &Metrics{
		Recorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_anomalies_recorded_total",
			Help: "Recorded anomalies by type and severity",
		}, []string{"type", "severity"}),

		Resolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_anomalies_resolved_total",
			Help: "Anomalies marked resolved by reviewers",
		}),

		DetectorHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_anomaly_detector_hits_total",
			Help: "Positive side-channel detections by check",
		}, []string{"check"}), // check: "duplicate_face", "address_collision", "repeated_failure"

		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_anomaly_face_scan_duration_seconds",
			Help:    "Duration of partition-wide duplicate-face scans",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementRecorded records one persisted anomaly.
func (m *Metrics) IncrementRecorded(anomalyType, severity string) {
	if m != nil {
		m.Recorded.WithLabelValues(anomalyType, severity).Inc()
	}
}

// IncrementResolved records one resolution.
func (m *Metrics) IncrementResolved() {
	if m != nil {
		m.Resolved.Inc()
	}
}

// IncrementDetectorHit records one positive detection.
func (m *Metrics) IncrementDetectorHit(check string) {
	if m != nil {
		m.DetectorHits.WithLabelValues(check).Inc()
	}
}

// ObserveScanDuration records one duplicate-face scan duration.
func (m *Metrics) ObserveScanDuration(d time.Duration) {
	if m != nil {
		m.ScanDuration.Observe(d.Seconds())
	}
}
