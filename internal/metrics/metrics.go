// Package metrics provides Prometheus metrics for manifest processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Manifest outcomes
	ManifestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_processed_total",
			Help: "Total number of manifests processed, by outcome status",
		},
		[]string{"company", "file_type", "status"},
	)

	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "manifest_processing_duration_seconds",
			Help:    "Time taken to convert one manifest",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"file_type"},
	)

	// Manifest contents
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_orders_total",
			Help: "Total number of store orders converted",
		},
		[]string{"company"},
	)

	CratesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_crates_total",
			Help: "Total number of crates converted",
		},
		[]string{"company"},
	)

	// Repairs and warnings
	RepairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_duplicate_repairs_total",
			Help: "Total number of manifests whose duplicate order numbers were repaired",
		},
		[]string{"company"},
	)

	WarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_warnings_total",
			Help: "Total number of warnings raised while converting manifests",
		},
		[]string{"company"},
	)
)

// Recorder records metrics for one processing pipeline.
type Recorder struct{}

// NewRecorder creates a Recorder backed by the package collectors.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordManifest records the outcome of one manifest.
func (r *Recorder) RecordManifest(company, fileType, status string, duration time.Duration) {
	ManifestsTotal.WithLabelValues(company, fileType, status).Inc()
	ProcessingDuration.WithLabelValues(fileType).Observe(duration.Seconds())
}

// RecordContents records the orders and crates of a converted manifest.
func (r *Recorder) RecordContents(company string, orders, crates int) {
	OrdersTotal.WithLabelValues(company).Add(float64(orders))
	CratesTotal.WithLabelValues(company).Add(float64(crates))
}

// RecordRepair records a duplicate order repair.
func (r *Recorder) RecordRepair(company string) {
	RepairsTotal.WithLabelValues(company).Inc()
}

// RecordWarnings records warnings raised for a manifest.
func (r *Recorder) RecordWarnings(company string, n int) {
	if n > 0 {
		WarningsTotal.WithLabelValues(company).Add(float64(n))
	}
}

// Timer is a helper for measuring duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
