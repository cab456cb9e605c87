package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Junk-file queue metrics
	JunkFilesCleaned prometheus.Counter
	JunkFilesFailed  prometheus.Counter
	CleanupDuration  prometheus.Histogram
	JunkQueueBacklog prometheus.Gauge

	// Cascade metrics
	CascadeDeletes prometheus.Counter
	CascadeRows    prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		JunkFilesCleaned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "junk_files_cleaned_total",
			Help:      "Total number of junk files removed from disk",
		}),
		JunkFilesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "junk_files_failed_total",
			Help:      "Total number of junk files that could not be removed",
		}),
		CleanupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "junk_cleanup_duration_seconds",
			Help:      "Time spent per cleanup batch",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		JunkQueueBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "junk_queue_backlog",
			Help:      "Junk files seen in the most recent batch",
		}),
		CascadeDeletes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cascade_deletes_total",
			Help:      "Total number of cascading deletions committed",
		}),
		CascadeRows: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cascade_rows_deleted_total",
			Help:      "Total rows removed by cascading deletions",
		}),
	}
}
