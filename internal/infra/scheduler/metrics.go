package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dev-digest/internal/pkg/config"
)

// Metrics provides Prometheus metrics for the scheduler component.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// batch execution tracking.
type Metrics struct {
	*config.ConfigMetrics

	// BatchRunsTotal counts batch executions by status (success, failure,
	// skipped_overlap).
	BatchRunsTotal *prometheus.CounterVec

	// BatchDurationSeconds measures one full batch over all recipients.
	BatchDurationSeconds prometheus.Histogram

	// RecipientsProcessedTotal counts recipients orchestrated across all
	// batches.
	RecipientsProcessedTotal prometheus.Counter

	// LastSuccessTimestamp records the Unix timestamp of the last batch
	// that completed without being interrupted.
	LastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates scheduler metrics. Registration happens automatically
// via promauto.
func NewMetrics() *Metrics {
	return &Metrics{
		ConfigMetrics: config.NewConfigMetrics("scheduler"),
		BatchRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_batch_runs_total",
			Help: "Total number of digest batch runs by status",
		}, []string{"status"}),
		BatchDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_batch_duration_seconds",
			Help:    "Duration of one digest batch in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),
		RecipientsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_recipients_processed_total",
			Help: "Total number of recipients processed by batch runs",
		}),
		LastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_batch_last_success_timestamp",
			Help: "Unix timestamp of the last successful batch run",
		}),
	}
}

// RecordBatchRun records one batch execution result.
func (m *Metrics) RecordBatchRun(status string) {
	m.BatchRunsTotal.WithLabelValues(status).Inc()
}

// RecordBatchDuration records how long a batch took.
func (m *Metrics) RecordBatchDuration(d time.Duration) {
	m.BatchDurationSeconds.Observe(d.Seconds())
}

// RecordRecipientsProcessed adds to the processed recipient counter.
func (m *Metrics) RecordRecipientsProcessed(count int) {
	if count > 0 {
		m.RecipientsProcessedTotal.Add(float64(count))
	}
}

// RecordLastSuccess stamps the last successful batch time.
func (m *Metrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
