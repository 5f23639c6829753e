// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Digest metrics track orchestration runs and their outcomes
var (
	// DigestRunsTotal counts orchestration runs by outcome status and digest kind
	DigestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_runs_total",
			Help: "Total number of digest orchestration runs",
		},
		[]string{"status", "kind"},
	)

	// DigestRunDuration measures one orchestration run end to end
	DigestRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "Digest orchestration run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"kind"},
	)

	// DigestItemsTotal counts items aggregated into payloads per category
	DigestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_items_total",
			Help: "Total number of items aggregated into digest payloads",
		},
		[]string{"category"},
	)
)

// Source metrics track upstream adapter behavior
var (
	// SourceFetchDuration measures one adapter fetch including retries
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Source adapter fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"category"},
	)

	// SourceFetchErrors counts terminal adapter failures by cause
	SourceFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_errors_total",
			Help: "Total number of terminal source fetch failures",
		},
		[]string{"category", "cause"}, // cause: breaker_open, exhausted, error
	)

	// BreakerState reports the current circuit breaker state per source
	// (0 closed, 1 half-open, 2 open)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per source (0 closed, 1 half-open, 2 open)",
		},
		[]string{"source"},
	)
)

// Delivery metrics track the outbound channel
var (
	// DeliveriesTotal counts delivery attempts by result
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total number of delivery attempts",
		},
		[]string{"result"}, // result: success, failure
	)

	// DeliveryDuration measures one delivery send
	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delivery_duration_seconds",
			Help:    "Delivery send duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

// Scheduler metrics track the recurring batch loop
var (
	// BatchRunsTotal counts scheduler batch executions
	BatchRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_batch_runs_total",
			Help: "Total number of scheduled digest batch runs",
		},
	)

	// BatchDuration measures one full batch over all active recipients
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_batch_duration_seconds",
			Help:    "Scheduled digest batch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// BatchOverlapsSkipped counts firings dropped because a batch was running
	BatchOverlapsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_batch_overlaps_skipped_total",
			Help: "Total number of scheduler firings skipped due to an in-flight batch",
		},
	)

	// RecipientsTotal tracks the recipient population
	RecipientsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recipients_total",
			Help: "Number of recipients known to the digest service",
		},
		[]string{"state"}, // state: all, active
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordOperationDuration records the duration of a named database operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
