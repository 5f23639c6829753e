package metrics

import "time"

// RecordDigestRun records the outcome of one orchestration run.
func RecordDigestRun(status, kind string, duration time.Duration) {
	DigestRunsTotal.WithLabelValues(status, kind).Inc()
	DigestRunDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordItemsAggregated records how many items a category contributed to a
// payload.
func RecordItemsAggregated(category string, count int) {
	if count > 0 {
		DigestItemsTotal.WithLabelValues(category).Add(float64(count))
	}
}

// RecordSourceFetch records one adapter fetch, successful or not.
func RecordSourceFetch(category string, duration time.Duration) {
	SourceFetchDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordSourceFetchError records a terminal fetch failure.
// Cause should be one of "breaker_open", "exhausted", "error".
func RecordSourceFetchError(category, cause string) {
	SourceFetchErrors.WithLabelValues(category, cause).Inc()
}

// RecordBreakerState publishes the current breaker state for a source.
func RecordBreakerState(source string, state int) {
	BreakerState.WithLabelValues(source).Set(float64(state))
}

// RecordDelivery records the result of one delivery attempt.
func RecordDelivery(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	DeliveriesTotal.WithLabelValues(result).Inc()
	DeliveryDuration.Observe(duration.Seconds())
}

// RecordBatchRun records one completed scheduler batch.
func RecordBatchRun(duration time.Duration) {
	BatchRunsTotal.Inc()
	BatchDuration.Observe(duration.Seconds())
}

// RecordBatchOverlapSkipped records a scheduler firing dropped because the
// previous batch was still running.
func RecordBatchOverlapSkipped() {
	BatchOverlapsSkipped.Inc()
}

// RecordRecipientCounts publishes the recipient population gauges.
func RecordRecipientCounts(total, active int) {
	RecipientsTotal.WithLabelValues("all").Set(float64(total))
	RecipientsTotal.WithLabelValues("active").Set(float64(active))
}
