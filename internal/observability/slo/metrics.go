package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets define the service level objectives for digest delivery.
// These targets are used to measure and monitor batch reliability.
const (
	// DeliverySuccessSLO defines the target ratio of sent outcomes among
	// all non-skipped orchestration runs per day (99%)
	DeliverySuccessSLO = 0.99

	// BatchDurationSLO defines the target for a full daily batch in seconds
	BatchDurationSLO = 600.0

	// SourceErrorRateSLO defines the maximum acceptable ratio of terminal
	// source fetch failures to total fetches (5%)
	SourceErrorRateSLO = 0.05
)

// SLO tracking metrics. These gauges are updated after each batch based on
// recent measurements to track whether the service is meeting its targets.
var (
	// SLODeliverySuccess tracks the current delivery success ratio (0-1)
	// calculated as: sent / (sent + failed)
	SLODeliverySuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_delivery_success_ratio",
			Help: "Current delivery success ratio (0-1), target: 0.99",
		},
	)

	// SLOBatchDuration tracks the most recent full batch duration in seconds
	SLOBatchDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_batch_duration_seconds",
			Help: "Most recent digest batch duration in seconds, target: 600",
		},
	)

	// SLOSourceErrorRate tracks the current source failure ratio (0-1)
	SLOSourceErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_source_error_rate_ratio",
			Help: "Current source fetch error ratio (0-1), target: 0.05",
		},
	)
)

// UpdateDeliverySuccess updates the delivery success SLO metric.
// Call this after each batch with sent/(sent+failed); pass 1 when the batch
// had no send attempts.
func UpdateDeliverySuccess(ratio float64) {
	SLODeliverySuccess.Set(ratio)
}

// UpdateBatchDuration updates the batch duration SLO metric.
func UpdateBatchDuration(seconds float64) {
	SLOBatchDuration.Set(seconds)
}

// UpdateSourceErrorRate updates the source error rate SLO metric.
func UpdateSourceErrorRate(ratio float64) {
	SLOSourceErrorRate.Set(ratio)
}

// MeetsDeliverySLO reports whether the given success ratio meets the target.
func MeetsDeliverySLO(ratio float64) bool {
	return ratio >= DeliverySuccessSLO
}
