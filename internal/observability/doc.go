// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog and run ID propagation
//   - metrics: Prometheus metrics registry and recorders
//   - slo: Service level objective targets and tracking gauges
//   - tracing: OpenTelemetry tracing integration
//
// Example usage:
//
//	import (
//	    "dev-digest/internal/observability/logging"
//	    "dev-digest/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started")
//
//	    metrics.RecordDigestRun("sent", "daily", duration)
//	}
package observability
