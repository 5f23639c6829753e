package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"dev-digest/internal/pkg/config"
)

// Config holds the configuration for the digest scheduler.
// All fields have defaults and validation rules so the scheduler can operate
// safely even with invalid or missing configuration (fail-open strategy).
type Config struct {
	// CronSchedule is the cron expression for the daily digest batch.
	// Format: "minute hour day month weekday"
	// Default: "0 20 * * *" (every day at 20:00)
	CronSchedule string

	// Timezone is the IANA timezone name the schedule is evaluated in.
	// Default: "UTC"
	Timezone string

	// MaxConcurrent bounds how many recipients are orchestrated at once
	// within one batch. Range: 1-50. Default: 5
	MaxConcurrent int

	// BatchTimeout bounds one full batch over all active recipients.
	// Default: 15 minutes
	BatchTimeout time.Duration

	// HealthPort is the port for the health check HTTP server.
	// Range: 1024-65535. Default: 9091
	HealthPort int
}

// DefaultConfig returns production-ready defaults: one daily batch at
// 20:00 UTC, five concurrent recipients, 15-minute batch bound.
func DefaultConfig() Config {
	return Config{
		CronSchedule:  "0 20 * * *",
		Timezone:      "UTC",
		MaxConcurrent: 5,
		BatchTimeout:  15 * time.Minute,
		HealthPort:    9091,
	}
}

// Validate checks all fields using the reusable validators from
// internal/pkg/config and returns the aggregated failures.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("max concurrent: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.BatchTimeout); err != nil {
		errs = append(errs, fmt.Errorf("batch timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads scheduler configuration from environment
// variables with validation and automatic fallback to defaults on failure.
// It never returns an invalid configuration: a malformed value is replaced
// by its default, logged, and counted in the metrics.
//
// Environment variables:
//   - DIGEST_CRON_SCHEDULE: Cron expression (default: "0 20 * * *")
//   - SCHEDULER_TIMEZONE: IANA timezone name (default: "UTC")
//   - DIGEST_MAX_CONCURRENT: Integer 1-50 (default: 5)
//   - DIGEST_BATCH_TIMEOUT: Duration string, e.g. "15m" (default: 15 minutes)
//   - SCHEDULER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *Metrics) *Config {
	cfg := DefaultConfig()

	applyFallback := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("DIGEST_CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	applyFallback("cron_schedule", result)

	result = config.LoadEnvWithFallback("SCHEDULER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	applyFallback("timezone", result)

	result = config.LoadEnvInt("DIGEST_MAX_CONCURRENT", cfg.MaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.MaxConcurrent = result.Value.(int)
	applyFallback("max_concurrent", result)

	result = config.LoadEnvDuration("DIGEST_BATCH_TIMEOUT", cfg.BatchTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.BatchTimeout = result.Value.(time.Duration)
	applyFallback("batch_timeout", result)

	result = config.LoadEnvInt("SCHEDULER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	applyFallback("health_port", result)

	metrics.RecordLoadTimestamp()
	return &cfg
}
