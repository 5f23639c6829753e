// Package retry provides retry logic with exponential backoff and jitter.
// It helps handle transient upstream failures gracefully by automatically
// retrying failed operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// ErrExhausted marks an error returned after the retry budget was spent.
// Callers distinguish it from single-shot failures with errors.Is; the last
// attempt's error stays reachable through the same chain.
var ErrExhausted = errors.New("retries exhausted")

// Config holds the configuration for retry logic.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	// A failing operation is therefore invoked MaxRetries+1 times in total.
	MaxRetries int

	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration

	// JitterFraction is the fraction of delay to add as random jitter (0.0 to 1.0)
	JitterFraction float64
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		BaseDelay:      1 * time.Second,
		MaxDelay:       60 * time.Second,
		JitterFraction: 0.1,
	}
}

// SourceFetchConfig returns configuration used for upstream source calls.
// Same shape as the default but kept separate so the two can diverge.
func SourceFetchConfig() Config {
	return Config{
		MaxRetries:     3,
		BaseDelay:      1 * time.Second,
		MaxDelay:       60 * time.Second,
		JitterFraction: 0.1,
	}
}

// DBConfig returns configuration optimized for database operations.
// Fast retry for transient connection issues.
func DBConfig() Config {
	return Config{
		MaxRetries:     2,
		BaseDelay:      100 * time.Millisecond,
		MaxDelay:       1 * time.Second,
		JitterFraction: 0.1,
	}
}

// WithBackoff executes the given function with retry logic and exponential
// backoff. The delay before retry n is min(BaseDelay*2^n, MaxDelay) plus
// jitter. It returns nil if the function succeeds, or an error wrapping the
// last attempt's failure once retries are exhausted. Errors are never
// swallowed; no backoff state survives between invocations.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		lastErr = fn()

		if lastErr == nil {
			if attempt > 0 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", attempt+1))
			}
			return nil
		}

		if !IsRetryable(lastErr) {
			slog.Warn("non-retryable error, aborting",
				slog.Int("attempt", attempt+1),
				slog.Any("error", lastErr))
			return lastErr
		}

		// Don't wait after the last attempt
		if attempt == cfg.MaxRetries {
			break
		}

		delay := backoffDelay(cfg, attempt)
		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_retries", cfg.MaxRetries),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		select {
		case <-time.After(delay):
			// Continue to next attempt
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}

	return fmt.Errorf("%w (%d): %w", ErrExhausted, cfg.MaxRetries, lastErr)
}

// backoffDelay computes the exponential delay for the given attempt with
// random jitter added to prevent thundering herd.
func backoffDelay(cfg Config, attempt int) time.Duration {
	delay := cfg.BaseDelay << uint(attempt)
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.JitterFraction <= 0 {
		return delay
	}
	jitterFraction := cfg.JitterFraction
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- math/rand is acceptable for backoff jitter;
	// cryptographic randomness is not required here.
	jitter := time.Duration(rand.Float64() * float64(delay) * jitterFraction)
	return delay + jitter
}

// IsRetryable determines if an error is worth retrying. Unknown errors are
// treated as transient; only context cancellation and definite client errors
// abort the retry loop early.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Network errors (timeout)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Syscall errors
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	// HTTP status codes
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		// 5xx server errors are retryable
		if httpErr.StatusCode >= 500 && httpErr.StatusCode < 600 {
			return true
		}
		// 429 Too Many Requests and 408 Request Timeout are retryable
		if httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode == http.StatusRequestTimeout {
			return true
		}
		// Remaining 4xx client errors will fail identically on retry
		return false
	}

	return true
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
