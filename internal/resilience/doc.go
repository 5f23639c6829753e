// Package resilience provides reliability and fault tolerance patterns for
// the digest pipeline. It includes circuit breakers and retry logic that
// isolate upstream source failures from each other and from the scheduler.
//
// The package supports:
//   - Circuit breakers shared process-wide per upstream source
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := registry.Get("github")
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return nil, retry.WithBackoff(ctx, retry.SourceFetchConfig(), fetch)
//	})
package resilience
