package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"dev-digest/internal/domain/entity"
	"dev-digest/internal/observability/metrics"
	"dev-digest/internal/observability/tracing"
	"dev-digest/internal/resilience/circuitbreaker"
	"dev-digest/internal/resilience/retry"
)

// SourceAdapter fetches one category's items for a recipient's preference
// set. Implementations live in internal/infra/source.
type SourceAdapter interface {
	// Category names the payload bucket this adapter fills.
	Category() entity.Category

	// Source names the upstream system. Adapters reporting the same source
	// share one circuit breaker.
	Source() string

	// Applicable reports whether the preference set selects anything this
	// adapter can fetch. Inapplicable adapters are skipped entirely, so a
	// recipient without the relevant selectors neither calls upstream nor
	// touches the source's shared breaker state.
	Applicable(prefs *entity.Preferences) bool

	// Fetch returns normalized items for the preference set. An empty
	// selector list yields an empty result without upstream calls.
	Fetch(ctx context.Context, prefs *entity.Preferences) ([]entity.Item, error)
}

// Aggregator fans out to all source adapters and merges their results into
// one payload. Each adapter call runs behind its source's shared circuit
// breaker with retry inside, so repeated upstream failures trip the breaker
// once instead of once per retry loop observer.
type Aggregator struct {
	adapters []SourceAdapter
	breakers *circuitbreaker.Registry
	retryCfg retry.Config
	logger   *slog.Logger
}

// NewAggregator creates an aggregator over the given adapters. The breaker
// registry is shared process-wide so concurrent runs contend on the same
// per-source breaker state. Production wiring passes
// retry.SourceFetchConfig().
func NewAggregator(adapters []SourceAdapter, breakers *circuitbreaker.Registry, retryCfg retry.Config) (*Aggregator, error) {
	if len(adapters) == 0 {
		return nil, ErrNoAdapters
	}
	return &Aggregator{
		adapters: adapters,
		breakers: breakers,
		retryCfg: retryCfg,
		logger:   slog.Default().With(slog.String("component", "aggregator")),
	}, nil
}

// Aggregate builds the digest payload for one preference set. Adapter
// failures degrade to an empty category and are logged; Aggregate itself
// fails only when the preference set is unusable. Every registered category
// is present in the returned payload, empty or not.
func (a *Aggregator) Aggregate(ctx context.Context, prefs *entity.Preferences) (entity.Payload, error) {
	if prefs == nil {
		return nil, ErrInvalidPreferences
	}
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	ctx, span := tracing.GetTracer().Start(ctx, "digest.aggregate")
	defer span.End()

	payload := make(entity.Payload, len(a.adapters))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range a.adapters {
		g.Go(func() error {
			items := a.fetchCategory(gctx, adapter, prefs)
			mu.Lock()
			payload[adapter.Category()] = items
			mu.Unlock()
			// Failures never cross the aggregator boundary.
			return nil
		})
	}
	_ = g.Wait()

	return payload, nil
}

// fetchCategory runs one adapter behind retry and its source's breaker.
// A terminal failure, breaker rejection included, yields an empty category.
// Inapplicable adapters are skipped before the breaker: their trivial
// success must not reset the failure count another recipient's run built up.
func (a *Aggregator) fetchCategory(ctx context.Context, adapter SourceAdapter, prefs *entity.Preferences) []entity.Item {
	if !adapter.Applicable(prefs) {
		return nil
	}

	category := string(adapter.Category())
	breaker := a.breakers.Get(adapter.Source())
	start := time.Now()

	var items []entity.Item
	_, err := breaker.Execute(func() (interface{}, error) {
		return nil, retry.WithBackoff(ctx, a.retryCfg, func() error {
			var fetchErr error
			items, fetchErr = adapter.Fetch(ctx, prefs)
			return fetchErr
		})
	})

	metrics.RecordSourceFetch(category, time.Since(start))
	metrics.RecordBreakerState(adapter.Source(), breakerStateValue(breaker.State()))

	if err != nil {
		cause := "error"
		switch {
		case circuitbreaker.IsOpenError(err):
			cause = "breaker_open"
		case errors.Is(err, retry.ErrExhausted):
			cause = "exhausted"
		}
		metrics.RecordSourceFetchError(category, cause)
		a.logger.Warn("category fetch failed, continuing with empty category",
			slog.String("category", category),
			slog.String("source", adapter.Source()),
			slog.String("cause", cause),
			slog.Any("error", err))
		return nil
	}

	metrics.RecordItemsAggregated(category, len(items))
	return items
}

func breakerStateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
