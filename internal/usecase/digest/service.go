package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dev-digest/internal/domain/entity"
	"dev-digest/internal/observability/logging"
	"dev-digest/internal/observability/metrics"
	"dev-digest/internal/observability/tracing"
	"dev-digest/internal/repository"
)

// RunStatus is the caller-visible result of one orchestration run.
type RunStatus string

const (
	RunSent    RunStatus = "sent"
	RunSkipped RunStatus = "skipped"
	RunFailed  RunStatus = "failed"

	// RunNotSent marks the early exits: absent or inactive recipient,
	// absent preferences. No history record is written for these.
	RunNotSent RunStatus = "not_sent"
)

// Composer renders a payload into a deliverable subject and body.
type Composer interface {
	Compose(recipient *entity.Recipient, payload entity.Payload, kind entity.DigestKind) (subject, body string)
}

// DeliveryChannel sends one composed digest to an address.
type DeliveryChannel interface {
	Send(ctx context.Context, address, subject, body string) error
}

// Service is the per-recipient digest orchestrator. It is safe to invoke
// concurrently for different recipients; runs share no mutable state except
// the circuit breakers inside the aggregator.
type Service struct {
	Recipients repository.RecipientRepository
	History    repository.HistoryRepository
	Aggregator *Aggregator
	Composer   Composer
	Channel    DeliveryChannel

	logger *slog.Logger
}

// NewService creates a digest Service with the provided collaborators.
func NewService(
	recipients repository.RecipientRepository,
	history repository.HistoryRepository,
	aggregator *Aggregator,
	composer Composer,
	channel DeliveryChannel,
) *Service {
	return &Service{
		Recipients: recipients,
		History:    history,
		Aggregator: aggregator,
		Composer:   composer,
		Channel:    channel,
		logger:     slog.Default().With(slog.String("component", "digest")),
	}
}

// Run executes one orchestration run for the recipient, terminal on the
// first branch reached:
//
//  1. Absent or inactive recipient: not_sent, no history record.
//  2. Absent preferences: not_sent, no history record.
//  3. Aggregate all categories into one payload.
//  4. Welcome digests always deliver; daily digests deliver only when the
//     payload is non-empty, otherwise the run is recorded as skipped.
//  5. Exactly one history record is written for every run that got past
//     step 2, whatever happened in between. Failures inside aggregation,
//     composition, or delivery, panics included, become a failed record
//     and never propagate to the caller.
func (s *Service) Run(ctx context.Context, recipientID int64, kind entity.DigestKind) (RunStatus, error) {
	start := time.Now()
	ctx = logging.ContextWithRunID(ctx, uuid.NewString())
	logger := logging.WithRunID(ctx, s.logger).With(
		slog.Int64("recipient_id", recipientID),
		slog.String("kind", string(kind)))

	ctx, span := tracing.GetTracer().Start(ctx, "digest.run")
	defer span.End()

	recipient, err := s.Recipients.Get(ctx, recipientID)
	if err != nil {
		return RunNotSent, fmt.Errorf("load recipient %d: %w", recipientID, err)
	}
	if recipient == nil || !recipient.Active {
		logger.Info("recipient absent or inactive, nothing to do")
		return RunNotSent, nil
	}

	prefs, err := s.Recipients.GetPreferences(ctx, recipientID)
	if err != nil {
		return RunNotSent, fmt.Errorf("load preferences for %d: %w", recipientID, err)
	}
	if prefs == nil {
		logger.Info("preferences absent, nothing to do")
		return RunNotSent, nil
	}

	outcome := s.execute(ctx, logger, recipient, prefs, kind)

	if err := s.History.Append(ctx, outcome); err != nil {
		// The run itself already finished; losing the audit row is logged
		// but does not change the outcome.
		logger.Error("failed to append delivery outcome",
			slog.String("status", string(outcome.Status)),
			slog.Any("error", err))
	}

	metrics.RecordDigestRun(string(outcome.Status), string(kind), time.Since(start))

	switch outcome.Status {
	case entity.StatusSent:
		return RunSent, nil
	case entity.StatusSkipped:
		return RunSkipped, nil
	default:
		return RunFailed, errors.New(outcome.Error)
	}
}

// execute covers aggregation through delivery and always returns exactly one
// outcome. The deferred recover converts panics into a failed outcome so the
// caller's batch loop survives anything a source or channel does.
func (s *Service) execute(
	ctx context.Context,
	logger *slog.Logger,
	recipient *entity.Recipient,
	prefs *entity.Preferences,
	kind entity.DigestKind,
) (outcome *entity.DeliveryOutcome) {
	outcome = &entity.DeliveryOutcome{
		RecipientID: recipient.ID,
		SentAt:      time.Now().UTC(),
		Kind:        kind,
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("orchestration panicked",
				slog.Any("panic", r))
			outcome.Status = entity.StatusFailed
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	payload, err := s.Aggregator.Aggregate(ctx, prefs)
	if err != nil {
		logger.Error("aggregation failed",
			slog.Any("error", err))
		outcome.Status = entity.StatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	total := payload.Total()
	outcome.ItemCount = total

	if kind != entity.KindWelcome && total == 0 {
		logger.Info("empty payload, skipping delivery")
		outcome.Status = entity.StatusSkipped
		return outcome
	}

	subject, body := s.Composer.Compose(recipient, payload, kind)

	sendStart := time.Now()
	if err := s.Channel.Send(ctx, recipient.Email, subject, body); err != nil {
		metrics.RecordDelivery(false, time.Since(sendStart))
		logger.Error("delivery failed",
			slog.Int("items", total),
			slog.Any("error", err))
		outcome.Status = entity.StatusFailed
		outcome.Error = err.Error()
		return outcome
	}
	metrics.RecordDelivery(true, time.Since(sendStart))

	logger.Info("digest delivered",
		slog.Int("items", total))
	outcome.Status = entity.StatusSent
	return outcome
}
