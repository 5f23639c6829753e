package repository

import (
	"context"
	"time"

	"dev-digest/internal/domain/entity"
)

// DayStats summarizes today's delivery outcomes for health reporting.
type DayStats struct {
	Sent   int
	Failed int
}

// HistoryRepository is the append-only audit trail of delivery outcomes.
// Rows are never updated or deleted by the pipeline.
type HistoryRepository interface {
	// Append stores one delivery outcome. Called exactly once per
	// orchestration run that reaches the send/skip decision.
	Append(ctx context.Context, outcome *entity.DeliveryOutcome) error

	// ListByRecipient returns the most recent outcomes for one recipient,
	// newest first.
	ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]*entity.DeliveryOutcome, error)

	// StatsSince counts sent and failed outcomes recorded at or after t.
	StatsSince(ctx context.Context, t time.Time) (DayStats, error)

	// LastSentAt returns the timestamp of the most recent successful
	// delivery, or nil if none exists.
	LastSentAt(ctx context.Context) (*time.Time, error)
}
