package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dev-digest/internal/domain/entity"
	"dev-digest/internal/repository"
)

type HistoryRepo struct{ db *sql.DB }

func NewHistoryRepo(db *sql.DB) repository.HistoryRepository {
	return &HistoryRepo{db: db}
}

func (repo *HistoryRepo) Append(ctx context.Context, outcome *entity.DeliveryOutcome) error {
	const query = `
INSERT INTO digest_history (recipient_id, sent_at, status, items_count, error_message, digest_type)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`
	sentAt := outcome.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	_, err := repo.db.ExecContext(ctx, query,
		outcome.RecipientID, sentAt, string(outcome.Status),
		outcome.ItemCount, outcome.Error, string(outcome.Kind),
	)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (repo *HistoryRepo) ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]*entity.DeliveryOutcome, error) {
	const query = `
SELECT id, recipient_id, sent_at, status, items_count, COALESCE(error_message, ''), digest_type
FROM digest_history
WHERE recipient_id = $1
ORDER BY sent_at DESC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListByRecipient: %w", err)
	}
	defer func() { _ = rows.Close() }()

	outcomes := make([]*entity.DeliveryOutcome, 0, limit)
	for rows.Next() {
		var o entity.DeliveryOutcome
		var status, kind string
		if err := rows.Scan(&o.ID, &o.RecipientID, &o.SentAt, &status, &o.ItemCount, &o.Error, &kind); err != nil {
			return nil, fmt.Errorf("ListByRecipient: %w", err)
		}
		o.Status = entity.OutcomeStatus(status)
		o.Kind = entity.DigestKind(kind)
		outcomes = append(outcomes, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRecipient: %w", err)
	}
	return outcomes, nil
}

func (repo *HistoryRepo) StatsSince(ctx context.Context, t time.Time) (repository.DayStats, error) {
	const query = `
SELECT
  COUNT(*) FILTER (WHERE status = 'sent'),
  COUNT(*) FILTER (WHERE status = 'failed')
FROM digest_history
WHERE sent_at >= $1`
	var stats repository.DayStats
	if err := repo.db.QueryRowContext(ctx, query, t).Scan(&stats.Sent, &stats.Failed); err != nil {
		return repository.DayStats{}, fmt.Errorf("StatsSince: %w", err)
	}
	return stats, nil
}

func (repo *HistoryRepo) LastSentAt(ctx context.Context) (*time.Time, error) {
	const query = `
SELECT sent_at
FROM digest_history
WHERE status = 'sent'
ORDER BY sent_at DESC
LIMIT 1`
	var t time.Time
	err := repo.db.QueryRowContext(ctx, query).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LastSentAt: %w", err)
	}
	return &t, nil
}
