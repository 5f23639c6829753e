package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"dev-digest/internal/domain/entity"
	"dev-digest/internal/infra/adapter/persistence/postgres"
)

func TestHistoryRepo_Append(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	sentAt := time.Date(2026, 8, 29, 20, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO digest_history`)).
		WithArgs(int64(1), sentAt, "sent", 5, "", "daily").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := postgres.NewHistoryRepo(db)
	err := repo.Append(context.Background(), &entity.DeliveryOutcome{
		RecipientID: 1,
		SentAt:      sentAt,
		Status:      entity.StatusSent,
		ItemCount:   5,
		Kind:        entity.KindDaily,
	})
	if err != nil {
		t.Fatalf("Append err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestHistoryRepo_Append_FailedWithError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	sentAt := time.Date(2026, 8, 29, 20, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO digest_history`)).
		WithArgs(int64(2), sentAt, "failed", 3, "smtp: connection refused", "daily").
		WillReturnResult(sqlmock.NewResult(2, 1))

	repo := postgres.NewHistoryRepo(db)
	err := repo.Append(context.Background(), &entity.DeliveryOutcome{
		RecipientID: 2,
		SentAt:      sentAt,
		Status:      entity.StatusFailed,
		ItemCount:   3,
		Error:       "smtp: connection refused",
		Kind:        entity.KindDaily,
	})
	if err != nil {
		t.Fatalf("Append err=%v", err)
	}
}

func TestHistoryRepo_ListByRecipient(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "recipient_id", "sent_at", "status", "items_count", "error_message", "digest_type",
	}).
		AddRow(int64(2), int64(1), now, "sent", 4, "", "daily").
		AddRow(int64(1), int64(1), now.Add(-24*time.Hour), "skipped", 0, "", "daily")

	mock.ExpectQuery(`FROM digest_history`).
		WithArgs(int64(1), 10).
		WillReturnRows(rows)

	repo := postgres.NewHistoryRepo(db)
	got, err := repo.ListByRecipient(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ListByRecipient err=%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(got))
	}
	if got[0].Status != entity.StatusSent || got[1].Status != entity.StatusSkipped {
		t.Errorf("unexpected statuses: %s, %s", got[0].Status, got[1].Status)
	}
}

func TestHistoryRepo_StatsSince(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	midnight := time.Now().Truncate(24 * time.Hour)
	mock.ExpectQuery(`FROM digest_history`).
		WithArgs(midnight).
		WillReturnRows(sqlmock.NewRows([]string{"sent", "failed"}).AddRow(7, 2))

	repo := postgres.NewHistoryRepo(db)
	stats, err := repo.StatsSince(context.Background(), midnight)
	if err != nil {
		t.Fatalf("StatsSince err=%v", err)
	}
	if stats.Sent != 7 || stats.Failed != 2 {
		t.Fatalf("StatsSince = %+v, want {7 2}", stats)
	}
}

func TestHistoryRepo_LastSentAt_Empty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM digest_history`).
		WillReturnRows(sqlmock.NewRows([]string{"sent_at"}))

	repo := postgres.NewHistoryRepo(db)
	got, err := repo.LastSentAt(context.Background())
	if err != nil {
		t.Fatalf("LastSentAt err=%v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
