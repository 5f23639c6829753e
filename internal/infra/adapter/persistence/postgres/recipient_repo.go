package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"dev-digest/internal/domain/entity"
	"dev-digest/internal/repository"
)

type RecipientRepo struct{ db *sql.DB }

func NewRecipientRepo(db *sql.DB) repository.RecipientRepository {
	return &RecipientRepo{db: db}
}

func (repo *RecipientRepo) Get(ctx context.Context, id int64) (*entity.Recipient, error) {
	const query = `
SELECT id, name, email, active, timezone, created_at
FROM recipients
WHERE id = $1
LIMIT 1`
	var r entity.Recipient
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.Name, &r.Email, &r.Active, &r.Timezone, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &r, nil
}

func (repo *RecipientRepo) ListActive(ctx context.Context) ([]*entity.Recipient, error) {
	const query = `
SELECT id, name, email, active, timezone, created_at
FROM recipients
WHERE active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	recipients := make([]*entity.Recipient, 0, 50)
	for rows.Next() {
		var r entity.Recipient
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Active, &r.Timezone, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListActive: %w", err)
		}
		recipients = append(recipients, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	return recipients, nil
}

func (repo *RecipientRepo) GetPreferences(ctx context.Context, recipientID int64) (*entity.Preferences, error) {
	const query = `
SELECT recipient_id, repositories, languages, categories, delivery_time, timezone
FROM preferences
WHERE recipient_id = $1
LIMIT 1`
	var (
		prefs        entity.Preferences
		repositories []byte
		languages    []byte
		categories   []byte
	)
	err := repo.db.QueryRowContext(ctx, query, recipientID).Scan(
		&prefs.RecipientID, &repositories, &languages, &categories,
		&prefs.DeliveryTime, &prefs.Timezone,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetPreferences: %w", err)
	}

	// Selector lists are stored as JSON-encoded string arrays to preserve order.
	if prefs.Repositories, err = decodeList(repositories); err != nil {
		return nil, fmt.Errorf("GetPreferences: repositories: %w", err)
	}
	if prefs.Languages, err = decodeList(languages); err != nil {
		return nil, fmt.Errorf("GetPreferences: languages: %w", err)
	}
	if prefs.Categories, err = decodeList(categories); err != nil {
		return nil, fmt.Errorf("GetPreferences: categories: %w", err)
	}
	return &prefs, nil
}

func (repo *RecipientRepo) Counts(ctx context.Context) (int, int, error) {
	const query = `
SELECT COUNT(*), COUNT(*) FILTER (WHERE active)
FROM recipients`
	var total, active int
	if err := repo.db.QueryRowContext(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("Counts: %w", err)
	}
	return total, active, nil
}

// decodeList unmarshals a JSON string array column. NULL and empty columns
// decode to an empty list.
func decodeList(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
