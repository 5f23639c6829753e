package repository

import (
	"context"

	"dev-digest/internal/domain/entity"
)

// RecipientRepository is the read-side interface over the external recipient
// store. The digest pipeline never creates or mutates recipients.
type RecipientRepository interface {
	// Get returns the recipient with the given id, or nil if absent.
	Get(ctx context.Context, id int64) (*entity.Recipient, error)

	// ListActive returns all recipients with the active flag set.
	ListActive(ctx context.Context) ([]*entity.Recipient, error)

	// GetPreferences returns the recipient's preference set, or nil if
	// none has been stored.
	GetPreferences(ctx context.Context, recipientID int64) (*entity.Preferences, error)

	// Counts returns total and active recipient counts for health reporting.
	Counts(ctx context.Context) (total int, active int, err error)
}
