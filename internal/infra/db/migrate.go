package db

import (
	"database/sql"
	_ "embed"
)

//go:embed seeds/recipients.sql
var seedRecipientsSQL string

// MigrateUp creates the digest schema. Statements are idempotent so the
// worker can run them at every startup.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS recipients (
    id         SERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL UNIQUE,
    active     BOOLEAN DEFAULT TRUE,
    timezone   VARCHAR(64) NOT NULL DEFAULT 'UTC',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS preferences (
    recipient_id  INTEGER PRIMARY KEY REFERENCES recipients(id) ON DELETE CASCADE,
    repositories  JSONB NOT NULL DEFAULT '[]',
    languages     JSONB NOT NULL DEFAULT '[]',
    categories    JSONB NOT NULL DEFAULT '[]',
    delivery_time VARCHAR(5) NOT NULL DEFAULT '20:00',
    timezone      VARCHAR(64) NOT NULL DEFAULT 'UTC'
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS digest_history (
    id            SERIAL PRIMARY KEY,
    recipient_id  INTEGER NOT NULL REFERENCES recipients(id) ON DELETE CASCADE,
    sent_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    status        VARCHAR(20) NOT NULL,
    items_count   INTEGER NOT NULL DEFAULT 0,
    error_message TEXT,
    digest_type   VARCHAR(20) NOT NULL DEFAULT 'daily'
)`); err != nil {
		return err
	}

	indexes := []string{
		// History queries filter by recipient and order by sent_at DESC.
		`CREATE INDEX IF NOT EXISTS idx_digest_history_recipient_sent
		    ON digest_history(recipient_id, sent_at DESC)`,
		// Daily stats scan by sent_at and status.
		`CREATE INDEX IF NOT EXISTS idx_digest_history_sent_at
		    ON digest_history(sent_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_history_status
		    ON digest_history(status)`,
		// Batch enumeration filters on the active flag.
		`CREATE INDEX IF NOT EXISTS idx_recipients_active
		    ON recipients(active) WHERE active = TRUE`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// Status and kind are closed sets; enforce them at the schema level.
	// Errors are ignored when the constraints already exist.
	_, _ = db.Exec(`
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint
        WHERE conname = 'chk_history_status'
    ) THEN
        ALTER TABLE digest_history ADD CONSTRAINT chk_history_status
        CHECK (status IN ('sent', 'failed', 'skipped'));
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint
        WHERE conname = 'chk_history_digest_type'
    ) THEN
        ALTER TABLE digest_history ADD CONSTRAINT chk_history_digest_type
        CHECK (digest_type IN ('daily', 'welcome'));
    END IF;
END $$;
`)

	// Seed data skips duplicates via ON CONFLICT.
	if _, err := db.Exec(seedRecipientsSQL); err != nil {
		return err
	}

	return nil
}
