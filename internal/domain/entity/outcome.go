package entity

import "time"

// OutcomeStatus is the terminal state of one orchestration run.
type OutcomeStatus string

const (
	StatusSent    OutcomeStatus = "sent"
	StatusFailed  OutcomeStatus = "failed"
	StatusSkipped OutcomeStatus = "skipped"
)

// DigestKind distinguishes the scheduled daily digest from the welcome
// digest sent right after signup. A welcome digest is always delivered,
// even when it contains zero items.
type DigestKind string

const (
	KindDaily   DigestKind = "daily"
	KindWelcome DigestKind = "welcome"
)

// DeliveryOutcome is the append-only audit record of one orchestration run.
// Exactly one outcome is produced per run that reaches the send/skip
// decision; it is handed to the history log and never mutated afterwards.
type DeliveryOutcome struct {
	ID          int64
	RecipientID int64
	SentAt      time.Time
	Status      OutcomeStatus
	ItemCount   int
	Error       string // empty unless Status is failed
	Kind        DigestKind
}
