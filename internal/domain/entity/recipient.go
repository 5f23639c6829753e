package entity

import (
	"fmt"
	"regexp"
	"time"
)

// Recipient represents a registered digest recipient.
// Identity and the active flag are owned by the recipient store; the
// digest pipeline only reads them.
type Recipient struct {
	ID        int64
	Name      string
	Email     string
	Active    bool
	Timezone  string
	CreatedAt time.Time
}

// deliveryTimePattern matches 24h HH:MM between 00:00 and 23:59.
var deliveryTimePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Preferences is the per-recipient selector set controlling which upstream
// sources are queried. Lists may be empty; an empty list means the adapter
// for that list is skipped, not that the preferences are invalid.
type Preferences struct {
	RecipientID  int64
	Repositories []string // "owner/repo" identifiers for issue/PR feeds
	Languages    []string // language filters for trending discovery
	Categories   []string // content feed categories
	DeliveryTime string   // "HH:MM", 24h
	Timezone     string   // IANA timezone name
}

// Validate checks the preference fields that the digest pipeline depends on.
// Selector lists are intentionally unconstrained: empty lists are valid.
func (p *Preferences) Validate() error {
	if p.RecipientID <= 0 {
		return &ValidationError{Field: "recipient_id", Message: "must be positive"}
	}
	if p.DeliveryTime != "" && !deliveryTimePattern.MatchString(p.DeliveryTime) {
		return &ValidationError{
			Field:   "delivery_time",
			Message: fmt.Sprintf("%q does not match HH:MM", p.DeliveryTime),
		}
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return &ValidationError{
				Field:   "timezone",
				Message: fmt.Sprintf("unknown timezone %q", p.Timezone),
			}
		}
	}
	return nil
}

// Empty reports whether every selector list is empty, i.e. an aggregation
// run for these preferences would make no upstream calls at all.
func (p *Preferences) Empty() bool {
	return len(p.Repositories) == 0 && len(p.Languages) == 0 && len(p.Categories) == 0
}
