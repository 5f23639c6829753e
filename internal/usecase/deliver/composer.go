// Package deliver renders digest payloads into deliverable messages.
package deliver

import (
	"fmt"
	"strings"
	"time"

	"dev-digest/internal/domain/entity"
)

// sectionItemLimit caps how many items one category section renders. The
// payload may hold more; the email stays scannable.
const sectionItemLimit = 5

var sectionTitles = map[entity.Category]string{
	entity.CategoryIssues:   "GITHUB ISSUES",
	entity.CategoryPulls:    "PULL REQUESTS",
	entity.CategoryTrending: "TRENDING REPOSITORIES",
	entity.CategoryArticles: "ARTICLES",
}

// PlainTextComposer renders digests as plain text email bodies, one section
// per non-empty category in presentation order.
type PlainTextComposer struct {
	// SettingsURL is appended to the footer so recipients can manage their
	// preferences. Optional.
	SettingsURL string

	now func() time.Time
}

// NewPlainTextComposer creates a composer. settingsURL may be empty.
func NewPlainTextComposer(settingsURL string) *PlainTextComposer {
	return &PlainTextComposer{
		SettingsURL: settingsURL,
		now:         time.Now,
	}
}

// Compose implements digest.Composer.
func (c *PlainTextComposer) Compose(recipient *entity.Recipient, payload entity.Payload, kind entity.DigestKind) (string, string) {
	today := c.now().UTC()

	subject := fmt.Sprintf("Your Dev Digest - %s", today.Format("January 2, 2006"))
	if kind == entity.KindWelcome {
		subject = "Welcome to Dev Digest"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", recipient.Name)
	if kind == entity.KindWelcome {
		b.WriteString("Welcome aboard! Here's a first look at the updates your digest will cover:\n\n")
	} else {
		fmt.Fprintf(&b, "Here's your daily development digest for %s:\n\n", today.Format("January 2, 2006"))
	}

	empty := true
	for _, category := range entity.Categories() {
		items := payload[category]
		if len(items) == 0 {
			continue
		}
		empty = false
		c.writeSection(&b, category, items)
	}
	if empty {
		b.WriteString("No new items matched your preferences today.\n\n")
	}

	fmt.Fprintf(&b, "Generated at: %s UTC\n", today.Format("2006-01-02 15:04:05"))
	b.WriteString("\n---\nDev Digest - Your personalized coding updates\n")
	if c.SettingsURL != "" {
		fmt.Fprintf(&b, "To unsubscribe or update preferences, visit: %s\n", c.SettingsURL)
	}

	return subject, b.String()
}

func (c *PlainTextComposer) writeSection(b *strings.Builder, category entity.Category, items []entity.Item) {
	b.WriteString(sectionTitles[category] + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")

	limit := len(items)
	if limit > sectionItemLimit {
		limit = sectionItemLimit
	}
	for _, item := range items[:limit] {
		switch category {
		case entity.CategoryTrending:
			fmt.Fprintf(b, "- %s (%s)\n", item.Title, item.Language)
			fmt.Fprintf(b, "  Stars: %d\n", item.Stars)
			if item.Description != "" {
				fmt.Fprintf(b, "  %s\n", item.Description)
			}
			fmt.Fprintf(b, "  URL: %s\n\n", item.URL)
		default:
			fmt.Fprintf(b, "- %s\n", item.Title)
			if item.Origin != "" {
				fmt.Fprintf(b, "  From: %s\n", item.Origin)
			}
			if item.Author != "" {
				fmt.Fprintf(b, "  Author: %s\n", item.Author)
			}
			fmt.Fprintf(b, "  URL: %s\n\n", item.URL)
		}
	}
}
