// Command diagnose_feeds probes the article feeds the digest pipeline reads
// and prints a JSON report per category. Run it when a category keeps coming
// back empty to tell upstream outages apart from configuration mistakes.
//
// Usage:
//
//	go run scripts/diagnose_feeds.go [category ...]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
)

const feedURLTemplate = "https://dev.to/feed/tag/%s"

var defaultCategories = []string{"go", "python", "rust", "typescript", "devops"}

// FeedDiagnostic is the per-category probe result.
type FeedDiagnostic struct {
	Category     string `json:"category"`
	URL          string `json:"url"`
	Status       string `json:"status"` // "OK", "FETCH_ERROR", "EMPTY"
	ItemCount    int    `json:"item_count"`
	LatestDate   string `json:"latest_date,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

func main() {
	categories := os.Args[1:]
	if len(categories) == 0 {
		categories = defaultCategories
	}

	parser := gofeed.NewParser()
	parser.UserAgent = "dev-digest-diagnostics/1.0"

	results := make([]FeedDiagnostic, 0, len(categories))
	for _, category := range categories {
		results = append(results, probe(parser, category))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, r := range results {
		if r.Status != "OK" {
			os.Exit(1)
		}
	}
}

func probe(parser *gofeed.Parser, category string) FeedDiagnostic {
	d := FeedDiagnostic{
		Category: category,
		URL:      fmt.Sprintf(feedURLTemplate, category),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	start := time.Now()
	feed, err := parser.ParseURLWithContext(d.URL, ctx)
	d.ResponseTime = time.Since(start).Milliseconds()

	if err != nil {
		d.Status = "FETCH_ERROR"
		d.ErrorMessage = err.Error()
		return d
	}

	d.ItemCount = len(feed.Items)
	if d.ItemCount == 0 {
		d.Status = "EMPTY"
		return d
	}

	d.Status = "OK"
	var latest time.Time
	for _, item := range feed.Items {
		when := item.PublishedParsed
		if when == nil {
			when = item.UpdatedParsed
		}
		if when != nil && when.After(latest) {
			latest = *when
		}
	}
	if !latest.IsZero() {
		d.LatestDate = latest.Format(time.RFC3339)
	}
	return d
}
