package entity

import "time"

// Category identifies one kind of digest content. The set is closed: every
// category has exactly one source adapter registered at startup.
type Category string

const (
	CategoryIssues   Category = "github_issues"
	CategoryPulls    Category = "github_pulls"
	CategoryTrending Category = "trending_repos"
	CategoryArticles Category = "articles"
)

// Categories returns all digest categories in presentation order.
func Categories() []Category {
	return []Category{CategoryIssues, CategoryPulls, CategoryTrending, CategoryArticles}
}

// Item is one normalized unit of digest content. Adapters produce items
// already normalized; items are immutable after that point.
type Item struct {
	Category    Category
	Title       string
	Origin      string // repository or feed name the item came from
	URL         string
	Author      string
	PublishedAt time.Time

	// Trending-only enrichment
	Language    string
	Stars       int
	Description string
}

// Payload maps each category to its ordered item sequence for one
// orchestration run. Order within a category is the adapter's return order
// (newest or highest-signal first). A payload is built fresh per run and
// never persisted.
type Payload map[Category][]Item

// Total returns the item count across all categories.
func (p Payload) Total() int {
	n := 0
	for _, items := range p {
		n += len(items)
	}
	return n
}
