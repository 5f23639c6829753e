package source

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"dev-digest/internal/domain/entity"
)

// ArticleAdapter pulls recent articles from per-category content feeds
// (RSS/Atom). The feed URL is a template expanded with the category slug.
type ArticleAdapter struct {
	parser *gofeed.Parser
	cache  *ItemCache
	cfg    Config
	logger *slog.Logger
}

// NewArticleAdapter constructs the article adapter. The gofeed parser keeps
// its own HTTP client; the shared timeout is applied through the fetch
// context.
func NewArticleAdapter(cache *ItemCache, cfg Config) *ArticleAdapter {
	parser := gofeed.NewParser()
	parser.UserAgent = "dev-digest/1.0"
	return &ArticleAdapter{
		parser: parser,
		cache:  cache,
		cfg:    cfg,
		logger: slog.Default().With(slog.String("adapter", "articles")),
	}
}

// Category implements digest.SourceAdapter.
func (a *ArticleAdapter) Category() entity.Category { return entity.CategoryArticles }

// Source names the upstream system for breaker isolation. Article feeds fail
// independently of GitHub so they get their own breaker.
func (a *ArticleAdapter) Source() string { return "articles" }

// Applicable reports whether any feed categories are selected.
func (a *ArticleAdapter) Applicable(prefs *entity.Preferences) bool {
	return prefs != nil && len(prefs.Categories) > 0
}

// Fetch returns the newest articles across the preferred categories. Empty
// category preferences yield an empty result; a single failing feed is
// skipped unless every feed failed.
func (a *ArticleAdapter) Fetch(ctx context.Context, prefs *entity.Preferences) ([]entity.Item, error) {
	if prefs == nil || len(prefs.Categories) == 0 {
		return nil, nil
	}
	categories := prefs.Categories
	if len(categories) > a.cfg.MaxSelectors {
		categories = categories[:a.cfg.MaxSelectors]
	}

	var (
		items   []entity.Item
		failed  int
		lastErr error
	)
	for _, category := range categories {
		category = strings.ToLower(strings.TrimSpace(category))
		if category == "" {
			continue
		}

		cacheKey := "articles:" + category
		if cached, ok := a.cache.Get(cacheKey); ok {
			items = append(items, cached...)
			continue
		}

		feedURL := fmt.Sprintf(a.cfg.ArticleFeedURL, category)
		feedCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
		feed, err := a.parser.ParseURLWithContext(feedURL, feedCtx)
		cancel()
		if err != nil {
			a.logger.Warn("feed fetch failed, skipping category",
				slog.String("category", category),
				slog.String("url", feedURL),
				slog.Any("error", err))
			failed++
			lastErr = err
			continue
		}

		feedItems := make([]entity.Item, 0, len(feed.Items))
		for _, fi := range feed.Items {
			published := time.Time{}
			if fi.PublishedParsed != nil {
				published = *fi.PublishedParsed
			} else if fi.UpdatedParsed != nil {
				published = *fi.UpdatedParsed
			}
			author := ""
			if len(fi.Authors) > 0 && fi.Authors[0] != nil {
				author = fi.Authors[0].Name
			}
			feedItems = append(feedItems, entity.Item{
				Category:    entity.CategoryArticles,
				Title:       fi.Title,
				Origin:      category,
				URL:         fi.Link,
				Author:      author,
				PublishedAt: published,
			})
		}
		a.cache.Set(cacheKey, feedItems)
		items = append(items, feedItems...)
	}

	if failed > 0 && failed == len(categories) {
		return nil, fmt.Errorf("all %d article feeds failed: %w", failed, lastErr)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > a.cfg.MaxItems {
		items = items[:a.cfg.MaxItems]
	}
	return items, nil
}
