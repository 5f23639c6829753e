package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"dev-digest/internal/domain/entity"
)

type githubSearchResult struct {
	Items []struct {
		FullName    string    `json:"full_name"`
		HTMLURL     string    `json:"html_url"`
		Description string    `json:"description"`
		Language    string    `json:"language"`
		Stars       int       `json:"stargazers_count"`
		CreatedAt   time.Time `json:"created_at"`
		Owner       *struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"items"`
}

// fallbackTrending lists well-known repositories per language, served when
// the search API returns nothing for a language. The digest stays useful on
// a degraded upstream at the cost of freshness.
var fallbackTrending = map[string][]entity.Item{
	"go": {
		{Category: entity.CategoryTrending, Title: "golang/go", Origin: "golang/go",
			URL: "https://github.com/golang/go", Language: "go",
			Description: "The Go programming language"},
		{Category: entity.CategoryTrending, Title: "kubernetes/kubernetes", Origin: "kubernetes/kubernetes",
			URL: "https://github.com/kubernetes/kubernetes", Language: "go",
			Description: "Production-grade container scheduling and management"},
	},
	"python": {
		{Category: entity.CategoryTrending, Title: "python/cpython", Origin: "python/cpython",
			URL: "https://github.com/python/cpython", Language: "python",
			Description: "The Python programming language"},
		{Category: entity.CategoryTrending, Title: "django/django", Origin: "django/django",
			URL: "https://github.com/django/django", Language: "python",
			Description: "The web framework for perfectionists with deadlines"},
	},
	"rust": {
		{Category: entity.CategoryTrending, Title: "rust-lang/rust", Origin: "rust-lang/rust",
			URL: "https://github.com/rust-lang/rust", Language: "rust",
			Description: "Empowering everyone to build reliable and efficient software"},
	},
	"typescript": {
		{Category: entity.CategoryTrending, Title: "microsoft/TypeScript", Origin: "microsoft/TypeScript",
			URL: "https://github.com/microsoft/TypeScript", Language: "typescript",
			Description: "TypeScript is a superset of JavaScript that compiles to clean JavaScript output"},
	},
}

// TrendingAdapter finds repositories created in the last week with the most
// stars, per preferred language, via the GitHub search API.
type TrendingAdapter struct {
	githubSource
	now func() time.Time
}

// NewTrendingAdapter constructs the trending adapter on the shared client.
func NewTrendingAdapter(client *Client, cache *ItemCache, cfg Config) *TrendingAdapter {
	return &TrendingAdapter{
		githubSource: githubSource{
			client: client,
			cache:  cache,
			cfg:    cfg,
			logger: slog.Default().With(slog.String("adapter", "trending_repos")),
		},
		now: time.Now,
	}
}

// Category implements digest.SourceAdapter.
func (a *TrendingAdapter) Category() entity.Category { return entity.CategoryTrending }

// Source names the upstream system for breaker sharing. Trending rides the
// same GitHub host as the issue and pull adapters.
func (a *TrendingAdapter) Source() string { return "github" }

// Applicable reports whether any languages are selected.
func (a *TrendingAdapter) Applicable(prefs *entity.Preferences) bool {
	return prefs != nil && len(prefs.Languages) > 0
}

// Fetch returns the top repositories created in the last seven days for each
// preferred language, merged and ordered by stars. Languages yielding no
// live results fall back to the static table; failures during search
// propagate only when every language failed.
func (a *TrendingAdapter) Fetch(ctx context.Context, prefs *entity.Preferences) ([]entity.Item, error) {
	if prefs == nil || len(prefs.Languages) == 0 {
		return nil, nil
	}
	languages := prefs.Languages
	if len(languages) > a.cfg.MaxLanguages {
		languages = languages[:a.cfg.MaxLanguages]
	}

	since := a.now().AddDate(0, 0, -7).Format("2006-01-02")

	var (
		items   []entity.Item
		failed  int
		lastErr error
	)
	for _, lang := range languages {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}

		cacheKey := "trending:" + lang
		if cached, ok := a.cache.Get(cacheKey); ok {
			items = append(items, cached...)
			continue
		}

		params := url.Values{}
		params.Set("q", fmt.Sprintf("language:%s created:>%s", lang, since))
		params.Set("sort", "stars")
		params.Set("order", "desc")
		params.Set("per_page", fmt.Sprintf("%d", a.cfg.MaxItems))

		var result githubSearchResult
		reqURL := a.cfg.GitHubBaseURL + "/search/repositories"
		if err := a.client.GetJSON(ctx, reqURL, params, a.headers(), &result); err != nil {
			a.logger.Warn("trending search failed, skipping language",
				slog.String("language", lang),
				slog.Any("error", err))
			failed++
			lastErr = err
			continue
		}

		langItems := make([]entity.Item, 0, len(result.Items))
		for _, repo := range result.Items {
			author := ""
			if repo.Owner != nil {
				author = repo.Owner.Login
			}
			langItems = append(langItems, entity.Item{
				Category:    entity.CategoryTrending,
				Title:       repo.FullName,
				Origin:      repo.FullName,
				URL:         repo.HTMLURL,
				Author:      author,
				PublishedAt: repo.CreatedAt,
				Language:    lang,
				Stars:       repo.Stars,
				Description: repo.Description,
			})
		}
		if len(langItems) == 0 {
			langItems = fallbackTrending[lang]
			if len(langItems) > 0 {
				a.logger.Info("serving fallback trending list",
					slog.String("language", lang))
			}
		}
		a.cache.Set(cacheKey, langItems)
		items = append(items, langItems...)
	}

	if failed > 0 && failed == len(languages) {
		return nil, fmt.Errorf("trending search failed for all %d languages: %w", failed, lastErr)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Stars > items[j].Stars
	})
	if len(items) > a.cfg.MaxItems {
		items = items[:a.cfg.MaxItems]
	}
	return items, nil
}
