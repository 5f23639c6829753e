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

// githubIssue is the subset of the GitHub REST issue/pull payload we consume.
// The issues endpoint also returns pull requests; those carry a pull_request
// key and are filtered out by the issues adapter.
type githubIssue struct {
	Title     string    `json:"title"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	User      *struct {
		Login string `json:"login"`
	} `json:"user"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request,omitempty"`
}

// githubSource holds the pieces shared by the issues and pulls adapters.
// Both talk to the same host and therefore share one circuit breaker; the
// adapters differ only in endpoint and filtering.
type githubSource struct {
	client *Client
	cache  *ItemCache
	cfg    Config
	logger *slog.Logger
}

func (g *githubSource) headers() map[string]string {
	h := map[string]string{
		"Accept": "application/vnd.github+json",
	}
	if g.cfg.GitHubToken != "" {
		h["Authorization"] = "Bearer " + g.cfg.GitHubToken
	}
	return h
}

// fetchPerRepo runs one listing call per repository, newest first, capped at
// PerSelector items each. A failing repository is logged and skipped so one
// bad selector cannot sink the whole category.
func (g *githubSource) fetchPerRepo(
	ctx context.Context,
	category entity.Category,
	endpoint string,
	repos []string,
	keep func(*githubIssue) bool,
) ([]entity.Item, error) {
	if len(repos) > g.cfg.MaxSelectors {
		repos = repos[:g.cfg.MaxSelectors]
	}

	var (
		items   []entity.Item
		failed  int
		lastErr error
	)
	for _, repo := range repos {
		repo = strings.TrimSpace(repo)
		if repo == "" || strings.Count(repo, "/") != 1 {
			g.logger.Warn("skipping malformed repository selector",
				slog.String("repo", repo))
			continue
		}

		cacheKey := string(category) + ":" + repo
		if cached, ok := g.cache.Get(cacheKey); ok {
			items = append(items, cached...)
			continue
		}

		params := url.Values{}
		params.Set("state", "open")
		params.Set("sort", "created")
		params.Set("direction", "desc")
		params.Set("per_page", fmt.Sprintf("%d", g.cfg.PerSelector))

		var raw []githubIssue
		reqURL := fmt.Sprintf("%s/repos/%s/%s", g.cfg.GitHubBaseURL, repo, endpoint)
		if err := g.client.GetJSON(ctx, reqURL, params, g.headers(), &raw); err != nil {
			g.logger.Warn("repository fetch failed, skipping",
				slog.String("repo", repo),
				slog.String("category", string(category)),
				slog.Any("error", err))
			failed++
			lastErr = err
			continue
		}

		repoItems := make([]entity.Item, 0, g.cfg.PerSelector)
		for i := range raw {
			if !keep(&raw[i]) {
				continue
			}
			author := ""
			if raw[i].User != nil {
				author = raw[i].User.Login
			}
			repoItems = append(repoItems, entity.Item{
				Category:    category,
				Title:       raw[i].Title,
				Origin:      repo,
				URL:         raw[i].HTMLURL,
				Author:      author,
				PublishedAt: raw[i].CreatedAt,
			})
			if len(repoItems) >= g.cfg.PerSelector {
				break
			}
		}
		g.cache.Set(cacheKey, repoItems)
		items = append(items, repoItems...)
	}

	// All repositories failing means the source itself is down; surface the
	// error so the breaker counts it.
	if failed > 0 && failed == len(repos) {
		return nil, fmt.Errorf("all %d repositories failed: %w", failed, lastErr)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > g.cfg.MaxItems {
		items = items[:g.cfg.MaxItems]
	}
	return items, nil
}

// IssuesAdapter fetches recently opened issues for the recipient's
// repositories.
type IssuesAdapter struct {
	githubSource
}

// NewIssuesAdapter constructs the issues adapter on the shared client.
func NewIssuesAdapter(client *Client, cache *ItemCache, cfg Config) *IssuesAdapter {
	return &IssuesAdapter{githubSource{
		client: client,
		cache:  cache,
		cfg:    cfg,
		logger: slog.Default().With(slog.String("adapter", "github_issues")),
	}}
}

// Category implements digest.SourceAdapter.
func (a *IssuesAdapter) Category() entity.Category { return entity.CategoryIssues }

// Source names the upstream system for breaker sharing.
func (a *IssuesAdapter) Source() string { return "github" }

// Applicable reports whether any repositories are selected.
func (a *IssuesAdapter) Applicable(prefs *entity.Preferences) bool {
	return prefs != nil && len(prefs.Repositories) > 0
}

// Fetch returns open issues across the preferred repositories, newest first.
// Empty repository preferences yield an empty result without any network
// calls.
func (a *IssuesAdapter) Fetch(ctx context.Context, prefs *entity.Preferences) ([]entity.Item, error) {
	if prefs == nil || len(prefs.Repositories) == 0 {
		return nil, nil
	}
	return a.fetchPerRepo(ctx, entity.CategoryIssues, "issues", prefs.Repositories,
		func(issue *githubIssue) bool {
			// The issues endpoint mixes in pull requests; drop them.
			return issue.PullRequest == nil
		})
}

// PullsAdapter fetches recently opened pull requests for the recipient's
// repositories.
type PullsAdapter struct {
	githubSource
}

// NewPullsAdapter constructs the pull request adapter on the shared client.
func NewPullsAdapter(client *Client, cache *ItemCache, cfg Config) *PullsAdapter {
	return &PullsAdapter{githubSource{
		client: client,
		cache:  cache,
		cfg:    cfg,
		logger: slog.Default().With(slog.String("adapter", "github_pulls")),
	}}
}

// Category implements digest.SourceAdapter.
func (a *PullsAdapter) Category() entity.Category { return entity.CategoryPulls }

// Source names the upstream system for breaker sharing.
func (a *PullsAdapter) Source() string { return "github" }

// Applicable reports whether any repositories are selected.
func (a *PullsAdapter) Applicable(prefs *entity.Preferences) bool {
	return prefs != nil && len(prefs.Repositories) > 0
}

// Fetch returns open pull requests across the preferred repositories, newest
// first. Empty repository preferences yield an empty result.
func (a *PullsAdapter) Fetch(ctx context.Context, prefs *entity.Preferences) ([]entity.Item, error) {
	if prefs == nil || len(prefs.Repositories) == 0 {
		return nil, nil
	}
	return a.fetchPerRepo(ctx, entity.CategoryPulls, "pulls", prefs.Repositories,
		func(*githubIssue) bool { return true })
}
