package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"dev-digest/internal/domain/entity"
)

func TestTrendingAdapter_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("sort"); got != "stars" {
			t.Errorf("sort = %q, want stars", got)
		}
		_, _ = w.Write([]byte(`{"items": [
			{"full_name": "octo/hot", "html_url": "https://github.com/octo/hot",
			 "description": "hot new repo", "language": "Go", "stargazers_count": 900,
			 "created_at": "2026-08-25T00:00:00Z", "owner": {"login": "octo"}},
			{"full_name": "octo/warm", "html_url": "https://github.com/octo/warm",
			 "description": "warm repo", "language": "Go", "stargazers_count": 400,
			 "created_at": "2026-08-26T00:00:00Z", "owner": {"login": "octo"}}
		]}`))
	}))
	defer server.Close()

	adapter := NewTrendingAdapter(newTestClient(), NewItemCache(0), testConfig(server.URL))
	items, err := adapter.Fetch(context.Background(), &entity.Preferences{
		RecipientID: 1,
		Languages:   []string{"go"},
	})
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Stars != 900 {
		t.Errorf("expected highest stars first, got %d", items[0].Stars)
	}
	if items[0].Category != entity.CategoryTrending || items[0].Language != "go" {
		t.Errorf("unexpected item metadata: %+v", items[0])
	}
}

func TestTrendingAdapter_FallbackOnEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	adapter := NewTrendingAdapter(newTestClient(), NewItemCache(0), testConfig(server.URL))
	items, err := adapter.Fetch(context.Background(), &entity.Preferences{
		RecipientID: 1,
		Languages:   []string{"go"},
	})
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected static fallback items for empty search results")
	}
	for _, item := range items {
		if item.Language != "go" {
			t.Errorf("fallback item has wrong language: %+v", item)
		}
	}
}

func TestTrendingAdapter_NoFallbackForUnknownLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	adapter := NewTrendingAdapter(newTestClient(), NewItemCache(0), testConfig(server.URL))
	items, err := adapter.Fetch(context.Background(), &entity.Preferences{
		RecipientID: 1,
		Languages:   []string{"cobol"},
	})
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items for unknown language, got %d", len(items))
	}
}

func TestTrendingAdapter_AllLanguagesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewTrendingAdapter(newTestClient(), NewItemCache(0), testConfig(server.URL))
	_, err := adapter.Fetch(context.Background(), &entity.Preferences{
		RecipientID: 1,
		Languages:   []string{"go", "rust"},
	})
	if err == nil {
		t.Fatal("expected error when search fails for every language")
	}
}

func TestTrendingAdapter_EmptyLanguages(t *testing.T) {
	adapter := NewTrendingAdapter(newTestClient(), NewItemCache(0), testConfig("http://unreachable.invalid"))
	items, err := adapter.Fetch(context.Background(), &entity.Preferences{RecipientID: 1})
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty result without error, got len=%d err=%v", len(items), err)
	}
}
