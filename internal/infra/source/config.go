package source

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds upstream endpoint locations and fetch bounds for all source
// adapters. Values come from an optional YAML file with environment defaults;
// every bound exists to cap both latency and result size of a single fetch.
type Config struct {
	// GitHubBaseURL is the GitHub REST API root.
	GitHubBaseURL string `yaml:"github_base_url"`

	// GitHubToken authenticates GitHub calls when set. Optional; unauthenticated
	// calls work with a lower rate limit.
	GitHubToken string `yaml:"-"`

	// ArticleFeedURL is a printf template producing the content feed URL for
	// one category, e.g. "https://dev.to/feed/tag/%s".
	ArticleFeedURL string `yaml:"article_feed_url"`

	// RequestTimeout bounds every outbound call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxSelectors caps how many repositories/categories one fetch fans out to.
	MaxSelectors int `yaml:"max_selectors"`

	// MaxLanguages caps trending search fan-out.
	MaxLanguages int `yaml:"max_languages"`

	// PerSelector caps items requested per repository.
	PerSelector int `yaml:"per_selector"`

	// MaxItems caps the items one adapter returns.
	MaxItems int `yaml:"max_items"`

	// CacheTTL controls how long upstream responses are reused across
	// orchestration runs in the same batch. Zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns production defaults matching the public APIs.
func DefaultConfig() Config {
	return Config{
		GitHubBaseURL:  "https://api.github.com",
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		ArticleFeedURL: "https://dev.to/feed/tag/%s",
		RequestTimeout: 10 * time.Second,
		MaxSelectors:   5,
		MaxLanguages:   3,
		PerSelector:    3,
		MaxItems:       10,
		CacheTTL:       time.Hour,
	}
}

// LoadConfig reads the YAML config file at path and overlays it on the
// defaults. A missing file is not an error: defaults are returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read source config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse source config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// UnmarshalYAML overlays the file's keys on whatever values the receiver
// already holds, so unset keys keep their defaults. Durations are written as
// Go duration strings ("10s", "1h").
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		GitHubBaseURL  *string `yaml:"github_base_url"`
		ArticleFeedURL *string `yaml:"article_feed_url"`
		RequestTimeout *string `yaml:"request_timeout"`
		CacheTTL       *string `yaml:"cache_ttl"`
		MaxSelectors   *int    `yaml:"max_selectors"`
		MaxLanguages   *int    `yaml:"max_languages"`
		PerSelector    *int    `yaml:"per_selector"`
		MaxItems       *int    `yaml:"max_items"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.GitHubBaseURL != nil {
		c.GitHubBaseURL = *raw.GitHubBaseURL
	}
	if raw.ArticleFeedURL != nil {
		c.ArticleFeedURL = *raw.ArticleFeedURL
	}
	if raw.MaxSelectors != nil {
		c.MaxSelectors = *raw.MaxSelectors
	}
	if raw.MaxLanguages != nil {
		c.MaxLanguages = *raw.MaxLanguages
	}
	if raw.PerSelector != nil {
		c.PerSelector = *raw.PerSelector
	}
	if raw.MaxItems != nil {
		c.MaxItems = *raw.MaxItems
	}
	if raw.RequestTimeout != nil {
		d, err := time.ParseDuration(*raw.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if raw.CacheTTL != nil {
		d, err := time.ParseDuration(*raw.CacheTTL)
		if err != nil {
			return fmt.Errorf("cache_ttl: %w", err)
		}
		c.CacheTTL = d
	}
	return nil
}

// Validate rejects configurations that would disable the latency bounds.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.MaxSelectors <= 0 || c.MaxItems <= 0 || c.PerSelector <= 0 || c.MaxLanguages <= 0 {
		return fmt.Errorf("fetch caps must be positive")
	}
	return nil
}
