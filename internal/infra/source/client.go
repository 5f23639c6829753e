package source

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"dev-digest/internal/resilience/retry"
)

// maxResponseBytes bounds how much of an upstream response is read.
const maxResponseBytes = 4 << 20 // 4MB

// Client is the shared HTTP client for all source adapters. It enforces
// TLS 1.2+, a global request rate, and per-request timeouts, and maps
// non-2xx responses to retry-classifiable errors.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	userAgent  string
}

// NewClient constructs the shared client. rps bounds the outbound request
// rate across all adapters so a wide fan-out cannot exhaust upstream quota.
func NewClient(timeout time.Duration, rps float64) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		timeout:   timeout,
		userAgent: "dev-digest/1.0",
	}
}

// GetJSON performs a rate-limited GET against rawURL with the given query
// parameters and headers, decoding the JSON response body into v. Non-2xx
// statuses become *retry.HTTPError so the retry layer can classify them.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("GET %s", rawURL),
		}
	}

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}
