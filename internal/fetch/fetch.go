// Package fetch wraps HTTP GET with the retry and politeness behavior all
// scrape traffic shares.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"AINewsScanner/internal/retry"
)

// Client fetches raw markup with bounded retries and linear backoff.
type Client struct {
	http       *http.Client
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient builds a fetcher; a nil http.Client gets a 30s-timeout default.
func NewClient(httpClient *http.Client, userAgent string, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		http:       httpClient,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Get returns the page body, retrying transport errors and non-2xx statuses
// with linearly increasing backoff. After exhausting retries the failure is
// returned; callers skip the URL rather than aborting the run.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	var body string

	err := retry.Do(ctx, retry.Config{MaxAttempts: c.maxRetries, Delay: c.retryDelay, Linear: true}, func() error {
		page, err := c.getOnce(ctx, url)
		if err != nil {
			c.debug("fetch attempt failed", "url", url, "error", err)
			return err
		}
		body = page
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}

	return body, nil
}

func (c *Client) getOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(raw), nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
