package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stockpick/pkg/logger"
)

// Client is an HTTP client wrapper with retry logic and logging. All
// outbound HTTP requests go through this client.
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// New creates a new HTTP client with default timeout and retry behavior.
func New(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
		},
	}
}

// WithTimeout sets a custom request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	return c
}

// GetJSON performs a GET request and decodes the JSON response into dest.
// Retries with exponential backoff on transport errors and 5xx responses.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, dest interface{}) error {
	fullURL := rawURL
	if len(params) > 0 {
		fullURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	delay := c.retryConfig.InitialDelay

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(map[string]interface{}{
				"url":     rawURL,
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("Retrying HTTP request")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay *= 2
			if delay > c.retryConfig.MaxDelay {
				delay = c.retryConfig.MaxDelay
			}
		}

		body, err := c.get(ctx, fullURL)
		if err != nil {
			lastErr = err
			var perm *PermanentError
			if errors.As(err, &perm) {
				return err
			}
			continue
		}

		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("decode response from %s: %w", rawURL, err)
		}
		return nil
	}

	return fmt.Errorf("request to %s failed after %d attempts: %w",
		rawURL, c.retryConfig.MaxRetries+1, lastErr)
}

// get performs a single GET request and returns the body.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("HTTP request completed")

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error: %s", resp.Status)
	}
	if resp.StatusCode >= 400 {
		// Client errors are not retryable
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &PermanentError{Status: resp.Status, Body: string(body)}
	}

	return io.ReadAll(resp.Body)
}

// PermanentError is a non-retryable HTTP error (4xx).
type PermanentError struct {
	Status string
	Body   string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("http %s: %s", e.Status, e.Body)
}
