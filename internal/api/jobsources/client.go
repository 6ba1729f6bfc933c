package jobsources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const maxBodySize = 4 << 20

// StatusError is returned for any non-2xx vendor response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("unauthorized (%d)", e.StatusCode)
	case http.StatusNotFound:
		return "not found"
	case http.StatusBadRequest:
		return fmt.Sprintf("bad request: %s", truncateBody(e.Body))
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Client is the HTTP client shared by all job source adapters.
// Requests are made once; a failed fetch is not retried.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
}

func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:    logger,
		userAgent: "CV-Navigator/1.0",
	}
}

// Get performs a GET request and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, header http.Header) ([]byte, error) {
	fullURL := rawURL
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug("successful request",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
		)
		return body, nil
	}

	c.logger.Warn("API error",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.String("body", truncateBody(body)),
	)

	return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
}

func truncateBody(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
