package httpfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	calendarfeed "hostledger/internal/calendarfeed/domain"
)

const defaultMaxBytes = 5 << 20

// Client downloads iCal feeds over HTTP(S).
type Client struct {
	client   *http.Client
	maxBytes int64
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithMaxBytes caps the accepted feed size.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// NewClient constructs a feed client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		client:   &http.Client{Timeout: 10 * time.Second},
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the body of the feed at rawURL.
// Transport failures and non-2xx responses wrap calendarfeed.ErrFeedUnavailable.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.New("httpfeed: invalid feed url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/calendar, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", calendarfeed.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: http %d", calendarfeed.ErrFeedUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", calendarfeed.ErrFeedUnavailable, err)
	}
	if int64(len(body)) > c.maxBytes {
		return "", fmt.Errorf("httpfeed: feed larger than %d bytes", c.maxBytes)
	}
	return string(body), nil
}
