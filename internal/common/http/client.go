// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// StatusError is returned when every attempt ended in a retryable status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Logger is the subset of the logger package the client needs.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// Client is an outbound HTTP client that retries transport failures, 429 and
// 5xx responses with exponential backoff. Other statuses are handed back to
// the caller untouched.
type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     Logger
}

type Option func(*Client)

// WithRetries sets how many extra attempts follow the first one.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBaseDelay sets the first backoff step; each retry doubles it.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseDelay:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	attempt := 0

	err := retry.Do(
		func() error {
			r := req.Clone(ctx)
			if attempt > 0 && req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return retry.Unrecoverable(err)
				}
				r.Body = body
			}
			attempt++

			res, err := c.httpClient.Do(r)
			if err != nil {
				return err
			}
			if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
				res.Body.Close()
				return &StatusError{StatusCode: res.StatusCode}
			}
			resp = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.Delay(c.baseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) &&
				!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			if c.logger != nil {
				c.logger.Warn("Outbound request failed, retrying", map[string]interface{}{
					"url":     req.URL.String(),
					"attempt": n + 1,
					"error":   err.Error(),
				})
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
