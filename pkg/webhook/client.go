// Package webhook is the outbound HTTP collaborator: it performs the POST
// to a Slack-compatible webhook URL. Retry and circuit breaking are opt-in;
// by default one payload gets exactly one attempt.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"zapslack/internal/constants"
	"zapslack/pkg/circuitbreaker"
	"zapslack/pkg/retry"
)

type Client struct {
	http    *http.Client
	policy  *retry.Policy
	breaker *circuitbreaker.Wrapper
	onRetry func(attempt int, err error, nextDelay time.Duration)
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests use this to
// point at an httptest server's client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetryPolicy enables retries for transient send failures.
func WithRetryPolicy(p retry.Policy, onRetry func(attempt int, err error, nextDelay time.Duration)) Option {
	return func(c *Client) {
		policy := p
		c.policy = &policy
		c.onRetry = onRetry
	}
}

// WithCircuitBreaker guards sends with the given breaker.
func WithCircuitBreaker(w *circuitbreaker.Wrapper) Option {
	return func(c *Client) { c.breaker = w }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts the payload to its webhook URL. A non-2xx status is an error;
// 4xx responses are classified permanent so a configured retry policy does
// not hammer the endpoint with a payload it will never accept.
func (c *Client) Send(ctx context.Context, p Payload) error {
	if c.policy == nil {
		return c.send(ctx, p)
	}
	return retry.Do(ctx, *c.policy, func() error {
		return c.send(ctx, p)
	}, c.onRetry)
}

func (c *Client) send(ctx context.Context, p Payload) error {
	if c.breaker != nil {
		return c.breaker.Execute(ctx, func() error {
			return c.post(ctx, p)
		})
	}
	return c.post(ctx, p)
}

func (c *Client) post(ctx context.Context, p Payload) error {
	encoded, err := json.Marshal(p.wireBody())
	if err != nil {
		return retry.NewPermanentError(fmt.Errorf("failed to encode payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.WebhookURL, bytes.NewReader(encoded))
	if err != nil {
		return retry.NewPermanentError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= constants.HTTPStatusOKMin && resp.StatusCode < constants.HTTPStatusOKMax {
		return nil
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return retry.NewPermanentError(fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}
	return fmt.Errorf("webhook returned status %d", resp.StatusCode)
}
