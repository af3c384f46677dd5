// Package httpx provides the shared retrying HTTP client used by all
// source and import API clients.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/jonesrussell/goingest/internal/logger"
	"github.com/jonesrussell/goingest/internal/ratelimit"
)

// Retry-relevant status codes.
const (
	statusTooManyReqs  = 429
	statusServerErrLow = 500
	statusClientErrLow = 400
)

// Defaults mirror the crawl configuration defaults.
const (
	DefaultMaxRetries  = 3
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 60 * time.Second
	DefaultTimeout     = 30 * time.Second
)

// maxResponseBodyBytes limits the size of fetched response bodies.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// StatusError reports a non-2xx response that exhausted its retries or
// was terminal to begin with.
type StatusError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d for %s", e.StatusCode, e.URL)
}

// Response is the body and status of a completed request.
type Response struct {
	StatusCode int
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Client wraps raw HTTP calls with retry, backoff, and rate limiting.
// Transient failures (429, 5xx, timeouts, connection resets) are retried
// up to maxRetries additional attempts with exponential backoff and full
// jitter; other 4xx responses are terminal and surfaced immediately.
type Client struct {
	httpClient  *http.Client
	limiter     *ratelimit.Limiter
	log         logger.Interface
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(maxRetries int) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
	}
}

// WithBackoff sets the base and maximum backoff delays.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.backoffBase = base
		}
		if maxDelay >= c.backoffBase {
			c.backoffMax = maxDelay
		}
	}
}

// NewClient creates a retrying HTTP client sharing the given rate limiter.
func NewClient(limiter *ratelimit.Limiter, log logger.Interface, opts ...Option) *Client {
	client := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     limiter,
		log:         log,
		maxRetries:  DefaultMaxRetries,
		backoffBase: DefaultBackoffBase,
		backoffMax:  DefaultBackoffMax,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Get performs a GET request with the retry policy applied.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil, nil)
}

// PostJSON marshals payload and performs a POST request with the retry
// policy applied.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, header http.Header) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/json")

	return c.Do(ctx, http.MethodPost, rawURL, body, header)
}

// Do performs a request, retrying transient failures. Every attempt first
// waits on the shared rate limiter. The last error is returned when
// retries are exhausted, never swallowed.
func (c *Client) Do(
	ctx context.Context,
	method, rawURL string,
	body []byte,
	header http.Header,
) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleepBackoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.attempt(ctx, method, rawURL, body, header)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !retryable(err) {
			return nil, err
		}

		if attempt < c.maxRetries {
			c.log.Warn("request failed, will retry",
				"method", method,
				"url", rawURL,
				"attempt", attempt+1,
				"error", err.Error(),
			)
		}
	}

	return nil, lastErr
}

// attempt performs a single HTTP request and classifies the response.
func (c *Client) attempt(
	ctx context.Context,
	method, rawURL string,
	body []byte,
	header http.Header,
) (*Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &terminalError{fmt.Errorf("failed to create request: %w", err)}
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if transientTransport(err) {
			return nil, fmt.Errorf("transport error for %s %s: %w", method, rawURL, err)
		}
		return nil, &terminalError{fmt.Errorf("request error for %s %s: %w", method, rawURL, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body for %s: %w", rawURL, err)
	}

	statusErr := &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	switch {
	case resp.StatusCode == statusTooManyReqs || resp.StatusCode >= statusServerErrLow:
		return nil, statusErr
	case resp.StatusCode >= statusClientErrLow:
		return nil, &terminalError{statusErr}
	default:
		return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
	}
}

// sleepBackoff waits for min(base*2^attempt, max) scaled by a uniform
// random factor in [0,1), or returns early if the context is cancelled.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := c.backoffBase << attempt
	if delay > c.backoffMax || delay <= 0 {
		delay = c.backoffMax
	}
	jittered := time.Duration(float64(delay) * rand.Float64())

	timer := time.NewTimer(jittered)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// terminalError marks an error that must never be retried.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }

func (e *terminalError) Unwrap() error { return e.err }

// retryable reports whether the request that produced err may be retried.
func retryable(err error) bool {
	var terminal *terminalError
	return !errors.As(err, &terminal)
}

// transientTransport reports whether a transport-level error is worth
// retrying: timeouts and reset or prematurely closed connections.
func transientTransport(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
