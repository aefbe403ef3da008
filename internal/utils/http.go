package utils

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RetryableHTTPClient is an HTTP client with retry logic
type RetryableHTTPClient struct {
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	shouldRetry func(resp *http.Response, err error) bool
}

// NewRetryableHTTPClient creates a new HTTP client with retry logic
func NewRetryableHTTPClient() *RetryableHTTPClient {
	return &RetryableHTTPClient{
		client:      &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		retryDelay:  500 * time.Millisecond,
		maxDelay:    10 * time.Second,
		shouldRetry: retryOnServerError,
	}
}

// retryOnServerError retries transport errors, 5xx responses and 429
func retryOnServerError(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// Do executes an HTTP request with retry logic
func (c *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with retry logic and context.
// Requests with a body are only retried when req.GetBody is set.
func (c *RetryableHTTPClient) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	hasBody := req.Body != nil && req.Body != http.NoBody
	if hasBody && req.GetBody == nil {
		return c.client.Do(req.WithContext(ctx))
	}

	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		reqCopy := req.Clone(ctx)
		if attempt > 0 && hasBody {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", bodyErr)
			}
			reqCopy.Body = body
		}

		resp, err = c.client.Do(reqCopy)
		if !c.shouldRetry(resp, err) {
			return resp, err
		}

		if attempt == c.maxRetries {
			break
		}

		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, err)
	}

	return resp, nil
}

// SetMaxRetries sets the maximum number of retries
func (c *RetryableHTTPClient) SetMaxRetries(n int) {
	c.maxRetries = n
}

// SetTimeout sets the HTTP client timeout
func (c *RetryableHTTPClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// SetRetryDelay sets the initial delay between attempts
func (c *RetryableHTTPClient) SetRetryDelay(delay time.Duration) {
	c.retryDelay = delay
}
