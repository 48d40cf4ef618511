package discord

import (
	"fmt"
	"time"
)

// TransientError marks a failure worth retrying: network errors and
// server-side 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient fetch error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RateLimitError carries the retry-after hint from the remote service.
// The rate limiter gives the hint precedence over computed backoff.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded (retry after %s)", e.RetryAfter)
	}
	return "rate limit exceeded"
}

// APIError is a non-retryable error response from the remote service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("retrieval service error: HTTP %d: %s", e.Status, e.Body)
}
