package quote

import (
	"errors"
	"fmt"
	"time"
)

// NetworkError is a transport-level failure (timeout, connection refused).
// Always retryable.
type NetworkError struct {
	Source string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Source, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RateLimitError is an HTTP 429 or a provider-specific rate-limit marker.
// Retryable; when the provider suggests a delay it takes precedence over
// the exponential schedule.
type RateLimitError struct {
	Source string
	// Delay is the provider-suggested wait, zero when none was given.
	Delay time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Delay > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Source, e.Delay)
	}
	return fmt.Sprintf("%s: rate limited", e.Source)
}

// RetryAfter returns the provider-suggested delay before the next attempt.
func (e *RateLimitError) RetryAfter() time.Duration { return e.Delay }

// ProviderError is a non-2xx, non-429 provider response. Retryable up to
// the configured attempts, then surfaced.
type ProviderError struct {
	Source     string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Source, e.StatusCode, e.Message)
}

// ValidationError is a well-formed HTTP response whose payload fails schema
// expectations (missing required quote fields). Not retryable — it
// short-circuits to the next provider in the routing order.
type ValidationError struct {
	Source string
	Symbol string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid payload for %s: %s", e.Source, e.Symbol, e.Reason)
}

// Retryable reports whether err belongs to a transient error class.
// Validation failures are permanent for a given provider; everything else
// (network, rate limit, provider, unknown) is worth another attempt.
func Retryable(err error) bool {
	var ve *ValidationError
	return !errors.As(err, &ve)
}
