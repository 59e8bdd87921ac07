// Package provider implements the upstream market-data clients. Each
// provider speaks its own JSON schema; clients decode it and hand back
// the canonical quote shape, classifying failures into the error taxonomy
// the retry and routing layers act on.
package provider

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/quotegate/quotegate/internal/quote"
)

// Provider fetches a single quote from one upstream source.
type Provider interface {
	// Name is the stable source identifier stamped into quotes.
	Name() string

	// Quote fetches and normalizes a quote for symbol.
	Quote(ctx context.Context, symbol string) (quote.Quote, error)
}

const (
	userAgent      = "quotegate/1.0"
	requestTimeout = 10 * time.Second
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// rateLimitErr builds a RateLimitError from a 429 response, honoring a
// Retry-After header when the provider sent one.
func rateLimitErr(source string, resp *http.Response) *quote.RateLimitError {
	e := &quote.RateLimitError{Source: source}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			e.Delay = time.Duration(secs) * time.Second
		}
	}
	return e
}
