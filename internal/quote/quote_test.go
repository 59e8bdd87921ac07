package quote

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuote_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		quote Quote
		want  bool
	}{
		{
			name:  "valid",
			quote: Quote{Symbol: "PETR4", Price: decimal.NewFromFloat(38.52)},
			want:  true,
		},
		{
			name:  "missing-symbol",
			quote: Quote{Price: decimal.NewFromFloat(38.52)},
			want:  false,
		},
		{
			name:  "zero-price",
			quote: Quote{Symbol: "PETR4"},
			want:  false,
		},
		{
			name:  "negative-price",
			quote: Quote{Symbol: "PETR4", Price: decimal.NewFromFloat(-1)},
			want:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.quote.Valid())
		})
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "network",
			err:  &NetworkError{Source: "brapi", Err: errors.New("timeout")},
			want: true,
		},
		{
			name: "rate-limit",
			err:  &RateLimitError{Source: "finnhub", Delay: time.Second},
			want: true,
		},
		{
			name: "provider",
			err:  &ProviderError{Source: "brapi", StatusCode: 502},
			want: true,
		},
		{
			name: "unknown",
			err:  errors.New("something else"),
			want: true,
		},
		{
			name: "validation",
			err:  &ValidationError{Source: "brapi", Symbol: "PETR4", Reason: "empty results"},
			want: false,
		},
		{
			name: "wrapped-validation",
			err:  fmt.Errorf("fetch: %w", &ValidationError{Source: "brapi"}),
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	ne := &NetworkError{Source: "brapi", Err: errors.New("connection refused")}
	assert.Contains(t, ne.Error(), "brapi")
	assert.Contains(t, ne.Error(), "connection refused")
	assert.EqualError(t, errors.Unwrap(ne), "connection refused")

	rl := &RateLimitError{Source: "finnhub", Delay: 3 * time.Second}
	assert.Contains(t, rl.Error(), "retry after 3s")
	assert.Equal(t, 3*time.Second, rl.RetryAfter())

	bare := &RateLimitError{Source: "finnhub"}
	assert.NotContains(t, bare.Error(), "retry after")

	pe := &ProviderError{Source: "brapi", StatusCode: 502, Message: "bad gateway"}
	assert.Contains(t, pe.Error(), "status 502")

	ve := &ValidationError{Source: "brapi", Symbol: "PETR4", Reason: "empty results"}
	assert.Contains(t, ve.Error(), "PETR4")
	assert.Contains(t, ve.Error(), "empty results")
}
