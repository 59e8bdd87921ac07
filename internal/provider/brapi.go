package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/quote"
)

// SourceBrapi identifies the BR-oriented primary provider.
const SourceBrapi = "brapi"

// Brapi is the client for the brapi quote API, the primary source for
// B3-listed symbols.
type Brapi struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBrapi creates a brapi client.
func NewBrapi(baseURL, token string, logger *zap.Logger) *Brapi {
	return &Brapi{
		baseURL:    baseURL,
		token:      token,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// Name returns the provider's source identifier.
func (b *Brapi) Name() string { return SourceBrapi }

// brapi wraps each quote in a results array and uses the long
// regularMarket field names.
type brapiResponse struct {
	Results []brapiResult `json:"results"`
}

type brapiResult struct {
	Symbol                     string          `json:"symbol"`
	RegularMarketPrice         decimal.Decimal `json:"regularMarketPrice"`
	RegularMarketChange        decimal.Decimal `json:"regularMarketChange"`
	RegularMarketChangePercent decimal.Decimal `json:"regularMarketChangePercent"`
	RegularMarketVolume        int64           `json:"regularMarketVolume"`
	RegularMarketOpen          decimal.Decimal `json:"regularMarketOpen"`
	RegularMarketDayHigh       decimal.Decimal `json:"regularMarketDayHigh"`
	RegularMarketDayLow        decimal.Decimal `json:"regularMarketDayLow"`
	RegularMarketPreviousClose decimal.Decimal `json:"regularMarketPreviousClose"`
	RegularMarketTime          string          `json:"regularMarketTime"`
}

// Quote fetches and normalizes a quote for symbol.
func (b *Brapi) Quote(ctx context.Context, symbol string) (quote.Quote, error) {
	endpoint := fmt.Sprintf("%s/api/quote/%s", b.baseURL, url.PathEscape(symbol))
	if b.token != "" {
		endpoint += "?token=" + url.QueryEscape(b.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	b.logger.Debug("fetching-quote",
		zap.String("source", SourceBrapi),
		zap.String("symbol", symbol))

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return quote.Quote{}, &quote.NetworkError{Source: SourceBrapi, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return quote.Quote{}, rateLimitErr(SourceBrapi, resp)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return quote.Quote{}, &quote.ProviderError{
			Source:     SourceBrapi,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var payload brapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return quote.Quote{}, &quote.ValidationError{
			Source: SourceBrapi,
			Symbol: symbol,
			Reason: fmt.Sprintf("decode: %v", err),
		}
	}
	if len(payload.Results) == 0 {
		return quote.Quote{}, &quote.ValidationError{
			Source: SourceBrapi,
			Symbol: symbol,
			Reason: "empty results",
		}
	}

	q := normalizeBrapi(payload.Results[0])
	if !q.Valid() {
		return quote.Quote{}, &quote.ValidationError{
			Source: SourceBrapi,
			Symbol: symbol,
			Reason: "missing required quote fields",
		}
	}

	return q, nil
}

// normalizeBrapi renames brapi's regularMarket fields into the canonical
// shape. Missing optional amounts default to the current price so
// downstream arithmetic never sees a hole; volume defaults to zero.
func normalizeBrapi(r brapiResult) quote.Quote {
	q := quote.Quote{
		Symbol:        r.Symbol,
		Price:         r.RegularMarketPrice,
		Change:        r.RegularMarketChange,
		ChangePercent: r.RegularMarketChangePercent,
		Volume:        r.RegularMarketVolume,
		Open:          orPrice(r.RegularMarketOpen, r.RegularMarketPrice),
		High:          orPrice(r.RegularMarketDayHigh, r.RegularMarketPrice),
		Low:           orPrice(r.RegularMarketDayLow, r.RegularMarketPrice),
		PreviousClose: orPrice(r.RegularMarketPreviousClose, r.RegularMarketPrice),
		Timestamp:     time.Now().UTC(),
		Source:        SourceBrapi,
	}

	if ts, err := time.Parse(time.RFC3339, r.RegularMarketTime); err == nil {
		q.Timestamp = ts
	}

	return q
}

func orPrice(v, price decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return price
	}
	return v
}
