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

// SourceFinnhub identifies the global secondary provider.
const SourceFinnhub = "finnhub"

// Finnhub is the client for the Finnhub quote API, the fallback for BR
// symbols and the direct source for everything else.
type Finnhub struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFinnhub creates a Finnhub client.
func NewFinnhub(baseURL, token string, logger *zap.Logger) *Finnhub {
	return &Finnhub{
		baseURL:    baseURL,
		token:      token,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// Name returns the provider's source identifier.
func (f *Finnhub) Name() string { return SourceFinnhub }

// Finnhub uses terse single-letter fields and carries no volume.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Quote fetches and normalizes a quote for symbol.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (quote.Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	endpoint := fmt.Sprintf("%s/quote?%s", f.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if f.token != "" {
		req.Header.Set("X-Finnhub-Token", f.token)
	}

	f.logger.Debug("fetching-quote",
		zap.String("source", SourceFinnhub),
		zap.String("symbol", symbol))

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return quote.Quote{}, &quote.NetworkError{Source: SourceFinnhub, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return quote.Quote{}, rateLimitErr(SourceFinnhub, resp)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return quote.Quote{}, &quote.ProviderError{
			Source:     SourceFinnhub,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var payload finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return quote.Quote{}, &quote.ValidationError{
			Source: SourceFinnhub,
			Symbol: symbol,
			Reason: fmt.Sprintf("decode: %v", err),
		}
	}

	// Finnhub answers 200 with an all-zero body for unknown symbols.
	if payload.Current == 0 {
		return quote.Quote{}, &quote.ValidationError{
			Source: SourceFinnhub,
			Symbol: symbol,
			Reason: "missing required quote fields",
		}
	}

	return normalizeFinnhub(symbol, payload), nil
}

// normalizeFinnhub rescales Finnhub's terse schema into the canonical
// shape. dp is already a percentage value. Volume is not provided and
// defaults to zero; zero OHLC fields default to the current price.
func normalizeFinnhub(symbol string, r finnhubQuote) quote.Quote {
	price := decimal.NewFromFloat(r.Current)

	q := quote.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        decimal.NewFromFloat(r.Change),
		ChangePercent: decimal.NewFromFloat(r.ChangePercent),
		Volume:        0,
		Open:          orPrice(decimal.NewFromFloat(r.Open), price),
		High:          orPrice(decimal.NewFromFloat(r.High), price),
		Low:           orPrice(decimal.NewFromFloat(r.Low), price),
		PreviousClose: orPrice(decimal.NewFromFloat(r.PreviousClose), price),
		Timestamp:     time.Now().UTC(),
		Source:        SourceFinnhub,
	}

	if r.Timestamp > 0 {
		q.Timestamp = time.Unix(r.Timestamp, 0).UTC()
	}

	return q
}
