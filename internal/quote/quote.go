// Package quote defines the canonical quote shape shared by all market-data
// providers, plus the error taxonomy used by the routing and retry layers.
package quote

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the single normalized shape every provider response is converted
// into before caching or display. All monetary amounts are signed decimals;
// ChangePercent is a percentage value (1.5 means 1.5%), not a fraction.
//
// OHLC consistency is not enforced here — providers are trusted for that;
// normalization only renames and rescales fields.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Volume        int64           `json:"volume"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	PreviousClose decimal.Decimal `json:"previousClose"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
}

// Valid reports whether the quote carries the minimum fields required
// downstream. A provider response that decodes but yields an invalid quote
// is treated as a validation failure, not a success with null data.
func (q Quote) Valid() bool {
	return q.Symbol != "" && q.Price.IsPositive()
}
