// Package classify maps raw ticker strings to a market region, exchange
// and confidence score. Classification is pure and cheap (regex plus
// lookups), so results are recomputed per call and never cached.
package classify

import "regexp"

// Region identifies the market a symbol most likely trades on.
type Region string

const (
	RegionBR      Region = "BR"
	RegionUS      Region = "US"
	RegionUnknown Region = "UNKNOWN"
)

// Classification is the immutable result of classifying one symbol.
type Classification struct {
	Symbol   string  `json:"symbol"`
	Region   Region  `json:"region"`
	Exchange string  `json:"exchange"`
	// Confidence is a heuristic 0..1 score for how likely the string is
	// a real, tradeable ticker for the region.
	Confidence float64 `json:"confidence"`
}

var (
	// B3 tickers: four uppercase letters plus a one or two digit suffix
	// (PETR4, ITUB3, B3SA11 is out of scope for the short form).
	brPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{1,2}$`)

	// US tickers: one to five uppercase letters.
	usPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

// knownIssuers is the allow-list of four-letter B3 issuer roots that
// boost confidence for BR-shaped symbols.
var knownIssuers = map[string]struct{}{
	"PETR": {}, "VALE": {}, "ITUB": {}, "BBDC": {}, "ABEV": {},
	"BBAS": {}, "WEGE": {}, "MGLU": {}, "ITSA": {}, "RENT": {},
	"SUZB": {}, "GGBR": {}, "RADL": {}, "EQTL": {}, "PRIO": {},
	"CSAN": {}, "RAIL": {}, "EMBR": {}, "VIVT": {}, "LREN": {},
}

// commonWords are short English words that collide with the US ticker
// shape; matching one penalizes confidence since plain text mentions
// them far more often than the ticker.
var commonWords = map[string]struct{}{
	"A": {}, "I": {}, "AM": {}, "AN": {}, "AS": {}, "AT": {}, "BE": {},
	"BY": {}, "DO": {}, "GO": {}, "IF": {}, "IN": {}, "IS": {}, "IT": {},
	"ME": {}, "MY": {}, "NO": {}, "OF": {}, "ON": {}, "OR": {}, "SO": {},
	"TO": {}, "UP": {}, "US": {}, "WE": {}, "ALL": {}, "AND": {},
	"ANY": {}, "ARE": {}, "BUY": {}, "CAN": {}, "CEO": {}, "FOR": {},
	"HAS": {}, "LOW": {}, "NEW": {}, "NOW": {}, "ONE": {}, "OUT": {},
	"SEE": {}, "THE": {}, "TOP": {}, "WHO": {}, "YOU": {},
}

const (
	confidenceBR        = 0.5
	confidenceUS        = 0.6
	confidenceUnknown   = 0.1
	issuerBoost         = 0.3
	commonWordPenalty   = 0.35
	textDetectionBoost  = 0.15
)

// Classify classifies a symbol outside any textual context.
func Classify(symbol string) Classification {
	return classify(symbol, false)
}

// ClassifyInText classifies a symbol detected inside free text (chat
// messages, search queries). Detection context is itself a hint that the
// string was meant as a ticker, so confidence gets a small boost.
func ClassifyInText(symbol string) Classification {
	return classify(symbol, true)
}

func classify(symbol string, fromText bool) Classification {
	c := Classification{Symbol: symbol}

	switch {
	case brPattern.MatchString(symbol):
		c.Region = RegionBR
		c.Exchange = "B3"
		c.Confidence = confidenceBR
		if _, ok := knownIssuers[symbol[:4]]; ok {
			c.Confidence += issuerBoost
		}

	case usPattern.MatchString(symbol):
		c.Region = RegionUS
		c.Exchange = "NYSE/NASDAQ"
		c.Confidence = confidenceUS
		if _, ok := commonWords[symbol]; ok {
			c.Confidence -= commonWordPenalty
		}

	default:
		c.Region = RegionUnknown
		c.Confidence = confidenceUnknown
	}

	if fromText {
		c.Confidence += textDetectionBoost
	}
	c.Confidence = clamp01(c.Confidence)

	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
