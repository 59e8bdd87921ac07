package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/service"
)

// quoteHandler serves the market-data API endpoints.
type quoteHandler struct {
	market *service.MarketData
	logger *zap.Logger
}

func newQuoteHandler(market *service.MarketData, logger *zap.Logger) *quoteHandler {
	return &quoteHandler{market: market, logger: logger}
}

// handleQuote serves GET /api/quote/{symbol}.
func (h *quoteHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol is required"})
		return
	}

	resp := h.market.GetQuote(r.Context(), symbol)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// handleQuotes serves GET /api/quotes?symbols=PETR4,AAPL,VALE3.
func (h *quoteHandler) handleQuotes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbols query parameter is required"})
		return
	}

	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}

	resp := h.market.GetQuotes(r.Context(), symbols)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

// handleValidate serves GET /api/validate/{symbol}.
func (h *quoteHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	valid := h.market.ValidateSymbol(r.Context(), symbol)
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"valid":  valid,
	})
}

// handleCacheStats serves GET /api/cache/stats.
func (h *quoteHandler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.market.CacheStats())
}

// handleClearCache serves DELETE /api/cache.
func (h *quoteHandler) handleClearCache(w http.ResponseWriter, r *http.Request) {
	h.market.ClearCache()
	h.logger.Info("cache-cleared-via-api")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleServiceHealth serves GET /api/health: provider reachability plus
// cache state, as opposed to the process-level /health probe.
func (h *quoteHandler) handleServiceHealth(w http.ResponseWriter, r *http.Request) {
	health := h.market.HealthCheck(r.Context())

	status := http.StatusOK
	if !health.Brapi && !health.Finnhub {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
