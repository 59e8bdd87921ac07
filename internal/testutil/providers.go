// Package testutil provides shared stubs and fixtures for tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotegate/quotegate/internal/quote"
)

// MakeQuote builds a plausible quote fixture.
func MakeQuote(symbol string, price float64, source string) quote.Quote {
	p := decimal.NewFromFloat(price)
	return quote.Quote{
		Symbol:        symbol,
		Price:         p,
		Change:        decimal.NewFromFloat(0.42),
		ChangePercent: decimal.NewFromFloat(1.5),
		Volume:        1_000_000,
		Open:          p,
		High:          p.Add(decimal.NewFromInt(1)),
		Low:           p.Sub(decimal.NewFromInt(1)),
		PreviousClose: p,
		Timestamp:     time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC),
		Source:        source,
	}
}

// StubProvider is a scripted provider.Provider implementation recording
// every requested symbol.
type StubProvider struct {
	ProviderName string

	mu     sync.Mutex
	quotes map[string]quote.Quote
	errs   map[string]error
	calls  []string
}

// NewStubProvider creates a stub provider with the given source name.
func NewStubProvider(name string) *StubProvider {
	return &StubProvider{
		ProviderName: name,
		quotes:       make(map[string]quote.Quote),
		errs:         make(map[string]error),
	}
}

// WithQuote scripts a successful response for symbol.
func (s *StubProvider) WithQuote(symbol string, q quote.Quote) *StubProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = q
	return s
}

// WithError scripts a failure for symbol.
func (s *StubProvider) WithError(symbol string, err error) *StubProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[symbol] = err
	return s
}

// Name implements provider.Provider.
func (s *StubProvider) Name() string { return s.ProviderName }

// Quote implements provider.Provider.
func (s *StubProvider) Quote(_ context.Context, symbol string) (quote.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, symbol)

	if err, ok := s.errs[symbol]; ok {
		return quote.Quote{}, err
	}
	if q, ok := s.quotes[symbol]; ok {
		return q, nil
	}
	return quote.Quote{}, &quote.ValidationError{
		Source: s.ProviderName,
		Symbol: symbol,
		Reason: "not scripted",
	}
}

// Calls returns every symbol requested so far, in order.
func (s *StubProvider) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// MapStore is a trivial cache.Store implementation backed by a plain
// map, with no TTL or eviction. It keeps tests free of write buffering.
type MapStore[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

// NewMapStore creates an empty map store.
func NewMapStore[V any]() *MapStore[V] {
	return &MapStore[V]{items: make(map[string]V)}
}

func (m *MapStore[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MapStore[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

func (m *MapStore[V]) SetTTL(key string, value V, _ time.Duration) {
	m.Set(key, value)
}

func (m *MapStore[V]) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

func (m *MapStore[V]) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	delete(m.items, key)
	return ok
}

func (m *MapStore[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]V)
}

func (m *MapStore[V]) Close() {}
