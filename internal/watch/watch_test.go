package watch

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/quotegate/quotegate/internal/quote"
	"github.com/quotegate/quotegate/internal/testutil"
)

// stubResolver scripts GetMany responses and counts invocations.
type stubResolver struct {
	quotes map[string]quote.Quote
	calls  chan []string
}

func newStubResolver(symbols ...string) *stubResolver {
	r := &stubResolver{
		quotes: make(map[string]quote.Quote),
		calls:  make(chan []string, 16),
	}
	for _, s := range symbols {
		r.quotes[s] = testutil.MakeQuote(s, 10, "stub")
	}
	return r
}

func (r *stubResolver) GetMany(_ context.Context, symbols []string) map[string]quote.Quote {
	r.calls <- symbols

	out := make(map[string]quote.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := r.quotes[s]; ok {
			out[s] = q
		}
	}
	return out
}

// dial connects a test websocket client to the hub.
func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	t.Parallel()

	h := NewHub(zaptest.NewLogger(t))
	t.Cleanup(h.Close)

	conn := dial(t, h)

	h.Broadcast(Frame{Type: "quotes", Timestamp: time.Now().UTC()})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "quotes", frame.Type)
}

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub(zaptest.NewLogger(t))
	t.Cleanup(h.Close)

	// Must not panic or block.
	h.Broadcast(Frame{Type: "quotes"})
}

func TestHub_CloseDisconnectsSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub(zaptest.NewLogger(t))

	conn := dial(t, h)

	h.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestWatcher_New_Validation(t *testing.T) {
	t.Parallel()

	h := NewHub(zaptest.NewLogger(t))
	t.Cleanup(h.Close)
	resolver := newStubResolver()

	_, err := New(Config{Hub: h, Interval: time.Second})
	require.Error(t, err)

	_, err = New(Config{Resolver: resolver, Interval: time.Second})
	require.Error(t, err)

	_, err = New(Config{Resolver: resolver, Hub: h})
	require.Error(t, err)
}

func TestWatcher_RefreshBroadcastsWatchlist(t *testing.T) {
	t.Parallel()

	h := NewHub(zaptest.NewLogger(t))
	t.Cleanup(h.Close)

	resolver := newStubResolver("PETR4", "AAPL")
	w, err := New(Config{
		Symbols:  []string{"PETR4", "MISSING", "AAPL"},
		Interval: time.Hour,
		Resolver: resolver,
		Hub:      h,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	conn := dial(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "quotes", frame.Type)
	require.Len(t, frame.Quotes, 2)
	// Unresolvable symbols are absent; ordering follows the watchlist.
	assert.Equal(t, "PETR4", frame.Quotes[0].Symbol)
	assert.Equal(t, "AAPL", frame.Quotes[1].Symbol)

	assert.Equal(t, []string{"PETR4", "MISSING", "AAPL"}, <-resolver.calls)
}

func TestWatcher_EmptySymbolListIsNoOp(t *testing.T) {
	t.Parallel()

	h := NewHub(zaptest.NewLogger(t))
	t.Cleanup(h.Close)

	resolver := newStubResolver()
	w, err := New(Config{
		Interval: 10 * time.Millisecond,
		Resolver: resolver,
		Hub:      h,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	select {
	case <-resolver.calls:
		t.Fatal("resolver called despite empty watchlist")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcher_RefreshesOnInterval(t *testing.T) {
	t.Parallel()

	h := NewHub(zaptest.NewLogger(t))
	t.Cleanup(h.Close)

	resolver := newStubResolver("AAPL")
	w, err := New(Config{
		Symbols:  []string{"AAPL"},
		Interval: 10 * time.Millisecond,
		Resolver: resolver,
		Hub:      h,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// Immediate refresh plus at least one ticker-driven refresh.
	for i := 0; i < 2; i++ {
		select {
		case <-resolver.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("expected a watchlist refresh")
		}
	}
}
