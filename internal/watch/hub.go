// Package watch streams watchlist quote refreshes to websocket
// subscribers, the server-side counterpart of the dashboard's live
// watchlist view.
package watch

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 5 * time.Second

	// readLimit bounds inbound frames; subscribers are listen-only.
	readLimit = 512
)

// Hub tracks websocket subscribers and fans broadcast frames out to
// them. A subscriber that cannot keep up or errors on write is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a subscriber hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The dashboard is served from other origins in development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request and registers the connection. The read
// loop only consumes control frames and detects disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws-upgrade-failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	SubscribersGauge.Set(float64(count))
	h.logger.Info("ws-subscriber-connected", zap.Int("subscribers", count))

	go h.readLoop(conn)
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(readLimit)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn, err)
			return
		}
	}
}

// Broadcast encodes frame once and writes it to every subscriber.
func (h *Hub) Broadcast(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("ws-encode-failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(conn, err)
		}
	}

	FramesTotal.Inc()
}

func (h *Hub) drop(conn *websocket.Conn, err error) {
	h.mu.Lock()
	_, known := h.clients[conn]
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()

	_ = conn.Close()
	if known {
		SubscribersGauge.Set(float64(count))
		h.logger.Info("ws-subscriber-dropped",
			zap.Int("subscribers", count),
			zap.Error(err))
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	SubscribersGauge.Set(0)
}
