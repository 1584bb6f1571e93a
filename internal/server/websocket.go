package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SmitUplenchwar2687/rewind/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev tool.
	},
}

// DefaultWriteTimeout bounds a single write to a dashboard client.
const DefaultWriteTimeout = 2 * time.Second

// Hub manages WebSocket clients and broadcasts received events.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*websocket.Conn]*sync.Mutex
	logger       *slog.Logger
	writeTimeout time.Duration
}

// NewHub creates a new WebSocket hub. A nil logger discards output.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		clients:      make(map[*websocket.Conn]*sync.Mutex),
		logger:       logger,
		writeTimeout: DefaultWriteTimeout,
	}
}

// HandleWebSocket upgrades the HTTP connection and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()

	// Read loop keeps the connection alive and notices disconnects.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// Broadcast sends v as JSON to all connected WebSocket clients. Writes
// happen outside the hub lock and each is bounded by the write timeout, so
// a stalled client is dropped instead of holding up the event handlers.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("websocket marshal failed", "error", err)
		return
	}

	type client struct {
		conn *websocket.Conn
		wmu  *sync.Mutex
	}
	h.mu.RLock()
	targets := make([]client, 0, len(h.clients))
	for conn, wmu := range h.clients {
		targets = append(targets, client{conn, wmu})
	}
	h.mu.RUnlock()

	for _, c := range targets {
		// gorilla allows one concurrent writer per connection.
		c.wmu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.wmu.Unlock()
		if err != nil {
			h.logger.Debug("websocket write failed", "error", err)
			// The read goroutine removes the client once the conn is closed.
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
