package fanout

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is the best-effort "new job enqueued" broadcast. Preview is
// truncated by the producer; subscribers get no delivery guarantee.
type Event struct {
	ID             int64  `json:"id"`
	Phone          string `json:"phone"`
	MessagePreview string `json:"messagePreview"`
	Kind           string `json:"kind,omitempty"`
}

const writeWait = 5 * time.Second

// Hub tracks connected dashboard sockets and pushes events to them.
// Losing a subscriber, or having none at all, is never an error.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// Add registers a connection and starts draining its reads so pings and
// close frames are processed until the peer goes away.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.mu.Unlock()

	slog.Info("fanout client connected", "clients", total)

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			remaining := len(h.clients)
			h.mu.Unlock()
			_ = conn.Close()
			slog.Info("fanout client disconnected", "clients", remaining)
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends ev to every connected client. Write failures drop the
// client; nothing is reported back to the caller.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
