package notification

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Hub tracks open websocket connections per user so freshly created
// notifications can be pushed without polling.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string][]*websocket.Conn),
	}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userID] = append(h.conns[userID], conn)
}

func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	remaining := h.conns[userID][:0]
	for _, c := range h.conns[userID] {
		if c != conn {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		delete(h.conns, userID)
	} else {
		h.conns[userID] = remaining
	}
}

// Publish sends the notification to every open connection of the user.
// Write errors are ignored; the read loop tears the connection down.
// The exclusive lock serializes writers: the websocket library allows at
// most one concurrent writer per connection.
func (h *Hub) Publish(userID string, notification *Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.conns[userID] {
		conn.WriteMessage(websocket.TextMessage, payload)
	}
}
