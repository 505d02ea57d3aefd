package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signalgate/internal/logging"
)

var hubLog = logging.For("api.hub")

// EventType names the typed events published on the admin WebSocket stream,
// per spec.md §6.
type EventType string

const (
	EventMetricsUpdate          EventType = "metrics_update"
	EventStatusUpdate           EventType = "status_update"
	EventPositionsUpdate        EventType = "positions_update"
	EventFinvizStrategyChanged  EventType = "finviz_strategy_changed"
	EventOrderStatusChange      EventType = "order_status_change"
)

// Event is the envelope broadcast to every connected admin client.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans typed events out to every connected admin WebSocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Broadcast publishes an event to every connected client. Slow clients are
// dropped rather than allowed to back-pressure the publisher.
func (h *Hub) Broadcast(evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		hubLog.Errorf("marshal event %s: %v", evt.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			hubLog.Warnf("dropping slow websocket client")
			h.removeLocked(c)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	_ = c.conn.Close()
}

// ServeWS upgrades the request to a WebSocket connection and registers it
// with the Hub until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hubLog.Warnf("websocket upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 32)}
	h.add(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(4096)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
