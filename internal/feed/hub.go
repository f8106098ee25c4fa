package feed

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/autorl-dev/autorl/internal/domain"
)

// sendBuffer is the per-client outbound queue; clients that fall this far
// behind are dropped rather than blocking the broadcast path.
const sendBuffer = 32

// writeWait is time allowed to write a frame to a client
const writeWait = 10 * time.Second

// Hub fans frames out to connected WebSocket clients
type Hub struct {
	upgrader          websocket.Upgrader
	heartbeatInterval time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Envelope
}

// NewHub creates a hub broadcasting heartbeats at the given interval
func NewHub(heartbeatInterval time.Duration) *Hub {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		heartbeatInterval: heartbeatInterval,
		clients:           make(map[*client]struct{}),
	}
}

// Run emits heartbeat frames until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.Broadcast(Envelope{Type: TypeHeartbeat, Payload: HeartbeatPayload{
				Timestamp: time.Now(),
				Clients:   h.ClientCount(),
			}})
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues a frame for every connected client. Clients whose
// queue is full are disconnected.
func (h *Hub) Broadcast(env Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- env:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// BroadcastEvent relays a lifecycle event as a task_update frame, plus
// the attention/gesture frames the dashboard overlays on the device view
func (h *Hub) BroadcastEvent(ev domain.LifecycleEvent) {
	h.Broadcast(Envelope{Type: TypeTaskUpdate, Payload: TaskUpdatePayload{Event: ev}})

	switch ev.Kind {
	case domain.KindPerception:
		h.Broadcast(Envelope{Type: TypeAttention, Payload: AttentionPayload{
			RunID: ev.RunID, X: 0.5, Y: 0.32, Label: "screen_scan",
		}})
	case domain.KindExecutionStart, domain.KindRecoveryExecute:
		h.Broadcast(Envelope{Type: TypeGesture, Payload: GesturePayload{
			RunID: ev.RunID, Gesture: "tap", X: 0.62, Y: 0.71,
		}})
	}
}

// HandleWebSocket upgrades the connection and registers the client
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan Envelope, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	c.send <- Envelope{Type: TypeConnectionEstablished, Payload: ConnectionEstablishedPayload{
		ClientID: c.id,
		Message:  "connected to autorl feed",
	}}

	go c.writePump()
	go h.readPump(c)
}

// writePump drains the send queue to the connection
func (c *client) writePump() {
	defer c.conn.Close()
	for env := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(env); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeWait))
}

// readPump discards inbound frames and unregisters on disconnect
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
