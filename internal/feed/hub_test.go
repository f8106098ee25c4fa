package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autorl-dev/autorl/internal/domain"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) EnvelopeRaw {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var raw EnvelopeRaw
	if err := conn.ReadJSON(&raw); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return raw
}

func TestHub_ConnectionEstablished(t *testing.T) {
	hub := NewHub(time.Hour)
	conn := dialHub(t, hub)

	frame := readFrame(t, conn)
	if frame.Type != TypeConnectionEstablished {
		t.Errorf("first frame type = %q, want %q", frame.Type, TypeConnectionEstablished)
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", hub.ClientCount())
	}
}

func TestHub_BroadcastEventFrames(t *testing.T) {
	hub := NewHub(time.Hour)
	conn := dialHub(t, hub)
	readFrame(t, conn) // connection_established

	hub.BroadcastEvent(domain.LifecycleEvent{
		Kind:  domain.KindPerception,
		RunID: 3,
		Text:  "Captured screen state",
	})

	first := readFrame(t, conn)
	if first.Type != TypeTaskUpdate {
		t.Errorf("frame type = %q, want %q", first.Type, TypeTaskUpdate)
	}
	second := readFrame(t, conn)
	if second.Type != TypeAttention {
		t.Errorf("frame type = %q, want %q", second.Type, TypeAttention)
	}
}

func TestHub_ExecutionEmitsGesture(t *testing.T) {
	hub := NewHub(time.Hour)
	conn := dialHub(t, hub)
	readFrame(t, conn)

	hub.BroadcastEvent(domain.LifecycleEvent{
		Kind:  domain.KindExecutionStart,
		RunID: 4,
	})

	readFrame(t, conn) // task_update
	gesture := readFrame(t, conn)
	if gesture.Type != TypeGesture {
		t.Errorf("frame type = %q, want %q", gesture.Type, TypeGesture)
	}
}

func TestHub_Heartbeat(t *testing.T) {
	hub := NewHub(20 * time.Millisecond)
	conn := dialHub(t, hub)
	readFrame(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	frame := readFrame(t, conn)
	if frame.Type != TypeHeartbeat {
		t.Errorf("frame type = %q, want %q", frame.Type, TypeHeartbeat)
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(time.Hour)

	// Must not block or panic with nobody connected
	hub.Broadcast(Envelope{Type: TypeHeartbeat})
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}
