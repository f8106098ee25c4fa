// Package feed defines the JSON frame types pushed to dashboard clients
// over the /ws endpoint and the hub that fans them out. Frames carry a
// type discriminator so clients can dispatch without decoding payloads.
package feed

import (
	"encoding/json"
	"time"

	"github.com/autorl-dev/autorl/internal/domain"
)

// Frame type constants
const (
	TypeConnectionEstablished = "connection_established"
	TypeTaskUpdate            = "task_update"
	TypeHeartbeat             = "heartbeat"
	TypeAttention             = "attention"
	TypeGesture               = "gesture"
)

// Envelope wraps all frames with a type discriminator.
// When marshaling, Payload can be any frame struct.
// When unmarshaling, use EnvelopeRaw for type-based dispatch.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EnvelopeRaw is used for receiving frames where the payload needs to be
// unmarshaled based on the frame type.
type EnvelopeRaw struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalEnvelope creates an envelope with the given type and payload
func MarshalEnvelope(frameType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Type: frameType, Payload: payload})
}

// ConnectionEstablishedPayload greets a newly connected client
type ConnectionEstablishedPayload struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// TaskUpdatePayload relays a lifecycle event from a simulation run
type TaskUpdatePayload struct {
	Event domain.LifecycleEvent `json:"event"`
}

// HeartbeatPayload is sent periodically to all clients
type HeartbeatPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Clients   int       `json:"clients"`
}

// AttentionPayload marks where the simulated agent is looking on screen.
// Coordinates are normalized to [0, 1].
type AttentionPayload struct {
	RunID int64   `json:"run_id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// GesturePayload describes a simulated input gesture
type GesturePayload struct {
	RunID   int64   `json:"run_id"`
	Gesture string  `json:"gesture"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}
