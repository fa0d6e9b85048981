package fanout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
)

// Envelope is the wire format for events sent over the fanout WebSocket.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	MatchID   string          `json:"match_id"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes an Event into a JSON-encoded Envelope.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Type:      string(evt.Type),
		ID:        evt.ID,
		MatchID:   evt.MatchID,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	}
	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON Envelope back into a typed Event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		ID:        env.ID,
		Type:      events.EventType(env.Type),
		MatchID:   env.MatchID,
		Timestamp: env.Timestamp,
	}

	switch evt.Type {
	case events.EventStateChanged:
		var sc events.StateChangedEvent
		if err := json.Unmarshal(env.Payload, &sc); err != nil {
			return evt, fmt.Errorf("unmarshal state_changed: %w", err)
		}
		if sc.State == nil {
			return evt, fmt.Errorf("state_changed without state")
		}
		evt.Payload = sc
	case events.EventBall:
		var b events.BallEvent
		if err := json.Unmarshal(env.Payload, &b); err != nil {
			return evt, fmt.Errorf("unmarshal ball: %w", err)
		}
		evt.Payload = b
	case events.EventInningsComplete:
		var ic events.InningsCompleteEvent
		if err := json.Unmarshal(env.Payload, &ic); err != nil {
			return evt, fmt.Errorf("unmarshal innings_complete: %w", err)
		}
		evt.Payload = ic
	case events.EventMatchComplete:
		var mc events.MatchCompleteEvent
		if err := json.Unmarshal(env.Payload, &mc); err != nil {
			return evt, fmt.Errorf("unmarshal match_complete: %w", err)
		}
		evt.Payload = mc
	default:
		return evt, fmt.Errorf("unknown event type: %s", env.Type)
	}

	return evt, nil
}
