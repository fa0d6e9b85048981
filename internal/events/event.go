package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the envelope that flows through the event bus.
// Every domain event (delivery, state change, innings end) is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	MatchID   string
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Scoring events, published from the match goroutine.
	EventBall            EventType = "ball"
	EventStateChanged    EventType = "state_changed"
	EventInningsComplete EventType = "innings_complete"
	EventMatchComplete   EventType = "match_complete"
	// Snapshot delivered by a remote store subscription or fanout push.
	EventRemoteChange EventType = "remote_change"
)

// New wraps a payload in an envelope with a fresh id.
func New(t EventType, matchID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		MatchID:   matchID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
