package events

import (
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/innings"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

// BallEvent is published after every delivery. Names are resolved from the
// roster so narration layers need no lookups of their own.
type BallEvent struct {
	Innings       int    `json:"innings"`
	Over          string `json:"over"` // "O.B" after the ball
	Runs          int    `json:"runs"`
	ExtraType     string `json:"extraType,omitempty"`
	ExtraRuns     int    `json:"extraRuns,omitempty"`
	IsWicket      bool   `json:"isWicket,omitempty"`
	WicketType    string `json:"wicketType,omitempty"`
	StrikerName   string `json:"strikerName"`
	BowlerName    string `json:"bowlerName"`
	OutPlayerName string `json:"outPlayerName,omitempty"`
	FielderName   string `json:"fielderName,omitempty"`
	Score         int    `json:"score"`
	Wickets       int    `json:"wickets"`
	Commentary    string `json:"commentary"`

	// Set on the sixth legal ball of an over.
	OverComplete bool   `json:"overComplete,omitempty"`
	OverSummary  string `json:"overSummary,omitempty"`
}

// StateChangedEvent carries the full state after a mutation. State is a
// snapshot owned by the receiver.
type StateChangedEvent struct {
	State *match.MatchState `json:"state"`
	// Op names the operation that produced the change, e.g. "ball", "undo".
	Op string `json:"op"`
}

// InningsCompleteEvent fires when the completion policy closes an innings.
type InningsCompleteEvent struct {
	Innings   int    `json:"innings"`
	TeamID    string `json:"teamId"`
	Reason    string `json:"reason"`
	MatchOver bool   `json:"matchOver"`
	Score     int    `json:"score"`
	Wickets   int    `json:"wickets"`
	Balls     int    `json:"balls"`
}

// MatchCompleteEvent fires once when the match is decided or concluded.
type MatchCompleteEvent struct {
	Reason     string            `json:"reason"`
	Result     innings.Result    `json:"result"`
	ResultText string            `json:"resultText"`
	State      *match.MatchState `json:"state"`
}

// RemoteChangeEvent is a snapshot of another client's write.
type RemoteChangeEvent struct {
	State  *match.MatchState `json:"state"`
	Source string            `json:"source"`
}
