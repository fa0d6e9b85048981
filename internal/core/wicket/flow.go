package wicket

import (
	"errors"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

type Step string

const (
	StepIdle              Step = "idle"
	StepStarted           Step = "started"
	StepTypeSelected      Step = "type_selected"
	StepOutPlayerSelected Step = "out_player_selected"
	StepFielderSelected   Step = "fielder_selected"
	StepConfirmed         Step = "confirmed"
)

var (
	ErrNotStarted   = errors.New("wicket flow not started")
	ErrOutOfOrder   = errors.New("wicket flow step out of order")
	ErrUnknownType  = errors.New("unknown wicket type")
	ErrNeedsFielder = errors.New("fielder required for this dismissal")
	ErrIncomplete   = errors.New("wicket selection incomplete")
)

// Flow collects one dismissal step by step before it reaches the engine.
// It holds no match state and is discarded after Confirm or Reset.
type Flow struct {
	step      Step
	kind      match.WicketType
	outPlayer string
	fielder   string
	runs      int
	extra     match.ExtraType
	extraRuns int
}

func New() *Flow { return &Flow{step: StepIdle} }

func (f *Flow) Step() Step { return f.step }

func (f *Flow) Type() match.WicketType { return f.kind }

// Start opens the flow from Idle, discarding nothing.
func (f *Flow) Start() error {
	if f.step != StepIdle {
		return ErrOutOfOrder
	}
	f.step = StepStarted
	f.kind = ""
	return nil
}

// SelectType chooses the dismissal. It may be changed until the out
// player is chosen.
func (f *Flow) SelectType(t match.WicketType) error {
	if f.step == StepIdle {
		return ErrNotStarted
	}
	if f.step != StepStarted && f.step != StepTypeSelected {
		return ErrOutOfOrder
	}
	if !t.Valid() {
		return ErrUnknownType
	}
	f.kind = t
	f.step = StepTypeSelected
	return nil
}

// SelectOutPlayer names the dismissed batter.
func (f *Flow) SelectOutPlayer(playerID string) error {
	if f.step == StepIdle {
		return ErrNotStarted
	}
	if f.step != StepTypeSelected || f.kind == "" || playerID == "" {
		return ErrOutOfOrder
	}
	f.outPlayer = playerID
	f.step = StepOutPlayerSelected
	return nil
}

// SelectFielder names the catcher, keeper or thrower.
func (f *Flow) SelectFielder(playerID string) error {
	if f.step != StepOutPlayerSelected && f.step != StepFielderSelected {
		return ErrOutOfOrder
	}
	if !f.kind.NeedsFielder() || playerID == "" {
		return ErrOutOfOrder
	}
	f.fielder = playerID
	f.step = StepFielderSelected
	return nil
}

// SetRuns records runs completed on the dismissal ball, e.g. before a run out.
func (f *Flow) SetRuns(runs int, extra match.ExtraType, extraRuns int) {
	f.runs, f.extra, f.extraRuns = runs, extra, extraRuns
}

// Ready reports whether Confirm would succeed.
func (f *Flow) Ready() bool {
	switch f.step {
	case StepOutPlayerSelected:
		return !f.kind.NeedsFielder()
	case StepFielderSelected:
		return true
	}
	return false
}

// Confirm finalizes the selection. The caller records the returned event
// with the engine and then calls Reset.
func (f *Flow) Confirm() (match.WicketEvent, error) {
	switch f.step {
	case StepIdle:
		return match.WicketEvent{}, ErrNotStarted
	case StepStarted, StepTypeSelected:
		return match.WicketEvent{}, ErrIncomplete
	case StepOutPlayerSelected:
		if f.kind.NeedsFielder() {
			return match.WicketEvent{}, ErrNeedsFielder
		}
	case StepConfirmed:
		return match.WicketEvent{}, ErrOutOfOrder
	}
	f.step = StepConfirmed
	return match.WicketEvent{
		Type:        f.kind,
		OutPlayerID: f.outPlayer,
		FielderID:   f.fielder,
		Runs:        f.runs,
		ExtraType:   f.extra,
		ExtraRuns:   f.extraRuns,
	}, nil
}

// Reset returns to Idle and drops any partial selection.
func (f *Flow) Reset() { *f = Flow{step: StepIdle} }
