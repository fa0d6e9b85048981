package live

import (
	"errors"
	"fmt"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
)

var (
	// ErrReadOnly is returned when another scorer holds the match or the
	// caller may not score it at all.
	ErrReadOnly = errors.New("match is read-only for this user")
	// ErrNotApplicable means the operation does not fit the current state
	// and changed nothing.
	ErrNotApplicable = errors.New("not applicable in the current state")
	ErrBallNotFound  = errors.New("ball not found")
	ErrBusy          = errors.New("match inbox full")
	ErrClosed        = errors.New("match closed")
	ErrNotFound      = replica.ErrNotFound
)

// ValidationError carries a message meant for the scorer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ErrCannotUndo is returned when there is nothing undoable in the open innings.
var ErrCannotUndo = &ValidationError{Msg: "cannot undo"}

const (
	msgStartFields    = "All fields are required to start the match."
	msgSameBatters    = "Striker and Non-Striker must be different players."
	msgNeedBatter     = "Select the new batter before the next ball."
	msgNeedBowler     = "Select a bowler for the next over."
	msgConsecutive    = "A bowler cannot bowl consecutive overs."
	msgQuotaReached   = "%s has bowled the maximum number of overs."
	msgNotInSquad     = "%s is not in the %s squad."
	msgAlreadyOut     = "%s is already out."
	msgAlreadyBatting = "%s is already batting."
)
