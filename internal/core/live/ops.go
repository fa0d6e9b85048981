package live

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/wicket"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

// mutate runs fn on the match goroutine behind the write lock. fn reports
// whether it changed anything; a change claims the lock for who and is
// settled and announced. The returned state is a snapshot.
func (mc *MatchContext) mutate(ctx context.Context, who replica.Identity, op, kind string, fn func() (bool, error)) (*match.MatchState, error) {
	var out *match.MatchState
	err := mc.Do(ctx, func() error {
		s := mc.engine.State()
		mc.LastBall, mc.LastInnings = nil, nil
		if replica.ReadOnly(s, who) {
			telemetry.Metrics.ReadOnlyRejects.Inc()
			return ErrReadOnly
		}
		changed, err := fn()
		if err != nil {
			return err
		}
		if !changed {
			return ErrNotApplicable
		}
		if id, claim := replica.ClaimID(s, who); claim {
			mc.engine.UpdateMetadata(match.Metadata{ActiveScorerID: &id})
		}
		mc.settle(op, kind)
		out = mc.engine.Snapshot()
		return nil
	})
	return out, err
}

// BallRequest is one delivery as entered by the scorer.
type BallRequest struct {
	Runs        int             `json:"runs"`
	ExtraType   match.ExtraType `json:"extraType,omitempty"`
	ExtraRuns   int             `json:"extraRuns,omitempty"`
	Note        string          `json:"note,omitempty"`
	PitchCoords *match.Coord    `json:"pitchCoords,omitempty"`
	ShotCoords  *match.Coord    `json:"shotCoords,omitempty"`
	ShotHeight  string          `json:"shotHeight,omitempty"`
}

// ApplyBall records a delivery without a dismissal.
func (mc *MatchContext) ApplyBall(ctx context.Context, who replica.Identity, req BallRequest) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "ball", NotifyBall, func() (bool, error) {
		if err := mc.readyToBowl(); err != nil {
			return false, err
		}
		ev, err := mc.engine.ApplyBall(match.Delta{
			Runs:        req.Runs,
			ExtraType:   req.ExtraType,
			ExtraRuns:   req.ExtraRuns,
			Note:        req.Note,
			PitchCoords: req.PitchCoords,
			ShotCoords:  req.ShotCoords,
			ShotHeight:  req.ShotHeight,
		})
		if err != nil {
			telemetry.Metrics.BallsRejected.WithLabelValues(rejectReason(err)).Inc()
			return false, fmt.Errorf("apply ball: %w", err)
		}
		telemetry.Metrics.BallsApplied.Inc()
		mc.announceBall(ev)
		return true, nil
	})
}

// WicketRequest is a dismissal as entered through the wicket dialog.
type WicketRequest struct {
	Type match.WicketType `json:"type"`
	// OutPlayerID defaults to the striker.
	OutPlayerID string          `json:"outPlayerId,omitempty"`
	FielderID   string          `json:"fielderId,omitempty"`
	Runs        int             `json:"runs,omitempty"`
	ExtraType   match.ExtraType `json:"extraType,omitempty"`
	ExtraRuns   int             `json:"extraRuns,omitempty"`
}

// RecordWicket walks the wicket flow with the request and applies the
// confirmed dismissal.
func (mc *MatchContext) RecordWicket(ctx context.Context, who replica.Identity, req WicketRequest) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "wicket", NotifyWicket, func() (bool, error) {
		if err := mc.readyToBowl(); err != nil {
			return false, err
		}
		s := mc.engine.State()
		out := req.OutPlayerID
		if out == "" {
			out = s.StrikerID
		}
		if req.FielderID != "" {
			if err := mc.inSquad(s.BowlingTeamID, req.FielderID); err != nil {
				return false, err
			}
		}

		f := wicket.New()
		steps := []func() error{
			f.Start,
			func() error { return f.SelectType(req.Type) },
			func() error { return f.SelectOutPlayer(out) },
		}
		if req.Type.NeedsFielder() && req.FielderID != "" {
			steps = append(steps, func() error { return f.SelectFielder(req.FielderID) })
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return false, &ValidationError{Msg: err.Error()}
			}
		}
		f.SetRuns(req.Runs, req.ExtraType, req.ExtraRuns)
		w, err := f.Confirm()
		if err != nil {
			return false, &ValidationError{Msg: err.Error()}
		}

		ev, err := mc.engine.RecordWicket(w)
		if err != nil {
			telemetry.Metrics.BallsRejected.WithLabelValues(rejectReason(err)).Inc()
			return false, fmt.Errorf("record wicket: %w", err)
		}
		telemetry.Metrics.BallsApplied.Inc()
		telemetry.Metrics.Wickets.Inc()
		mc.announceBall(ev)
		return true, nil
	})
}

// Undo reverts the newest event of the current innings. Undoing the ball
// that closed the innings reopens it, and a decided result is withdrawn.
func (mc *MatchContext) Undo(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "undo", NotifyUndo, func() (bool, error) {
		if !mc.engine.UndoBall() {
			return false, ErrCannotUndo
		}
		if !mc.engine.State().IsCompleted {
			mc.Result = nil
		}
		telemetry.Metrics.Undos.Inc()
		return true, nil
	})
}

// EditBall corrects the delivery with the given timestamp.
func (mc *MatchContext) EditBall(ctx context.Context, who replica.Identity, timestamp int64, u match.BallUpdate) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "edit", NotifyEdit, func() (bool, error) {
		if !mc.engine.EditBall(timestamp, u) {
			return false, fmt.Errorf("edit %d: %w", timestamp, ErrBallNotFound)
		}
		telemetry.Metrics.Edits.Inc()
		return true, nil
	})
}

func rejectReason(err error) string {
	for _, e := range []error{
		match.ErrMatchCompleted,
		match.ErrInningsClosed,
		match.ErrOversExhausted,
		match.ErrBowlerRequired,
		match.ErrInvalidDelta,
	} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "other"
}
