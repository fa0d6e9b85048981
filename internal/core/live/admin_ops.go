package live

import (
	"context"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/innings"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

// StartRequest names the openers and the opening bowler of an innings.
type StartRequest struct {
	StrikerID    string `json:"strikerId"`
	NonStrikerID string `json:"nonStrikerId"`
	BowlerID     string `json:"bowlerId"`
}

// StartInnings sets the openers of the current innings. For the first
// innings this starts the match.
func (mc *MatchContext) StartInnings(ctx context.Context, who replica.Identity, req StartRequest) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "start", NotifyChange, func() (bool, error) {
		if req.StrikerID == "" || req.NonStrikerID == "" || req.BowlerID == "" {
			return false, invalid(msgStartFields)
		}
		if req.StrikerID == req.NonStrikerID {
			return false, invalid(msgSameBatters)
		}
		s := mc.engine.State()
		for _, id := range []string{req.StrikerID, req.NonStrikerID} {
			if err := mc.inSquad(s.BattingTeamID, id); err != nil {
				return false, err
			}
		}
		if err := mc.inSquad(s.BowlingTeamID, req.BowlerID); err != nil {
			return false, err
		}
		return mc.engine.SetOpeners(req.StrikerID, req.NonStrikerID, req.BowlerID), nil
	})
}

// SelectBowler fills the vacant bowler slot at the start of an over.
func (mc *MatchContext) SelectBowler(ctx context.Context, who replica.Identity, bowlerID string) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "bowler", NotifyChange, func() (bool, error) {
		s := mc.engine.State()
		if err := mc.checkBowler(s, bowlerID); err != nil {
			return false, err
		}
		return mc.engine.SelectBowler(bowlerID), nil
	})
}

// ReplaceBowler hands the rest of the current over to another bowler.
func (mc *MatchContext) ReplaceBowler(ctx context.Context, who replica.Identity, bowlerID string) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "replace_bowler", NotifyChange, func() (bool, error) {
		s := mc.engine.State()
		if err := mc.inSquad(s.BowlingTeamID, bowlerID); err != nil {
			return false, err
		}
		return mc.engine.ReplaceBowlerMidOver(bowlerID), nil
	})
}

// SelectBatter fills a vacant batting slot.
func (mc *MatchContext) SelectBatter(ctx context.Context, who replica.Identity, slot match.Slot, playerID string) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "batter", NotifyChange, func() (bool, error) {
		s := mc.engine.State()
		if err := mc.checkBatter(s, playerID); err != nil {
			return false, err
		}
		return mc.engine.SelectBatter(slot, playerID), nil
	})
}

// SwapBatters exchanges striker and non-striker.
func (mc *MatchContext) SwapBatters(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "swap", NotifyChange, func() (bool, error) {
		return mc.engine.SwapBatters(), nil
	})
}

// Retire takes a batter off the field.
func (mc *MatchContext) Retire(ctx context.Context, who replica.Identity, playerID string, kind match.RetirementType) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "retire", NotifyChange, func() (bool, error) {
		return mc.engine.RetireBatter(playerID, kind), nil
	})
}

// CorrectIdentity fixes a wrongly entered player in a slot from now on.
// Recorded balls keep the original id.
func (mc *MatchContext) CorrectIdentity(ctx context.Context, who replica.Identity, oldID, newID string, slot match.Slot) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "correct_identity", NotifyChange, func() (bool, error) {
		s := mc.engine.State()
		team := s.BattingTeamID
		if slot == match.SlotBowler {
			team = s.BowlingTeamID
		}
		if err := mc.inSquad(team, newID); err != nil {
			return false, err
		}
		return mc.engine.CorrectPlayerIdentity(oldID, newID, slot), nil
	})
}

// Declare closes the batting side's innings at its request.
func (mc *MatchContext) Declare(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "declare", NotifyChange, func() (bool, error) {
		return mc.engine.DeclareInnings(), nil
	})
}

// Conclude ends the match without a result from the open innings.
func (mc *MatchContext) Conclude(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "conclude", NotifyChange, func() (bool, error) {
		if !mc.engine.ConcludeInnings() {
			return false, nil
		}
		s := mc.engine.State()
		if _, open := s.OpenInnings(); !open {
			// Between innings there is nothing for the policy to close.
			mc.engine.EndInnings(true, string(innings.ReasonConcluded))
		}
		return true, nil
	})
}

// StartNextInnings opens the regular next innings with sides swapped.
func (mc *MatchContext) StartNextInnings(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "next_innings", NotifyChange, func() (bool, error) {
		s := mc.engine.State()
		if _, open := s.OpenInnings(); open {
			return false, nil
		}
		p, ok := innings.PlanNext(s, mc.rules)
		if !ok {
			return false, nil
		}
		return mc.engine.StartInnings(p.BattingTeamID, p.BowlingTeamID, p.Target, false), nil
	})
}

// EnforceFollowOn makes the side that just batted bat again.
func (mc *MatchContext) EnforceFollowOn(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "follow_on", NotifyChange, func() (bool, error) {
		p, ok := innings.PlanFollowOn(mc.engine.State(), mc.rules)
		if !ok {
			return false, nil
		}
		return mc.engine.StartInnings(p.BattingTeamID, p.BowlingTeamID, p.Target, true), nil
	})
}

func (mc *MatchContext) TriggerLastHour(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "last_hour", NotifyChange, func() (bool, error) {
		return mc.engine.TriggerLastHour(), nil
	})
}

// UpdateMetadata applies a merge-patch over non-scoring fields.
func (mc *MatchContext) UpdateMetadata(ctx context.Context, who replica.Identity, m match.Metadata) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "metadata", NotifyChange, func() (bool, error) {
		return mc.engine.UpdateMetadata(m), nil
	})
}

func (mc *MatchContext) PauseTimer(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "pause", NotifyChange, func() (bool, error) {
		return mc.engine.PauseTimer(), nil
	})
}

func (mc *MatchContext) ResumeTimer(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "resume", NotifyChange, func() (bool, error) {
		return mc.engine.ResumeTimer(), nil
	})
}

// ClaimLock makes who the active scorer.
func (mc *MatchContext) ClaimLock(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	return mc.mutate(ctx, who, "claim", NotifyChange, func() (bool, error) {
		id := who.ID
		return mc.engine.UpdateMetadata(match.Metadata{ActiveScorerID: &id}), nil
	})
}

// ReleaseLock clears the active scorer. Only the holder or an
// administrator get past the read-only gate.
func (mc *MatchContext) ReleaseLock(ctx context.Context, who replica.Identity) (*match.MatchState, error) {
	var out *match.MatchState
	err := mc.Do(ctx, func() error {
		s := mc.engine.State()
		if replica.ReadOnly(s, who) {
			return ErrReadOnly
		}
		empty := ""
		if !mc.engine.UpdateMetadata(match.Metadata{ActiveScorerID: &empty}) {
			return ErrNotApplicable
		}
		mc.settle("release", NotifyChange)
		out = mc.engine.Snapshot()
		return nil
	})
	return out, err
}
