package live

import (
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

// readyToBowl requires both batters at the crease. A missing bowler is
// left to the engine.
func (mc *MatchContext) readyToBowl() error {
	s := mc.engine.State()
	if _, open := s.OpenInnings(); !open || s.IsCompleted {
		return nil
	}
	if s.StrikerID == "" || s.NonStrikerID == "" {
		return invalid(msgNeedBatter)
	}
	return nil
}

// inSquad checks membership when the roster knows the team. Matches
// against unknown teams accept any id.
func (mc *MatchContext) inSquad(teamID, playerID string) error {
	if _, known := mc.roster.Team(teamID); !known {
		return nil
	}
	if _, ok := mc.roster.Player(teamID, playerID); !ok {
		return invalid(msgNotInSquad, mc.roster.Name(playerID), mc.roster.TeamName(teamID))
	}
	return nil
}

// previousOverBowler returns who bowled the over that just finished, or ""
// mid-over and before the first over.
func previousOverBowler(s *match.MatchState) string {
	if s.TotalBalls == 0 || s.TotalBalls%6 != 0 {
		return ""
	}
	evs := s.InningsEvents(s.Innings)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].IsDelivery() && evs[i].IsLegal() {
			return evs[i].BowlerID
		}
	}
	return ""
}

func (mc *MatchContext) checkBowler(s *match.MatchState, bowlerID string) error {
	if err := mc.inSquad(s.BowlingTeamID, bowlerID); err != nil {
		return err
	}
	if bowlerID == previousOverBowler(s) {
		return invalid(msgConsecutive)
	}
	if a := mc.rules.BowlerAvailability(s, bowlerID); !a.Available {
		return invalid(msgQuotaReached, mc.roster.Name(bowlerID))
	}
	return nil
}

func (mc *MatchContext) checkBatter(s *match.MatchState, playerID string) error {
	if err := mc.inSquad(s.BattingTeamID, playerID); err != nil {
		return err
	}
	if s.DismissedIn(s.Innings)[playerID] {
		return invalid(msgAlreadyOut, mc.roster.Name(playerID))
	}
	if playerID == s.StrikerID || playerID == s.NonStrikerID {
		return invalid(msgAlreadyBatting, mc.roster.Name(playerID))
	}
	return nil
}
