package innings

import (
	"fmt"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

// Plan is the next innings to open after the current one closes.
type Plan struct {
	BattingTeamID string
	BowlingTeamID string
	Target        *int
	FollowOn      bool
}

// PlanNext returns the regular next innings: sides swap, and the final
// innings of either format gets a target. ok is false when no innings is left.
func PlanNext(s *match.MatchState, r rules.Rules) (Plan, bool) {
	if s.IsCompleted || s.Innings >= r.MaxInnings() {
		return Plan{}, false
	}
	p := Plan{BattingTeamID: s.BowlingTeamID, BowlingTeamID: s.BattingTeamID}
	if s.Innings+1 == r.MaxInnings() {
		t := aggregate(s, p.BowlingTeamID) - aggregate(s, p.BattingTeamID) + 1
		if t < 1 {
			t = 1
		}
		p.Target = &t
	}
	return p, true
}

// CanEnforceFollowOn reports whether the side that batted first may make
// the other side bat again after the second innings.
func CanEnforceFollowOn(s *match.MatchState, r rules.Rules) bool {
	if r.Format != match.FormatTest || r.FollowOnThreshold <= 0 || s.IsCompleted || s.Innings != 2 {
		return false
	}
	first, ok1 := s.InningsByNumber(1)
	second, ok2 := s.InningsByNumber(2)
	if !ok1 || !ok2 || !second.IsComplete {
		return false
	}
	return first.Score-second.Score >= r.FollowOnThreshold
}

// PlanFollowOn keeps the same batting side for the third innings.
func PlanFollowOn(s *match.MatchState, r rules.Rules) (Plan, bool) {
	if !CanEnforceFollowOn(s, r) {
		return Plan{}, false
	}
	return Plan{BattingTeamID: s.BattingTeamID, BowlingTeamID: s.BowlingTeamID, FollowOn: true}, true
}

// StatusText describes the match position from the batting side's view:
// a chase requirement, or a lead or deficit in multi-innings play.
func StatusText(s *match.MatchState, r rules.Rules) string {
	if s.Target != nil {
		need := *s.Target - s.Score
		if need <= 0 {
			return "Won by " + plural(wicketsInHand(s, r), "wicket")
		}
		if r.OversPerInnings > 0 {
			left := r.MaxBalls() - s.TotalBalls
			if left < 0 {
				left = 0
			}
			return fmt.Sprintf("Need %s from %s", plural(need, "run"), plural(left, "ball"))
		}
		return fmt.Sprintf("Need %s to win", plural(need, "run"))
	}
	if s.Innings < 2 {
		return ""
	}
	diff := aggregate(s, s.BattingTeamID) - aggregate(s, s.BowlingTeamID)
	switch {
	case diff > 0:
		return "Lead by " + plural(diff, "run")
	case diff < 0:
		return "Trail by " + plural(-diff, "run")
	}
	return "Scores level"
}

func wicketsInHand(s *match.MatchState, r rules.Rules) int {
	players := r.PlayersPerSide
	if players <= 0 {
		players = 11
	}
	n := players - 1 - s.Wickets
	if n < 0 {
		return 0
	}
	return n
}

// aggregate sums a team's closed innings plus the live score of the open one.
func aggregate(s *match.MatchState, teamID string) int {
	total := 0
	for _, is := range s.TeamInnings(teamID) {
		if is.IsComplete {
			total += is.Score
		} else {
			total += s.Score
		}
	}
	return total
}
