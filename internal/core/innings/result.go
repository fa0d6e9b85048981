package innings

import (
	"fmt"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeTie  Outcome = "tie"
	OutcomeDraw Outcome = "draw"
)

// Result is the decided outcome of a completed match.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	WinnerID string  `json:"winnerId,omitempty"`
	LoserID  string  `json:"loserId,omitempty"`
	Margin   string  `json:"margin,omitempty"`
}

// Text renders the result with team names resolved by name.
func (r Result) Text(name func(teamID string) string) string {
	switch r.Outcome {
	case OutcomeTie:
		return "Match tied"
	case OutcomeDraw:
		return "Match drawn"
	}
	return fmt.Sprintf("%s won by %s", name(r.WinnerID), r.Margin)
}

// Decide computes the result from the final state. It is meaningful once
// IsMatchOver has returned true for the final innings.
func Decide(s *match.MatchState, reason Reason, r rules.Rules) Result {
	bat, bowl := s.BattingTeamID, s.BowlingTeamID
	if reason == ReasonTargetReached || (s.Target != nil && s.Score >= *s.Target) {
		return Result{
			Outcome:  OutcomeWin,
			WinnerID: bat,
			LoserID:  bowl,
			Margin:   plural(wicketsInHand(s, r), "wicket"),
		}
	}
	if reason == ReasonConcluded {
		return Result{Outcome: OutcomeDraw}
	}
	batAgg, bowlAgg := aggregate(s, bat), aggregate(s, bowl)
	if r.InningsPerSide == 2 && s.Innings == 3 && batAgg < bowlAgg {
		return Result{
			Outcome:  OutcomeWin,
			WinnerID: bowl,
			LoserID:  bat,
			Margin:   "an innings and " + plural(bowlAgg-batAgg, "run"),
		}
	}
	if s.Target != nil {
		short := *s.Target - 1 - s.Score
		if short == 0 {
			return Result{Outcome: OutcomeTie}
		}
		return Result{Outcome: OutcomeWin, WinnerID: bowl, LoserID: bat, Margin: plural(short, "run")}
	}
	return Result{Outcome: OutcomeDraw}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
