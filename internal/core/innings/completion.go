package innings

import (
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

type Reason string

const (
	ReasonNone           Reason = ""
	ReasonAllOut         Reason = "all out"
	ReasonOversExhausted Reason = "overs exhausted"
	ReasonTargetReached  Reason = "target reached"
	ReasonDeclared       Reason = "declared"
	ReasonConcluded      Reason = "concluded"
)

// Params are the rule inputs of the completion check.
type Params struct {
	OversAllowed   int
	PlayersPerSide int
	// RosterSize is the batting side's current squad size. Only consulted
	// for flexible squads, which have no fixed eleven.
	RosterSize    int
	FlexibleSquad bool
	Format        match.Format
}

func ParamsFor(r rules.Rules, rosterSize int) Params {
	return Params{
		OversAllowed:   r.OversPerInnings,
		PlayersPerSide: r.PlayersPerSide,
		RosterSize:     rosterSize,
		FlexibleSquad:  r.FlexibleSquad,
		Format:         r.Format,
	}
}

// CheckEnd reports why the open innings is over, or ReasonNone. Conditions
// are checked in a fixed order so all out wins over overs exhausted when one
// ball causes both. A vacant batting slot alone never ends an innings.
func CheckEnd(s *match.MatchState, p Params) Reason {
	if s.IsCompleted {
		return ReasonNone
	}
	if _, open := s.OpenInnings(); !open {
		return ReasonNone
	}
	if allOut(s, p) {
		return ReasonAllOut
	}
	if p.OversAllowed > 0 && s.TotalBalls >= p.OversAllowed*6 {
		return ReasonOversExhausted
	}
	if s.Target != nil && s.Score >= *s.Target {
		return ReasonTargetReached
	}
	if s.Adjustments.Concluded {
		return ReasonConcluded
	}
	if s.Adjustments.Declared {
		return ReasonDeclared
	}
	return ReasonNone
}

func allOut(s *match.MatchState, p Params) bool {
	if p.FlexibleSquad {
		return p.RosterSize > 1 && s.Wickets >= p.RosterSize-1
	}
	players := p.PlayersPerSide
	if players <= 0 {
		players = 11
	}
	return s.Wickets >= players-1
}

// IsMatchOver decides whether an innings ending for reason also ends the match.
func IsMatchOver(s *match.MatchState, reason Reason, r rules.Rules) bool {
	switch reason {
	case ReasonNone:
		return false
	case ReasonConcluded, ReasonTargetReached:
		return true
	}
	if s.Innings >= r.MaxInnings() {
		return true
	}
	if r.InningsPerSide == 2 && s.Innings == 3 {
		// Third innings side still behind: beaten by an innings.
		return aggregate(s, s.BattingTeamID) < aggregate(s, s.BowlingTeamID)
	}
	return false
}
