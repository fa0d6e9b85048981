package rules

import (
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

const (
	defaultPlayersPerSide = 11
	t20Overs              = 20
	odiOvers              = 50
)

// Config is the format configuration a match was created with.
type Config struct {
	Format          match.Format
	OversPerInnings int
	PlayersPerSide  int
	FlexibleSquad   bool
	// Days is the scheduled length of a Test. Zero means five.
	Days int
}

// ConfigFor rebuilds the Config a match was created with.
func ConfigFor(s *match.MatchState) Config {
	return Config{
		Format:          s.Format,
		OversPerInnings: s.Settings.OversPerInnings,
		PlayersPerSide:  s.Settings.PlayersPerSide,
		FlexibleSquad:   s.Settings.FlexibleSquad,
		Days:            s.Settings.Days,
	}
}

// Settings is the inverse of ConfigFor.
func (c Config) Settings() match.Settings {
	return match.Settings{
		OversPerInnings: c.OversPerInnings,
		PlayersPerSide:  c.PlayersPerSide,
		FlexibleSquad:   c.FlexibleSquad,
		Days:            c.Days,
	}
}

// Override replaces resolved values for a format. Zero fields are ignored.
type Override struct {
	OversPerInnings   int `yaml:"overs_per_innings"`
	MaxOversPerBowler int `yaml:"max_overs_per_bowler"`
	PlayersPerSide    int `yaml:"players_per_side"`
	FollowOnThreshold int `yaml:"follow_on_threshold"`
}

// Rules are the values derived from a Config. Recompute them whenever
// they are needed; they are cheap and depend on nothing but the config.
type Rules struct {
	Format            match.Format
	OversPerInnings   int // 0 means unlimited
	MaxOversPerBowler int // 0 means unlimited
	PlayersPerSide    int
	FlexibleSquad     bool
	FollowOnThreshold int // 0 when the format has no follow-on
	InningsPerSide    int
}

// Resolve derives the rules for a format configuration.
func Resolve(cfg Config) Rules {
	r := Rules{
		Format:         cfg.Format,
		PlayersPerSide: cfg.PlayersPerSide,
		FlexibleSquad:  cfg.FlexibleSquad,
		InningsPerSide: 1,
	}
	if r.PlayersPerSide <= 0 {
		r.PlayersPerSide = defaultPlayersPerSide
	}

	switch cfg.Format {
	case match.FormatT20:
		r.OversPerInnings = t20Overs
	case match.FormatODI:
		r.OversPerInnings = odiOvers
	case match.FormatTest:
		r.InningsPerSide = 2
		r.FollowOnThreshold = followOnThreshold(cfg.Days)
	}
	if cfg.Format != match.FormatTest && cfg.OversPerInnings > 0 {
		r.OversPerInnings = cfg.OversPerInnings
	}
	if r.OversPerInnings > 0 {
		r.MaxOversPerBowler = (r.OversPerInnings + 4) / 5
	}
	return r
}

// ResolveWith applies a format override on top of Resolve.
func ResolveWith(cfg Config, o Override) Rules {
	r := Resolve(cfg)
	if o.OversPerInnings > 0 && cfg.Format != match.FormatTest {
		r.OversPerInnings = o.OversPerInnings
		r.MaxOversPerBowler = (r.OversPerInnings + 4) / 5
	}
	if o.MaxOversPerBowler > 0 {
		r.MaxOversPerBowler = o.MaxOversPerBowler
	}
	if o.PlayersPerSide > 0 && cfg.PlayersPerSide <= 0 {
		r.PlayersPerSide = o.PlayersPerSide
	}
	if o.FollowOnThreshold > 0 && cfg.Format == match.FormatTest {
		r.FollowOnThreshold = o.FollowOnThreshold
	}
	return r
}

func followOnThreshold(days int) int {
	switch {
	case days <= 0 || days >= 5:
		return 200
	case days >= 3:
		return 150
	case days == 2:
		return 100
	}
	return 75
}

// MaxBalls is the legal-ball cap per innings, or 0 when unlimited.
func (r Rules) MaxBalls() int { return r.OversPerInnings * 6 }

func (r Rules) MaxInnings() int { return r.InningsPerSide * 2 }

// Limits returns the values the engine enforces itself.
func (r Rules) Limits() match.Limits {
	return match.Limits{OversPerInnings: r.OversPerInnings, MaxInnings: r.MaxInnings()}
}

// Availability describes how much a bowler has bowled in the current innings.
type Availability struct {
	BowlerID       string
	BallsBowled    int
	OversStarted   int
	OversRemaining int // -1 when unlimited
	// Available reports whether the bowler may start a new over.
	Available bool
}

// BowlerAvailability counts the bowler's legal balls in the current innings.
// A part over counts as started.
func (r Rules) BowlerAvailability(s *match.MatchState, bowlerID string) Availability {
	a := Availability{BowlerID: bowlerID, OversRemaining: -1, Available: true}
	for _, b := range s.InningsEvents(s.Innings) {
		if b.IsLegal() && b.BowlerID == bowlerID {
			a.BallsBowled++
		}
	}
	a.OversStarted = (a.BallsBowled + 5) / 6
	if r.MaxOversPerBowler > 0 {
		a.OversRemaining = r.MaxOversPerBowler - a.OversStarted
		if a.OversRemaining < 0 {
			a.OversRemaining = 0
		}
		a.Available = a.OversRemaining > 0
	}
	return a
}
