package match

import "fmt"

type Format string

const (
	FormatT20    Format = "T20"
	FormatODI    Format = "ODI"
	FormatTest   Format = "Test"
	FormatCustom Format = "Custom"
)

// InningsScore is the record of one team's innings. At most one entry is
// open (IsComplete false) at a time, and it tracks the live counters.
type InningsScore struct {
	TeamID     string `json:"teamId"`
	Innings    int    `json:"innings"`
	Score      int    `json:"score"`
	Wickets    int    `json:"wickets"`
	Balls      int    `json:"balls"`
	IsComplete bool   `json:"isComplete"`
	Declared   bool   `json:"declared,omitempty"`
	FollowOn   bool   `json:"followOn,omitempty"`
}

// MatchTimer tracks elapsed playing time. Times are unix milliseconds.
type MatchTimer struct {
	StartTime       int64 `json:"startTime"`
	IsPaused        bool  `json:"isPaused"`
	LastPauseTime   int64 `json:"lastPauseTime"`
	TotalAllowances int64 `json:"totalAllowances"`
}

// Adjustments holds multi-day bookkeeping and forced-end flags.
type Adjustments struct {
	CurrentDay             int  `json:"currentDay"`
	Session                int  `json:"session"`
	LastHour               bool `json:"lastHour"`
	LastHourOvers          int  `json:"lastHourOvers,omitempty"`
	LastHourStartBalls     int  `json:"lastHourStartBalls,omitempty"`
	LastHourBalls          int  `json:"lastHourBalls,omitempty"`
	LastHourOversRemaining int  `json:"lastHourOversRemaining,omitempty"`
	Declared               bool `json:"declared,omitempty"`
	Concluded              bool `json:"concluded"`
}

// Settings are the format choices a match was created with. Rules are
// re-derived from them whenever a saved state is loaded.
type Settings struct {
	OversPerInnings int  `json:"oversPerInnings,omitempty"`
	PlayersPerSide  int  `json:"playersPerSide,omitempty"`
	FlexibleSquad   bool `json:"flexibleSquad,omitempty"`
	Days            int  `json:"days,omitempty"`
}

// MatchState is the complete, serializable state of one match. Its JSON
// form is the saved state exchanged with the remote store.
type MatchState struct {
	ID       string   `json:"id"`
	Format   Format   `json:"format"`
	Settings Settings `json:"settings"`

	BattingTeamID string `json:"battingTeamId"`
	BowlingTeamID string `json:"bowlingTeamId"`

	Score      int `json:"score"`
	Wickets    int `json:"wickets"`
	TotalBalls int `json:"totalBalls"`

	StrikerID    string `json:"strikerId"`
	NonStrikerID string `json:"nonStrikerId"`
	BowlerID     string `json:"bowlerId"`

	Innings int `json:"innings"`

	// History is chronological; Recent gives the newest-first view.
	History       []BallEvent    `json:"history"`
	InningsScores []InningsScore `json:"inningsScores"`

	IsCompleted      bool   `json:"isCompleted"`
	CompletionReason string `json:"completionReason,omitempty"`
	Target           *int   `json:"target,omitempty"`

	Timer          MatchTimer  `json:"matchTimer"`
	Umpires        []string    `json:"umpires,omitempty"`
	ActiveScorerID string      `json:"activeScorerId,omitempty"`
	Adjustments    Adjustments `json:"adjustments"`

	Version   int64 `json:"version"`
	UpdatedAt int64 `json:"updatedAt"`
}

// NewMatchState returns a fresh match with the first innings open.
func NewMatchState(id string, format Format, battingTeamID, bowlingTeamID string) *MatchState {
	return &MatchState{
		ID:            id,
		Format:        format,
		BattingTeamID: battingTeamID,
		BowlingTeamID: bowlingTeamID,
		Innings:       1,
		History:       []BallEvent{},
		InningsScores: []InningsScore{{TeamID: battingTeamID, Innings: 1}},
		Adjustments:   Adjustments{CurrentDay: 1, Session: 1},
	}
}

// Clone returns a deep copy.
func (s *MatchState) Clone() *MatchState {
	if s == nil {
		return nil
	}
	c := *s
	c.History = make([]BallEvent, len(s.History))
	for i, b := range s.History {
		if b.PitchCoords != nil {
			p := *b.PitchCoords
			b.PitchCoords = &p
		}
		if b.ShotCoords != nil {
			p := *b.ShotCoords
			b.ShotCoords = &p
		}
		c.History[i] = b
	}
	c.InningsScores = append([]InningsScore(nil), s.InningsScores...)
	if s.Umpires != nil {
		c.Umpires = append([]string(nil), s.Umpires...)
	}
	if s.Target != nil {
		t := *s.Target
		c.Target = &t
	}
	return &c
}

// Recent returns history newest-first.
func (s *MatchState) Recent() []BallEvent {
	out := make([]BallEvent, len(s.History))
	for i, b := range s.History {
		out[len(s.History)-1-i] = b
	}
	return out
}

// InningsEvents returns the chronological events of the given innings.
func (s *MatchState) InningsEvents(innings int) []BallEvent {
	var out []BallEvent
	for _, b := range s.History {
		if b.Innings == innings {
			out = append(out, b)
		}
	}
	return out
}

// CurrentOver returns the events of the over in progress, or of the over
// just completed when the bowler has not been changed yet.
func (s *MatchState) CurrentOver() []BallEvent {
	over := s.TotalBalls / 6
	if s.TotalBalls > 0 && s.TotalBalls%6 == 0 {
		over--
	}
	var out []BallEvent
	for _, b := range s.History {
		if b.Innings == s.Innings && b.IsDelivery() && b.Over == over {
			out = append(out, b)
		}
	}
	return out
}

// OpenInnings returns the open innings record, if any.
func (s *MatchState) OpenInnings() (InningsScore, bool) {
	if i := s.openIndex(); i >= 0 {
		return s.InningsScores[i], true
	}
	return InningsScore{}, false
}

func (s *MatchState) openIndex() int {
	for i := len(s.InningsScores) - 1; i >= 0; i-- {
		if !s.InningsScores[i].IsComplete {
			return i
		}
	}
	return -1
}

// InningsByNumber returns the record for the given innings number.
func (s *MatchState) InningsByNumber(innings int) (InningsScore, bool) {
	for _, is := range s.InningsScores {
		if is.Innings == innings {
			return is, true
		}
	}
	return InningsScore{}, false
}

// TeamInnings returns the records of one team in innings order.
func (s *MatchState) TeamInnings(teamID string) []InningsScore {
	var out []InningsScore
	for _, is := range s.InningsScores {
		if is.TeamID == teamID {
			out = append(out, is)
		}
	}
	return out
}

// TeamAggregate sums every innings of a team, the open one included.
func (s *MatchState) TeamAggregate(teamID string) int {
	total := 0
	for _, is := range s.TeamInnings(teamID) {
		total += is.Score
	}
	return total
}

// DismissedIn returns the ids dismissed (or retired out) in an innings.
func (s *MatchState) DismissedIn(innings int) map[string]bool {
	out := make(map[string]bool)
	for _, b := range s.History {
		if b.Innings != innings {
			continue
		}
		switch {
		case b.IsDelivery() && b.IsWicket:
			out[b.OutPlayerID] = true
		case b.Kind == KindRetirement && b.Retirement == RetiredOut:
			out[b.SubjectID] = true
		}
	}
	return out
}

// Overs formats a legal ball count as "O.B".
func Overs(balls int) string {
	return fmt.Sprintf("%d.%d", balls/6, balls%6)
}
