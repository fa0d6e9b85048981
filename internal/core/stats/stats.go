package stats

import (
	"math"
	"time"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

type BatterStats struct {
	PlayerID   string           `json:"playerId"`
	Runs       int              `json:"runs"`
	Balls      int              `json:"balls"`
	Fours      int              `json:"fours"`
	Sixes      int              `json:"sixes"`
	StrikeRate float64          `json:"strikeRate"`
	Out        bool             `json:"out"`
	HowOut     match.WicketType `json:"howOut,omitempty"`
	Retired    bool             `json:"retired,omitempty"`
}

type BowlerStats struct {
	PlayerID string  `json:"playerId"`
	Balls    int     `json:"balls"`
	Overs    string  `json:"overs"`
	Maidens  int     `json:"maidens"`
	Runs     int     `json:"runs"`
	Wickets  int     `json:"wickets"`
	Economy  float64 `json:"economy"`
	Wides    int     `json:"wides"`
	NoBalls  int     `json:"noBalls"`
}

type Extras struct {
	Wides   int `json:"wides"`
	NoBalls int `json:"noBalls"`
	Byes    int `json:"byes"`
	LegByes int `json:"legByes"`
	Total   int `json:"total"`
}

type Partnership struct {
	Runs  int `json:"runs"`
	Balls int `json:"balls"`
}

// Summary is the scorecard projection of one innings.
type Summary struct {
	Innings  int           `json:"innings"`
	Batters  []BatterStats `json:"batters"`
	Bowlers  []BowlerStats `json:"bowlers"`
	Extras   Extras        `json:"extras"`
	RunRate  float64       `json:"runRate"`
	// RequiredRate is nil when not chasing or when the chase is decided.
	RequiredRate   *float64    `json:"requiredRate,omitempty"`
	RunsNeeded     int         `json:"runsNeeded,omitempty"`
	BallsRemaining int         `json:"ballsRemaining"` // -1 when unlimited
	Projected      int         `json:"projected"`
	Partnership    Partnership `json:"partnership"`
}

// Compute projects the current innings. oversAllowed of 0 means unlimited.
func Compute(s *match.MatchState, oversAllowed int) Summary {
	sum := ForInnings(s, s.Innings, oversAllowed)
	sum.RunRate = RunRate(s.Score, s.TotalBalls)
	sum.BallsRemaining = -1
	sum.Projected = s.Score
	if oversAllowed > 0 {
		sum.BallsRemaining = oversAllowed*6 - s.TotalBalls
		if sum.BallsRemaining < 0 {
			sum.BallsRemaining = 0
		}
		sum.Projected = s.Score + int(math.Round(sum.RunRate*float64(sum.BallsRemaining)/6))
	}
	if s.Target != nil {
		sum.RunsNeeded = *s.Target - s.Score
		if sum.RunsNeeded < 0 {
			sum.RunsNeeded = 0
		}
		if sum.BallsRemaining >= 0 {
			sum.RequiredRate = RequiredRate(*s.Target, s.Score, sum.BallsRemaining)
		}
	}
	return sum
}

// ForInnings aggregates batting, bowling and extras for any innings.
func ForInnings(s *match.MatchState, innings int, oversAllowed int) Summary {
	sum := Summary{Innings: innings}
	batters := map[string]*BatterStats{}
	bowlers := map[string]*BowlerStats{}
	var batOrder, bowlOrder []string

	batter := func(id string) *BatterStats {
		if id == "" {
			return nil
		}
		b, ok := batters[id]
		if !ok {
			b = &BatterStats{PlayerID: id}
			batters[id] = b
			batOrder = append(batOrder, id)
		}
		return b
	}
	bowler := func(id string) *BowlerStats {
		if id == "" {
			return nil
		}
		b, ok := bowlers[id]
		if !ok {
			b = &BowlerStats{PlayerID: id}
			bowlers[id] = b
			bowlOrder = append(bowlOrder, id)
		}
		return b
	}

	type overTally struct {
		bowler string
		legal  int
		runs   int
		mixed  bool
	}
	overs := map[int]*overTally{}

	for _, ev := range s.InningsEvents(innings) {
		switch ev.Kind {
		case match.KindOpeners:
			batter(ev.StrikerID)
			batter(ev.NonStrikerID)
			continue
		case match.KindNewBatter:
			batter(ev.SubjectID)
			continue
		case match.KindRetirement:
			if b := batter(ev.SubjectID); b != nil {
				b.Retired = true
				if ev.Retirement == match.RetiredOut {
					b.Out = true
				}
			}
			sum.Partnership = Partnership{}
			continue
		case match.KindDelivery:
		default:
			continue
		}

		striker := batter(ev.StrikerID)
		batter(ev.NonStrikerID)
		if striker != nil {
			if ev.ExtraType != match.ExtraWide {
				striker.Balls++
			}
			if ev.ExtraType != match.ExtraBye && ev.ExtraType != match.ExtraLegBye {
				striker.Runs += ev.Runs
				switch ev.Runs {
				case 4:
					striker.Fours++
				case 6:
					striker.Sixes++
				}
			}
		}

		bw := bowler(ev.BowlerID)
		if bw != nil {
			bw.Runs += ev.BowlerRuns()
			if ev.IsLegal() {
				bw.Balls++
			}
			switch ev.ExtraType {
			case match.ExtraWide:
				bw.Wides++
			case match.ExtraNoBall:
				bw.NoBalls++
			}
			if ev.IsWicket && ev.WicketType.CreditsBowler() {
				bw.Wickets++
			}
		}

		ot, ok := overs[ev.Over]
		if !ok {
			ot = &overTally{bowler: ev.BowlerID}
			overs[ev.Over] = ot
		}
		if ot.bowler != ev.BowlerID {
			ot.mixed = true
		}
		ot.runs += ev.BowlerRuns()
		if ev.IsLegal() {
			ot.legal++
		}

		extra := ev.ExtraRuns + ev.ExtraType.Penalty()
		switch ev.ExtraType {
		case match.ExtraWide:
			sum.Extras.Wides += extra
		case match.ExtraNoBall:
			sum.Extras.NoBalls += extra
		case match.ExtraBye:
			sum.Extras.Byes += extra
		case match.ExtraLegBye:
			sum.Extras.LegByes += extra
		}
		sum.Extras.Total += extra

		if ev.IsWicket {
			if out := batter(ev.OutPlayerID); out != nil {
				out.Out = true
				out.HowOut = ev.WicketType
			}
			sum.Partnership = Partnership{}
		} else {
			sum.Partnership.Runs += ev.TotalRuns()
			if ev.IsLegal() {
				sum.Partnership.Balls++
			}
		}
	}

	for _, ot := range overs {
		if ot.legal == 6 && !ot.mixed && ot.runs == 0 {
			if bw := bowlers[ot.bowler]; bw != nil {
				bw.Maidens++
			}
		}
	}

	for _, id := range batOrder {
		b := batters[id]
		b.StrikeRate = StrikeRate(b.Runs, b.Balls)
		sum.Batters = append(sum.Batters, *b)
	}
	for _, id := range bowlOrder {
		b := bowlers[id]
		b.Overs = match.Overs(b.Balls)
		b.Economy = Economy(b.Runs, b.Balls)
		sum.Bowlers = append(sum.Bowlers, *b)
	}
	if is, ok := s.InningsByNumber(innings); ok {
		sum.RunRate = RunRate(is.Score, is.Balls)
	}
	return sum
}

func StrikeRate(runs, balls int) float64 {
	if balls == 0 {
		return 0
	}
	return float64(runs) * 100 / float64(balls)
}

func Economy(runs, balls int) float64 {
	if balls == 0 {
		return 0
	}
	return float64(runs) * 6 / float64(balls)
}

func RunRate(score, balls int) float64 {
	if balls == 0 {
		return 0
	}
	return float64(score) * 6 / float64(balls)
}

// RequiredRate returns runs per over needed to reach target, or nil when
// the chase is already decided (target met or no balls left).
func RequiredRate(target, score, ballsRemaining int) *float64 {
	need := target - score
	if need <= 0 || ballsRemaining <= 0 {
		return nil
	}
	rr := float64(need) * 6 / float64(ballsRemaining)
	return &rr
}

// OverRate is overs bowled per hour of playing time, net of pauses and
// allowances.
func OverRate(t match.MatchTimer, totalBalls int, now time.Time) float64 {
	if t.StartTime == 0 {
		return 0
	}
	elapsed := now.UnixMilli() - t.StartTime - t.TotalAllowances
	if t.IsPaused {
		elapsed -= now.UnixMilli() - t.LastPauseTime
	}
	if elapsed <= 0 {
		return 0
	}
	hours := float64(elapsed) / float64(time.Hour.Milliseconds())
	return float64(totalBalls) / 6 / hours
}
