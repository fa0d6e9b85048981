package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/innings"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/stats"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/roster"
)

const (
	dividerHeavy = "========================================================================"
	dividerLight = "~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~"
)

// Board is what one scoreboard print needs.
type Board struct {
	State     *match.MatchState
	Rules     rules.Rules
	Roster    roster.Provider
	LastBall  *events.BallEvent
	Result    *innings.Result
	EventType string
	Now       time.Time
}

// PrintScoreboard renders the board to w.
func PrintScoreboard(w io.Writer, bd Board) {
	s := bd.State
	name := bd.Roster.Name

	divider := dividerHeavy
	if bd.EventType == "BALL" || bd.EventType == "REMOTE" {
		divider = dividerLight
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s %s]  %s\n", bd.EventType, bd.Now.Format("3:04:05 PM"), s.ID)
	fmt.Fprintf(&b, "%s\n", divider)
	fmt.Fprintf(&b, "  %s v %s  (%s, innings %d)\n",
		bd.Roster.TeamName(s.BattingTeamID), bd.Roster.TeamName(s.BowlingTeamID), s.Format, s.Innings)

	sum := stats.Compute(s, bd.Rules.OversPerInnings)
	overs := match.Overs(s.TotalBalls)
	if bd.Rules.OversPerInnings > 0 {
		overs = fmt.Sprintf("%s/%d", overs, bd.Rules.OversPerInnings)
	}
	fmt.Fprintf(&b, "    %-20s%d/%d  (%s ov)  RR %.2f\n", "Score:", s.Score, s.Wickets, overs, sum.RunRate)
	if status := innings.StatusText(s, bd.Rules); status != "" {
		line := status
		if sum.RequiredRate != nil {
			line = fmt.Sprintf("%s  RRR %.2f", status, *sum.RequiredRate)
		}
		fmt.Fprintf(&b, "    %-20s%s\n", "Status:", line)
	}

	for _, bs := range sum.Batters {
		if bs.PlayerID != s.StrikerID && bs.PlayerID != s.NonStrikerID {
			continue
		}
		mark := " "
		if bs.PlayerID == s.StrikerID {
			mark = "*"
		}
		fmt.Fprintf(&b, "    %-20s%d (%d)\n", name(bs.PlayerID)+mark, bs.Runs, bs.Balls)
	}
	for _, bw := range sum.Bowlers {
		if bw.PlayerID == s.BowlerID {
			fmt.Fprintf(&b, "    %-20s%s-%d-%d-%d\n", name(bw.PlayerID), bw.Overs, bw.Maidens, bw.Runs, bw.Wickets)
		}
	}
	if over := thisOver(s); over != "" {
		fmt.Fprintf(&b, "    %-20s%s\n", "This over:", over)
	}
	if bd.LastBall != nil {
		fmt.Fprintf(&b, "    %s\n", bd.LastBall.Commentary)
		if bd.LastBall.OverSummary != "" {
			fmt.Fprintf(&b, "    %s\n", bd.LastBall.OverSummary)
		}
	}
	if bd.Result != nil {
		fmt.Fprintf(&b, "    %-20s%s\n", "Result:", bd.Result.Text(bd.Roster.TeamName))
	}
	fmt.Fprintf(&b, "%s\n", divider)

	fmt.Fprint(w, b.String())
}

// BallSymbol is the compact scorebook mark for a delivery.
func BallSymbol(ev match.BallEvent) string {
	var sym string
	switch ev.ExtraType {
	case match.ExtraWide:
		sym = "wd"
		if n := ev.TotalRuns(); n > 1 {
			sym = fmt.Sprintf("%dwd", n)
		}
	case match.ExtraNoBall:
		sym = "nb"
		if ev.Runs > 0 {
			sym = fmt.Sprintf("nb%d", ev.Runs)
		}
	case match.ExtraBye:
		sym = fmt.Sprintf("%db", ev.ExtraRuns)
	case match.ExtraLegBye:
		sym = fmt.Sprintf("%dlb", ev.ExtraRuns)
	default:
		sym = fmt.Sprintf("%d", ev.Runs)
		if ev.Runs == 0 {
			sym = "."
		}
	}
	if ev.CountsAsWicket() {
		if sym == "." {
			return "W"
		}
		return sym + "W"
	}
	return sym
}

func thisOver(s *match.MatchState) string {
	var marks []string
	for _, ev := range s.CurrentOver() {
		if ev.IsDelivery() {
			marks = append(marks, BallSymbol(ev))
		}
	}
	return strings.Join(marks, " ")
}
