package audit

import (
	"time"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

// Observer implements live.MatchObserver. It records wickets and innings
// and match completions to the audit DB, and archives completed matches.
type Observer struct {
	store   *Store
	archive *Archive
	now     func() time.Time
}

// NewObserver accepts a nil store or archive to disable that half.
func NewObserver(store *Store, archive *Archive) *Observer {
	return &Observer{store: store, archive: archive, now: time.Now}
}

func (o *Observer) OnMatchEvent(mc *live.MatchContext, kind string) {
	switch kind {
	case live.NotifyWicket:
		if mc.LastBall == nil || !mc.LastBall.IsWicket {
			return
		}
		lb := mc.LastBall
		row := o.row(mc, kind)
		row.Innings, row.Score, row.Wickets, row.Overs = lb.Innings, lb.Score, lb.Wickets, lb.Over
		row.Detail = lb.Commentary
		o.insert(row)

	case live.NotifyInningsComplete:
		o.inningsRow(mc)

	case live.NotifyMatchComplete:
		o.inningsRow(mc)
		if mc.Result == nil {
			return
		}
		text := mc.Result.Text(mc.Roster().TeamName)
		row := o.row(mc, kind)
		row.Detail = text
		o.insert(row)
		o.write(mc, text)
	}
}

func (o *Observer) row(mc *live.MatchContext, kind string) Row {
	s := mc.State()
	return Row{
		Ts:          o.now(),
		MatchID:     mc.ID,
		Format:      string(s.Format),
		EventType:   kind,
		Innings:     s.Innings,
		BattingTeam: s.BattingTeamID,
		BowlingTeam: s.BowlingTeamID,
		Score:       s.Score,
		Wickets:     s.Wickets,
		Overs:       match.Overs(s.TotalBalls),
		ScorerID:    s.ActiveScorerID,
	}
}

func (o *Observer) inningsRow(mc *live.MatchContext) {
	ic := mc.LastInnings
	if ic == nil {
		return
	}
	row := o.row(mc, live.NotifyInningsComplete)
	row.Innings, row.BattingTeam = ic.Innings, ic.TeamID
	row.Score, row.Wickets, row.Overs = ic.Score, ic.Wickets, match.Overs(ic.Balls)
	row.Detail = ic.Reason
	o.insert(row)
}

func (o *Observer) insert(row Row) {
	if o.store == nil {
		return
	}
	if err := o.store.Insert(row); err != nil {
		telemetry.Warnf("audit store: insert failed: %v", err)
	}
}

func (o *Observer) write(mc *live.MatchContext, text string) {
	if o.archive == nil {
		return
	}
	s := mc.State().Clone()
	rec := Record{
		ArchivedAt: o.now(),
		Result:     *mc.Result,
		ResultText: text,
		Scorecards: Scorecards(s, mc.Rules().OversPerInnings),
		State:      s,
	}
	if err := o.archive.Write(rec); err != nil {
		telemetry.Warnf("audit archive: match %s: %v", mc.ID, err)
	}
}
