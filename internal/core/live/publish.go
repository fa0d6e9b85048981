package live

import (
	"context"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/commentary"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/innings"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/stats"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

func (mc *MatchContext) rosterSize(teamID string) int {
	t, ok := mc.roster.Team(teamID)
	if !ok {
		return 0
	}
	return len(t.Players)
}

// settle runs the completion policy after a mutation, then announces the
// new state. Must run on the match goroutine.
func (mc *MatchContext) settle(op, kind string) {
	s := mc.engine.State()
	mc.LastInnings = nil

	reason := innings.CheckEnd(s, innings.ParamsFor(mc.rules, mc.rosterSize(s.BattingTeamID)))
	if reason != innings.ReasonNone {
		over := innings.IsMatchOver(s, reason, mc.rules)
		mc.engine.EndInnings(over, string(reason))
		telemetry.Metrics.InningsCompleted.WithLabelValues(string(reason)).Inc()

		ic := events.InningsCompleteEvent{
			Innings:   s.Innings,
			TeamID:    s.BattingTeamID,
			Reason:    string(reason),
			MatchOver: over,
			Score:     s.Score,
			Wickets:   s.Wickets,
			Balls:     s.TotalBalls,
		}
		mc.LastInnings = &ic
		mc.log.Info().
			Int("innings", ic.Innings).
			Str("team", ic.TeamID).
			Str("reason", ic.Reason).
			Int("score", ic.Score).
			Int("wickets", ic.Wickets).
			Msg("innings complete")
		mc.bus.Publish(events.New(events.EventInningsComplete, mc.ID, ic))
	}
	completed := false
	if s.IsCompleted && mc.Result == nil {
		mc.finish(innings.Reason(s.CompletionReason))
		completed = true
	}

	mc.remember(s.Version, s.UpdatedAt)
	mc.bus.Publish(events.New(events.EventStateChanged, mc.ID, events.StateChangedEvent{
		State: s.Clone(),
		Op:    op,
	}))

	mc.Notify(kind)
	switch {
	case completed:
		mc.Notify(NotifyMatchComplete)
	case mc.LastInnings != nil:
		mc.Notify(NotifyInningsComplete)
	}
}

func (mc *MatchContext) remember(version, updatedAt int64) {
	if _, ok := mc.produced[version]; !ok {
		mc.producedOrder = append(mc.producedOrder, version)
	}
	mc.produced[version] = updatedAt
	if len(mc.producedOrder) > echoWindow {
		delete(mc.produced, mc.producedOrder[0])
		mc.producedOrder = mc.producedOrder[1:]
	}
}

// isEcho reports that remote is a snapshot announced here earlier.
func (mc *MatchContext) isEcho(remote *match.MatchState) bool {
	at, ok := mc.produced[remote.Version]
	return ok && at == remote.UpdatedAt
}

// Announce publishes the current state without a mutation, e.g. right
// after a match is created.
func (mc *MatchContext) Announce(ctx context.Context, op string) error {
	return mc.Do(ctx, func() error {
		mc.settle(op, NotifyChange)
		return nil
	})
}

// finish decides and announces the result of a completed match.
func (mc *MatchContext) finish(reason innings.Reason) {
	s := mc.engine.State()
	res := innings.Decide(s, reason, mc.rules)
	mc.Result = &res
	text := res.Text(mc.roster.TeamName)
	mc.log.Info().Str("reason", string(reason)).Str("result", text).Msg("match complete")
	mc.bus.Publish(events.New(events.EventMatchComplete, mc.ID, events.MatchCompleteEvent{
		Reason:     string(reason),
		Result:     res,
		ResultText: text,
		State:      s.Clone(),
	}))
}

// announceBall publishes narration for a delivery. ev carries the context
// from before the ball; s is the state after it.
func (mc *MatchContext) announceBall(ev match.BallEvent) {
	s := mc.engine.State()
	name := mc.roster.Name
	be := events.BallEvent{
		Innings:     ev.Innings,
		Over:        match.Overs(s.TotalBalls),
		Runs:        ev.Runs,
		ExtraType:   string(ev.ExtraType),
		ExtraRuns:   ev.ExtraRuns,
		IsWicket:    ev.IsWicket,
		WicketType:  string(ev.WicketType),
		StrikerName: name(ev.StrikerID),
		BowlerName:  name(ev.BowlerID),
		Score:       s.Score,
		Wickets:     s.Wickets,
	}
	if ev.IsWicket {
		be.OutPlayerName = name(ev.OutPlayerID)
	}
	if ev.FielderID != "" {
		be.FielderName = name(ev.FielderID)
	}
	be.Commentary = mc.words.Ball(commentary.Ball{
		Runs:          ev.Runs,
		ExtraType:     ev.ExtraType,
		ExtraRuns:     ev.ExtraRuns,
		WicketType:    ev.WicketType,
		StrikerName:   be.StrikerName,
		BowlerName:    be.BowlerName,
		OutPlayerName: be.OutPlayerName,
		FielderName:   be.FielderName,
	})
	if ev.IsLegal() && s.TotalBalls > 0 && s.TotalBalls%6 == 0 {
		be.OverComplete = true
		be.OverSummary = mc.overSummary(s)
	}
	mc.LastBall = &be
	mc.bus.Publish(events.New(events.EventBall, mc.ID, be))
}

func (mc *MatchContext) overSummary(s *match.MatchState) string {
	sum := stats.Compute(s, mc.rules.OversPerInnings)
	o := commentary.Over{
		OverNumber:   s.TotalBalls / 6,
		Innings:      s.Innings,
		Score:        s.Score,
		Wickets:      s.Wickets,
		RunRate:      sum.RunRate,
		Target:       s.Target,
		RequiredRate: sum.RequiredRate,
	}
	if mc.rules.OversPerInnings > 0 {
		o.Projected = sum.Projected
	}
	// Name the higher scorer of the two batters at the crease.
	for _, id := range []string{s.StrikerID, s.NonStrikerID} {
		for _, b := range sum.Batters {
			if b.PlayerID == id && id != "" && b.Runs >= o.BatterScore {
				o.BatterName = mc.roster.Name(id)
				o.BatterScore = b.Runs
			}
		}
	}
	if s.Innings >= 2 && s.Target == nil {
		o.Lead = s.TeamAggregate(s.BattingTeamID) - s.TeamAggregate(s.BowlingTeamID)
	}
	return mc.words.EndOfOver(o)
}
