package live

import (
	"context"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/innings"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/stats"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

// View is everything a scoring screen renders, computed on the match
// goroutine so its parts agree with each other.
type View struct {
	State        *match.MatchState   `json:"state"`
	Scorecard    stats.Summary       `json:"scorecard"`
	Status       string              `json:"status"`
	Phase        match.MatchPhase    `json:"phase"`
	InningsPhase match.InningsPhase  `json:"inningsPhase"`
	NeedsBowler  bool                `json:"needsBowler"`
	NeedsBatter  bool                `json:"needsBatter"`
	CanFollowOn  bool                `json:"canFollowOn"`
	Bowler       *rules.Availability `json:"bowler,omitempty"`
	Result       *innings.Result     `json:"result,omitempty"`
	ResultText   string              `json:"resultText,omitempty"`
	ReadOnly     bool                `json:"readOnly"`
	Summary      replica.Summary     `json:"summary"`
	Recent       []match.BallEvent   `json:"recent"`
	LastBall     *events.BallEvent   `json:"lastBall,omitempty"`
}

const recentEvents = 12

// Snapshot returns a copy of the current state.
func (mc *MatchContext) Snapshot(ctx context.Context) (*match.MatchState, error) {
	var out *match.MatchState
	err := mc.Do(ctx, func() error {
		out = mc.engine.Snapshot()
		return nil
	})
	return out, err
}

// View renders the match for who.
func (mc *MatchContext) View(ctx context.Context, who replica.Identity) (View, error) {
	var v View
	err := mc.Do(ctx, func() error {
		v = mc.view(who)
		return nil
	})
	return v, err
}

func (mc *MatchContext) view(who replica.Identity) View {
	s := mc.engine.State()
	snap := s.Clone()
	v := View{
		State:        snap,
		Scorecard:    stats.Compute(snap, mc.rules.OversPerInnings),
		Status:       innings.StatusText(snap, mc.rules),
		Phase:        mc.engine.MatchPhase(),
		InningsPhase: mc.engine.InningsPhase(),
		NeedsBowler:  mc.engine.NeedsBowler(),
		NeedsBatter:  mc.engine.NeedsBatter(),
		CanFollowOn:  innings.CanEnforceFollowOn(snap, mc.rules),
		ReadOnly:     replica.ReadOnly(snap, who),
		Summary:      replica.Summarize(snap),
		LastBall:     mc.LastBall,
	}
	if s.BowlerID != "" {
		a := mc.rules.BowlerAvailability(snap, s.BowlerID)
		v.Bowler = &a
	}
	recent := snap.Recent()
	if len(recent) > recentEvents {
		recent = recent[:recentEvents]
	}
	v.Recent = recent
	if mc.Result != nil {
		r := *mc.Result
		v.Result = &r
		v.ResultText = r.Text(mc.roster.TeamName)
	}
	return v
}

// ApplyRemote offers a snapshot written by another client. It is safe to
// call from any goroutine and never blocks.
func (mc *MatchContext) ApplyRemote(remote *match.MatchState, source string) {
	if remote == nil {
		return
	}
	mc.Send(func() { mc.applyRemote(remote, source) })
}

func (mc *MatchContext) applyRemote(remote *match.MatchState, source string) {
	local := mc.engine.State()
	kept, outcome := mc.merger.Merge(local, remote)
	if outcome == replica.OutcomeApplied && mc.isEcho(remote) {
		kept, outcome = local, replica.OutcomeEcho
	}
	telemetry.Metrics.RemoteMerges.WithLabelValues(string(outcome)).Inc()
	if outcome != replica.OutcomeApplied {
		return
	}
	mc.engine.Replace(kept.Clone())
	mc.LastBall, mc.LastInnings = nil, nil
	mc.Result = nil
	if kept.IsCompleted {
		res := innings.Decide(kept, innings.Reason(kept.CompletionReason), mc.rules)
		mc.Result = &res
	}
	mc.log.Debug().Str("source", source).Int64("version", kept.Version).Msg("remote snapshot applied")
	mc.bus.Publish(events.New(events.EventRemoteChange, mc.ID, events.RemoteChangeEvent{
		State:  kept.Clone(),
		Source: source,
	}))
	mc.Notify(NotifyRemote)
}
