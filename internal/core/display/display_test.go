package display

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/roster"
)

func teams(t *testing.T) *roster.Roster {
	t.Helper()
	team := func(id, name string) roster.Team {
		tm := roster.Team{ID: id, Name: name}
		for i := 1; i <= 11; i++ {
			tm.Players = append(tm.Players, roster.Player{ID: fmt.Sprintf("%s%d", id, i), Name: fmt.Sprintf("%s %d", name, i)})
		}
		return tm
	}
	r, err := roster.New(team("a", "Aces"), team("b", "Bees"))
	require.NoError(t, err)
	return r
}

func TestBallSymbol(t *testing.T) {
	cases := []struct {
		ev   match.BallEvent
		want string
	}{
		{match.BallEvent{Kind: match.KindDelivery}, "."},
		{match.BallEvent{Kind: match.KindDelivery, Runs: 4}, "4"},
		{match.BallEvent{Kind: match.KindDelivery, ExtraType: match.ExtraWide}, "wd"},
		{match.BallEvent{Kind: match.KindDelivery, ExtraType: match.ExtraNoBall, Runs: 2}, "nb2"},
		{match.BallEvent{Kind: match.KindDelivery, ExtraType: match.ExtraLegBye, ExtraRuns: 2}, "2lb"},
		{match.BallEvent{Kind: match.KindDelivery, IsWicket: true, WicketType: match.WicketBowled}, "W"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BallSymbol(c.ev))
	}
}

func TestPrintScoreboard(t *testing.T) {
	r := rules.Resolve(rules.Config{Format: match.FormatT20})
	s := match.NewMatchState("m1", match.FormatT20, "a", "b")
	e := match.NewEngine(s, r.Limits())
	require.True(t, e.SetOpeners("a1", "a2", "b1"))
	_, err := e.ApplyBall(match.Delta{Runs: 4})
	require.NoError(t, err)
	_, err = e.ApplyBall(match.Delta{Runs: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintScoreboard(&buf, Board{
		State:     s,
		Rules:     r,
		Roster:    teams(t),
		EventType: "BALL",
		Now:       time.Date(2026, 1, 1, 15, 4, 5, 0, time.UTC),
	})
	out := buf.String()
	assert.Contains(t, out, "[BALL 3:04:05 PM]  m1")
	assert.Contains(t, out, "Aces v Bees")
	assert.Contains(t, out, "5/0  (0.2/20 ov)")
	assert.Contains(t, out, "Aces 2*")
	assert.Contains(t, out, "Bees 1")
	assert.Contains(t, out, "4 1")
	assert.Contains(t, out, dividerLight)
}

func TestObserver_PrintsScoringEvents(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObserver(&buf)

	cfg := rules.Config{Format: match.FormatCustom, OversPerInnings: 2}
	s := match.NewMatchState("m1", cfg.Format, "a", "b")
	s.Settings = cfg.Settings()
	mc := live.New(s, live.Deps{Rules: rules.Resolve(cfg), Roster: teams(t), Merger: replica.NewMerger(replica.LastWriteWins), Seed: 1})
	mc.AddObserver(obs)
	defer mc.Close()

	who := replica.Identity{ID: "s1", Role: replica.RoleScorer}
	ctx := context.Background()
	_, err := mc.StartInnings(ctx, who, live.StartRequest{StrikerID: "a1", NonStrikerID: "a2", BowlerID: "b1"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[CHANGE")

	buf.Reset()
	_, err = mc.ApplyBall(ctx, who, live.BallRequest{Runs: 6})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "[BALL")
	assert.Contains(t, out, "6/0")

	buf.Reset()
	_, err = mc.PauseTimer(ctx, who)
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "same-innings changes stay quiet")
}

func TestObserver_ThrottlesRemote(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObserver(&buf)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	obs.now = func() time.Time { return now }

	s := match.NewMatchState("m1", match.FormatT20, "a", "b")
	mc := live.New(s, live.Deps{Rules: rules.Resolve(rules.Config{Format: match.FormatT20}), Roster: teams(t), Seed: 1})
	defer mc.Close()

	obs.OnMatchEvent(mc, live.NotifyRemote)
	require.NotEmpty(t, buf.String())

	buf.Reset()
	now = now.Add(time.Second)
	obs.OnMatchEvent(mc, live.NotifyRemote)
	assert.Empty(t, buf.String())

	now = now.Add(remoteDisplayThrottle)
	obs.OnMatchEvent(mc, live.NotifyRemote)
	assert.NotEmpty(t, buf.String())
}
