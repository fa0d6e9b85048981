package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

func playOver(t *testing.T, e *match.Engine, deltas ...match.Delta) {
	t.Helper()
	for _, d := range deltas {
		_, err := e.ApplyBall(d)
		require.NoError(t, err)
	}
}

func TestCompute_Scorecard(t *testing.T) {
	s := match.NewMatchState("m1", match.FormatT20, "a", "b")
	e := match.NewEngine(s, match.Limits{OversPerInnings: 20})
	require.True(t, e.SetOpeners("a1", "a2", "b1"))

	// maiden from b1
	playOver(t, e, match.Delta{}, match.Delta{}, match.Delta{}, match.Delta{}, match.Delta{}, match.Delta{})
	require.True(t, e.SelectBowler("b2"))
	// a2 on strike after the over
	playOver(t, e,
		match.Delta{Runs: 4},
		match.Delta{ExtraType: match.ExtraWide},
		match.Delta{Runs: 6},
		match.Delta{ExtraType: match.ExtraLegBye, ExtraRuns: 1},
		match.Delta{ExtraType: match.ExtraNoBall, Runs: 1},
		match.Delta{IsWicket: true, WicketType: match.WicketCaught, FielderID: "b9"},
	)
	require.True(t, e.SelectBatter(match.SlotStriker, "a3"))
	playOver(t, e, match.Delta{IsWicket: true, WicketType: match.WicketRunOut, OutPlayerID: "a1"})

	sum := Compute(s, 20)
	require.Len(t, sum.Batters, 3)
	a1, a2, a3 := sum.Batters[0], sum.Batters[1], sum.Batters[2]
	assert.Equal(t, "a1", a1.PlayerID)
	assert.Equal(t, 1, a1.Runs)
	assert.Equal(t, 1, a1.Balls)
	assert.True(t, a1.Out)
	assert.Equal(t, match.WicketRunOut, a1.HowOut)

	assert.Equal(t, "a2", a2.PlayerID)
	assert.Equal(t, 10, a2.Runs)
	assert.Equal(t, 1, a2.Fours)
	assert.Equal(t, 1, a2.Sixes)
	assert.Equal(t, 4, a2.Balls)
	assert.Equal(t, 250.0, a2.StrikeRate)
	assert.Equal(t, match.WicketCaught, a2.HowOut)

	assert.Equal(t, "a3", a3.PlayerID)
	assert.Equal(t, 1, a3.Balls)
	assert.False(t, a3.Out)

	require.Len(t, sum.Bowlers, 2)
	b1, b2 := sum.Bowlers[0], sum.Bowlers[1]
	assert.Equal(t, 1, b1.Maidens)
	assert.Equal(t, "1.0", b1.Overs)
	assert.Equal(t, 0, b1.Runs)

	assert.Equal(t, "0.5", b2.Overs)
	assert.Equal(t, 4+1+6+2, b2.Runs)
	assert.Equal(t, 1, b2.Wickets, "run out not credited")
	assert.Equal(t, 1, b2.Wides)
	assert.Equal(t, 1, b2.NoBalls)
	assert.Equal(t, 0, b2.Maidens)

	assert.Equal(t, Extras{Wides: 1, NoBalls: 1, LegByes: 1, Total: 3}, sum.Extras)
	assert.Equal(t, s.Score, 14)
	assert.Equal(t, Partnership{}, sum.Partnership)
	assert.InDelta(t, 14*6/11.0, sum.RunRate, 1e-9)
	assert.Equal(t, 120-11, sum.BallsRemaining)
	assert.Nil(t, sum.RequiredRate)
}

func TestCompute_NoBallsIsZeroSafe(t *testing.T) {
	s := match.NewMatchState("m1", match.FormatT20, "a", "b")
	sum := Compute(s, 20)
	assert.Equal(t, 0.0, sum.RunRate)
	assert.Equal(t, 0, sum.Projected)
	assert.Equal(t, 0.0, StrikeRate(10, 0))
	assert.Equal(t, 0.0, Economy(10, 0))
}

func TestRequiredRate(t *testing.T) {
	rr := RequiredRate(150, 149, 1)
	require.NotNil(t, rr)
	assert.Equal(t, 6.0, *rr)

	assert.Nil(t, RequiredRate(150, 149, 0))
	assert.Nil(t, RequiredRate(150, 150, 6))
	assert.Nil(t, RequiredRate(150, 170, 0))

	rr = RequiredRate(180, 100, 60)
	require.NotNil(t, rr)
	assert.False(t, math.IsInf(*rr, 0))
	assert.Equal(t, 8.0, *rr)
}

func TestCompute_Chase(t *testing.T) {
	s := match.NewMatchState("m1", match.FormatT20, "a", "b")
	e := match.NewEngine(s, match.Limits{OversPerInnings: 20})
	require.True(t, e.EndInnings(false, ""))
	target := 150
	require.True(t, e.StartInnings("b", "a", &target, false))
	s.Score, s.TotalBalls = 149, 119

	sum := Compute(s, 20)
	require.NotNil(t, sum.RequiredRate)
	assert.Equal(t, 6.0, *sum.RequiredRate)
	assert.Equal(t, 1, sum.RunsNeeded)
	assert.Equal(t, 1, sum.BallsRemaining)

	s.TotalBalls = 120
	sum = Compute(s, 20)
	assert.Nil(t, sum.RequiredRate)
	assert.Equal(t, 0, sum.BallsRemaining)
}

func TestCompute_Projected(t *testing.T) {
	s := match.NewMatchState("m1", match.FormatODI, "a", "b")
	s.Score, s.TotalBalls = 60, 60
	sum := Compute(s, 50)
	assert.Equal(t, 300, sum.Projected)

	unlimited := Compute(s, 0)
	assert.Equal(t, -1, unlimited.BallsRemaining)
	assert.Equal(t, 60, unlimited.Projected)
}

func TestOverRate(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tm := match.MatchTimer{StartTime: start.UnixMilli()}
	now := start.Add(time.Hour)
	assert.InDelta(t, 15.0, OverRate(tm, 90, now), 1e-9)

	tm.TotalAllowances = (30 * time.Minute).Milliseconds()
	assert.InDelta(t, 30.0, OverRate(tm, 90, now), 1e-9)

	assert.Equal(t, 0.0, OverRate(match.MatchTimer{}, 90, now))
}
