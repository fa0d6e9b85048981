package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, format Format, overs int) *Engine {
	t.Helper()
	s := NewMatchState("m1", format, "teamA", "teamB")
	e := NewEngine(s, Limits{OversPerInnings: overs})
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	require.True(t, e.SetOpeners("a1", "a2", "b1"))
	return e
}

func apply(t *testing.T, e *Engine, d Delta) BallEvent {
	t.Helper()
	ev, err := e.ApplyBall(d)
	require.NoError(t, err)
	return ev
}

func TestApplyBall_SixDotsCompleteOver(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	for i := 0; i < 6; i++ {
		apply(t, e, Delta{})
	}
	s := e.State()
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, 0, s.Wickets)
	assert.Equal(t, 6, s.TotalBalls)
	assert.Equal(t, "a2", s.StrikerID)
	assert.Equal(t, "a1", s.NonStrikerID)
	assert.Empty(t, s.BowlerID)
	assert.True(t, e.NeedsBowler())

	_, err := e.ApplyBall(Delta{})
	assert.ErrorIs(t, err, ErrBowlerRequired)
}

func TestApplyBall_ScenarioSequence(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	s := e.State()

	apply(t, e, Delta{Runs: 4})
	assert.Equal(t, 4, s.Score)
	assert.Equal(t, "a1", s.StrikerID)
	assert.Equal(t, 1, s.TotalBalls)

	apply(t, e, Delta{Runs: 1})
	assert.Equal(t, 5, s.Score)
	assert.Equal(t, "a2", s.StrikerID)
	assert.Equal(t, "a1", s.NonStrikerID)

	ev, err := e.RecordWicket(WicketEvent{Type: WicketBowled, OutPlayerID: "a2"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Wickets)
	assert.Empty(t, s.StrikerID)
	assert.True(t, e.NeedsBatter())

	last := s.History[len(s.History)-1]
	assert.Equal(t, ev, last)
	assert.True(t, last.IsWicket)
	assert.Equal(t, WicketBowled, last.WicketType)
}

func TestApplyBall_Extras(t *testing.T) {
	tests := []struct {
		name       string
		delta      Delta
		wantScore  int
		wantBalls  int
		wantSwap   bool
		wantBowler int
	}{
		{"wide", Delta{ExtraType: ExtraWide}, 1, 0, false, 1},
		{"wide with one run", Delta{ExtraType: ExtraWide, ExtraRuns: 1}, 2, 0, true, 2},
		{"no ball hit for four", Delta{ExtraType: ExtraNoBall, Runs: 4}, 5, 0, false, 5},
		{"two byes", Delta{ExtraType: ExtraBye, ExtraRuns: 2}, 2, 1, false, 0},
		{"leg bye", Delta{ExtraType: ExtraLegBye, ExtraRuns: 1}, 1, 1, true, 0},
		{"three off the bat", Delta{Runs: 3}, 3, 1, true, 3},
		{"six", Delta{Runs: 6}, 6, 1, false, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, FormatT20, 20)
			ev := apply(t, e, tt.delta)
			s := e.State()
			assert.Equal(t, tt.wantScore, s.Score)
			assert.Equal(t, tt.wantBalls, s.TotalBalls)
			assert.Equal(t, tt.wantBowler, ev.BowlerRuns())
			if tt.wantSwap {
				assert.Equal(t, "a2", s.StrikerID)
			} else {
				assert.Equal(t, "a1", s.StrikerID)
			}
		})
	}
}

func TestApplyBall_RunAccounting(t *testing.T) {
	e := newTestEngine(t, FormatODI, 50)
	deltas := []Delta{
		{Runs: 1}, {ExtraType: ExtraWide, ExtraRuns: 4}, {Runs: 2}, {ExtraType: ExtraNoBall, Runs: 6},
		{ExtraType: ExtraLegBye, ExtraRuns: 1}, {}, {Runs: 4}, {ExtraType: ExtraBye, ExtraRuns: 3},
	}
	for _, d := range deltas {
		if e.NeedsBowler() {
			require.True(t, e.SelectBowler("b2"))
		}
		apply(t, e, d)
	}
	s := e.State()
	sum := 0
	legal := 0
	for _, b := range s.InningsEvents(s.Innings) {
		sum += b.Runs + b.ExtraRuns + b.ExtraType.Penalty()
		if b.IsLegal() {
			legal++
		}
	}
	assert.Equal(t, sum, s.Score)
	assert.Equal(t, legal, s.TotalBalls)
	open, ok := s.OpenInnings()
	require.True(t, ok)
	assert.Equal(t, s.Score, open.Score)
}

func TestApplyBall_OddRunOnLastBallKeepsStrike(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	for i := 0; i < 5; i++ {
		apply(t, e, Delta{})
	}
	apply(t, e, Delta{Runs: 1})
	s := e.State()
	assert.Equal(t, "a1", s.StrikerID)
	assert.Equal(t, "a2", s.NonStrikerID)
}

func TestApplyBall_RejectsPastOverLimit(t *testing.T) {
	e := newTestEngine(t, FormatCustom, 1)
	for i := 0; i < 6; i++ {
		apply(t, e, Delta{})
	}
	require.True(t, e.SelectBowler("b2"))
	_, err := e.ApplyBall(Delta{Runs: 1})
	assert.ErrorIs(t, err, ErrOversExhausted)
	assert.Equal(t, 6, e.State().TotalBalls)
}

func TestApplyBall_InvalidDelta(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	cases := []Delta{
		{Runs: -1},
		{ExtraType: ExtraWide, Runs: 2},
		{ExtraType: "Penalty"},
		{IsWicket: true},
		{IsWicket: true, WicketType: WicketBowled, OutPlayerID: "nobody"},
	}
	for _, d := range cases {
		_, err := e.ApplyBall(d)
		assert.ErrorIs(t, err, ErrInvalidDelta)
	}
	assert.Empty(t, e.State().InningsEvents(1)[1:])
}

func TestApplyBall_StrictDismissals(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	_, err := e.RecordWicket(WicketEvent{Type: WicketBowled, ExtraType: ExtraNoBall})
	assert.NoError(t, err, "permissive by default")

	e = newTestEngine(t, FormatT20, 20)
	e.SetLimits(Limits{OversPerInnings: 20, StrictDismissals: true})
	_, err = e.RecordWicket(WicketEvent{Type: WicketBowled, ExtraType: ExtraNoBall})
	assert.ErrorIs(t, err, ErrInvalidDelta)
	_, err = e.RecordWicket(WicketEvent{Type: WicketRunOut, OutPlayerID: "a2", ExtraType: ExtraNoBall, Runs: 1})
	assert.NoError(t, err)
}

func TestUndoBall_InverseOfApply(t *testing.T) {
	deltas := []Delta{
		{}, {Runs: 1}, {Runs: 4}, {ExtraType: ExtraWide, ExtraRuns: 1},
		{ExtraType: ExtraNoBall, Runs: 3}, {ExtraType: ExtraBye, ExtraRuns: 1},
		{IsWicket: true, WicketType: WicketCaught, FielderID: "b5"},
		{IsWicket: true, WicketType: WicketRunOut, OutPlayerID: "a2", Runs: 1},
	}
	for _, d := range deltas {
		e := newTestEngine(t, FormatT20, 20)
		for i := 0; i < 5; i++ {
			apply(t, e, Delta{Runs: i % 3})
		}
		before := e.Snapshot()
		apply(t, e, d)
		require.True(t, e.UndoBall())
		s := e.State()
		assert.Equal(t, before.Score, s.Score)
		assert.Equal(t, before.Wickets, s.Wickets)
		assert.Equal(t, before.TotalBalls, s.TotalBalls)
		assert.Equal(t, before.StrikerID, s.StrikerID)
		assert.Equal(t, before.NonStrikerID, s.NonStrikerID)
		assert.Equal(t, before.BowlerID, s.BowlerID)
		assert.Equal(t, before.History, s.History)
	}
}

func TestUndoBall_EmptyHistory(t *testing.T) {
	e := NewEngine(NewMatchState("m1", FormatT20, "teamA", "teamB"), Limits{OversPerInnings: 20})
	assert.False(t, e.UndoBall())
	assert.False(t, e.UndoBall())
	assert.Equal(t, int64(0), e.State().Version)
}

func TestUndoBall_RestoresBowlerAfterOver(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	for i := 0; i < 6; i++ {
		apply(t, e, Delta{})
	}
	require.True(t, e.SelectBowler("b2"))
	require.True(t, e.UndoBall())
	assert.Empty(t, e.State().BowlerID)
	require.True(t, e.UndoBall())
	assert.Equal(t, "b1", e.State().BowlerID)
	assert.Equal(t, 5, e.State().TotalBalls)
}

func TestUndoBall_StopsAtInningsBoundary(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	apply(t, e, Delta{Runs: 2})
	require.True(t, e.EndInnings(false, ""))
	require.True(t, e.StartInnings("teamB", "teamA", nil, false))
	assert.False(t, e.UndoBall())
	assert.Equal(t, 2, e.State().InningsScores[0].Score)
}

func TestUndoBall_ReopensClosedInnings(t *testing.T) {
	e := newTestEngine(t, FormatCustom, 1)
	for i := 0; i < 5; i++ {
		apply(t, e, Delta{})
	}
	apply(t, e, Delta{Runs: 4})
	require.True(t, e.EndInnings(false, "overs exhausted"))
	assert.Equal(t, InningsBreak, e.InningsPhase())

	require.True(t, e.UndoBall())
	s := e.State()
	assert.Equal(t, InningsInProgress, e.InningsPhase())
	assert.False(t, s.InningsScores[0].IsComplete)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, 5, s.TotalBalls)
	assert.Equal(t, "b1", s.BowlerID)
	assert.Equal(t, 5, s.InningsScores[0].Balls)
}

func TestUndoBall_ReopensCompletedMatch(t *testing.T) {
	e := newTestEngine(t, FormatCustom, 1)
	apply(t, e, Delta{})
	w, err := e.RecordWicket(WicketEvent{Type: WicketBowled})
	require.NoError(t, err)
	require.True(t, e.EndInnings(true, "all out"))
	require.True(t, e.State().IsCompleted)

	require.True(t, e.UndoBall())
	s := e.State()
	assert.False(t, s.IsCompleted)
	assert.Empty(t, s.CompletionReason)
	assert.Equal(t, 0, s.Wickets)
	assert.Equal(t, w.StrikerID, s.StrikerID)
	_, err = e.ApplyBall(Delta{Runs: 1})
	assert.NoError(t, err)
}

func TestUndoBall_DeclarationAndConclusion(t *testing.T) {
	e := newTestEngine(t, FormatTest, 0)
	apply(t, e, Delta{Runs: 3})
	require.True(t, e.DeclareInnings())
	require.True(t, e.EndInnings(false, "declared"))
	assert.True(t, e.State().InningsScores[0].Declared)
	require.True(t, e.UndoBall())
	assert.False(t, e.State().Adjustments.Declared)
	assert.False(t, e.State().InningsScores[0].Declared)
	assert.Equal(t, 3, e.State().Score)

	// A conclusion entered at the break has no event to undo.
	require.True(t, e.EndInnings(false, ""))
	require.True(t, e.ConcludeInnings())
	require.True(t, e.EndInnings(true, "concluded"))
	assert.False(t, e.UndoBall())
	assert.True(t, e.State().IsCompleted)
}

func TestEditBall_Analytics(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	ev := apply(t, e, Delta{Runs: 2})
	height := "Lofted"
	ok := e.EditBall(ev.Timestamp, BallUpdate{ShotCoords: &Coord{X: 0.2, Y: 0.8}, ShotHeight: &height})
	require.True(t, ok)
	got := e.State().History[len(e.State().History)-1]
	assert.Equal(t, &Coord{X: 0.2, Y: 0.8}, got.ShotCoords)
	assert.Equal(t, "Lofted", got.ShotHeight)
	assert.Equal(t, 2, e.State().Score)
}

func TestEditBall_ScoringCorrectionRederives(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	first := apply(t, e, Delta{Runs: 4})
	apply(t, e, Delta{Runs: 2})
	apply(t, e, Delta{})

	wide := ExtraWide
	zero := 0
	require.True(t, e.EditBall(first.Timestamp, BallUpdate{ExtraType: &wide, Runs: &zero}))
	s := e.State()
	assert.Equal(t, 3, s.Score)
	assert.Equal(t, 2, s.TotalBalls)
	open, _ := s.OpenInnings()
	assert.Equal(t, 3, open.Score)
	assert.Equal(t, 2, open.Balls)

	assert.False(t, e.EditBall(12345, BallUpdate{Runs: &zero}))
}

func TestStartInnings(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	apply(t, e, Delta{Runs: 6})
	target := 7
	require.True(t, e.StartInnings("teamB", "teamA", &target, false))
	s := e.State()
	assert.Equal(t, 2, s.Innings)
	assert.Equal(t, "teamB", s.BattingTeamID)
	assert.Equal(t, 0, s.Score)
	assert.Empty(t, s.StrikerID)
	require.NotNil(t, s.Target)
	assert.Equal(t, 7, *s.Target)
	require.Len(t, s.InningsScores, 2)
	assert.True(t, s.InningsScores[0].IsComplete)
	assert.Equal(t, 6, s.InningsScores[0].Score)
	assert.False(t, s.InningsScores[1].IsComplete)

	assert.False(t, e.StartInnings("teamA", "teamB", nil, false), "limited overs has two innings")
	assert.False(t, e.StartInnings("", "teamB", nil, false))
}

func TestEndInnings_MatchEnd(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	require.True(t, e.EndInnings(true, "concluded"))
	s := e.State()
	assert.True(t, s.IsCompleted)
	assert.Equal(t, InningsCompleted, e.InningsPhase())
	assert.Equal(t, MatchCompleted, e.MatchPhase())
	_, err := e.ApplyBall(Delta{})
	assert.ErrorIs(t, err, ErrMatchCompleted)
	assert.False(t, e.EndInnings(true, "again"))
}

func TestInningsPhases(t *testing.T) {
	e := NewEngine(NewMatchState("m1", FormatTest, "teamA", "teamB"), Limits{})
	assert.Equal(t, MatchSetup, e.MatchPhase())
	assert.Equal(t, InningsNotStarted, e.InningsPhase())
	require.True(t, e.SetOpeners("a1", "a2", "b1"))
	assert.Equal(t, MatchLive, e.MatchPhase())
	assert.Equal(t, InningsInProgress, e.InningsPhase())
	require.True(t, e.EndInnings(false, ""))
	assert.Equal(t, InningsBreak, e.InningsPhase())
	require.True(t, e.StartInnings("teamB", "teamA", nil, false))
	assert.Equal(t, InningsNotStarted, e.InningsPhase())
}

func TestDeclareAndConclude(t *testing.T) {
	e := newTestEngine(t, FormatTest, 0)
	apply(t, e, Delta{Runs: 4})
	require.True(t, e.DeclareInnings())
	assert.False(t, e.DeclareInnings())
	assert.True(t, e.State().Adjustments.Declared)
	require.True(t, e.EndInnings(false, ""))
	assert.True(t, e.State().InningsScores[0].Declared)
	assert.False(t, e.State().Adjustments.Declared)

	require.True(t, e.StartInnings("teamB", "teamA", nil, false))
	require.True(t, e.ConcludeInnings())
	assert.True(t, e.State().Adjustments.Concluded)
	assert.False(t, e.ConcludeInnings())
}

func TestReplaceBowlerMidOver(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	apply(t, e, Delta{})
	apply(t, e, Delta{})
	require.True(t, e.ReplaceBowlerMidOver("b7"))
	s := e.State()
	assert.Equal(t, "b7", s.BowlerID)
	assert.Equal(t, 2, s.TotalBalls)
	assert.Equal(t, 0, s.Score)
	assert.False(t, e.ReplaceBowlerMidOver("b7"))
	ev := apply(t, e, Delta{})
	assert.Equal(t, "b7", ev.BowlerID)
}

func TestCorrectPlayerIdentity(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	ev := apply(t, e, Delta{})
	require.True(t, e.CorrectPlayerIdentity("a1", "a9", SlotStriker))
	s := e.State()
	assert.Equal(t, "a9", s.StrikerID)
	assert.Equal(t, "a1", s.History[len(s.History)-1].StrikerID)
	assert.Equal(t, ev.StrikerID, "a1")
	assert.False(t, e.CorrectPlayerIdentity("a1", "a9", SlotBowler))
	assert.True(t, e.CorrectPlayerIdentity("b1", "b3", ""))
	assert.Equal(t, "b3", s.BowlerID)
}

func TestRetireBatter(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	require.True(t, e.RetireBatter("a1", RetiredHurt))
	s := e.State()
	assert.Empty(t, s.StrikerID)
	assert.Equal(t, 0, s.Wickets)
	assert.False(t, s.DismissedIn(1)["a1"])

	require.True(t, e.SelectBatter(SlotStriker, "a3"))
	require.True(t, e.RetireBatter("a2", RetiredOut))
	assert.Equal(t, 1, s.Wickets)
	assert.True(t, s.DismissedIn(1)["a2"])
	assert.False(t, e.RetireBatter("a2", RetiredOut))

	require.True(t, e.UndoBall())
	assert.Equal(t, 0, s.Wickets)
	assert.Equal(t, "a2", s.NonStrikerID)
}

func TestSelectBatter(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	assert.False(t, e.SelectBatter(SlotStriker, "a3"), "slot occupied")
	_, err := e.RecordWicket(WicketEvent{Type: WicketLBW})
	require.NoError(t, err)
	assert.False(t, e.SelectBatter(SlotStriker, "a2"), "already at the crease")
	require.True(t, e.SelectBatter(SlotStriker, "a3"))
	assert.False(t, e.NeedsBatter())
}

func TestTriggerLastHour(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	assert.False(t, e.TriggerLastHour())

	e = newTestEngine(t, FormatTest, 0)
	require.True(t, e.TriggerLastHour())
	assert.False(t, e.TriggerLastHour())
	a := &e.State().Adjustments
	assert.Equal(t, 15, a.LastHourOversRemaining)

	bowlers := []string{"b2", "b1"}
	for over := 0; over < 15; over++ {
		if e.NeedsBowler() {
			require.True(t, e.SelectBowler(bowlers[over%2]))
		}
		for i := 0; i < 6; i++ {
			apply(t, e, Delta{})
		}
	}
	assert.Equal(t, 0, a.LastHourOversRemaining)
	assert.True(t, a.Concluded)

	require.True(t, e.UndoBall())
	assert.Equal(t, 1, a.LastHourOversRemaining)
	assert.False(t, a.Concluded)
}

func TestTriggerLastHour_MidOver(t *testing.T) {
	e := newTestEngine(t, FormatTest, 0)
	for i := 0; i < 3; i++ {
		apply(t, e, Delta{})
	}
	require.True(t, e.TriggerLastHour())
	a := &e.State().Adjustments
	assert.Equal(t, 6, a.LastHourStartBalls)

	for i := 0; i < 3; i++ {
		apply(t, e, Delta{})
	}
	assert.Equal(t, 0, a.LastHourBalls, "rest of the current over is not charged")
	assert.Equal(t, 15, a.LastHourOversRemaining)

	require.True(t, e.SelectBowler("b2"))
	for i := 0; i < 6; i++ {
		apply(t, e, Delta{})
	}
	assert.Equal(t, 6, a.LastHourBalls)
	assert.Equal(t, 14, a.LastHourOversRemaining)
	assert.False(t, a.Concluded)
}

func TestUpdateMetadata(t *testing.T) {
	e := NewEngine(NewMatchState("m1", FormatT20, "teamA", "teamB"), Limits{})
	scorer := "u1"
	batting, bowling := "teamB", "teamA"
	require.True(t, e.UpdateMetadata(Metadata{
		ActiveScorerID: &scorer,
		BattingTeamID:  &batting,
		BowlingTeamID:  &bowling,
		Umpires:        []string{"ump1", "ump2"},
	}))
	s := e.State()
	assert.Equal(t, "u1", s.ActiveScorerID)
	assert.Equal(t, "teamB", s.InningsScores[0].TeamID)
	assert.Equal(t, []string{"ump1", "ump2"}, s.Umpires)
	assert.False(t, e.UpdateMetadata(Metadata{ActiveScorerID: &scorer}))
}

func TestTimerPauseResume(t *testing.T) {
	e := newTestEngine(t, FormatTest, 0)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.SetClock(func() time.Time { return now })
	require.True(t, e.PauseTimer())
	assert.False(t, e.PauseTimer())
	now = now.Add(90 * time.Second)
	require.True(t, e.ResumeTimer())
	tm := e.State().Timer
	assert.False(t, tm.IsPaused)
	assert.Equal(t, int64(90_000), tm.TotalAllowances)
	assert.False(t, e.ResumeTimer())
}

func TestVersionBumpsOnMutation(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	v := e.State().Version
	apply(t, e, Delta{})
	assert.Equal(t, v+1, e.State().Version)
	_, _ = e.ApplyBall(Delta{Runs: -3})
	assert.Equal(t, v+1, e.State().Version)
}

func TestCloneIsDeep(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	apply(t, e, Delta{Runs: 1, PitchCoords: &Coord{X: 1, Y: 1}})
	c := e.Snapshot()
	c.History[len(c.History)-1].PitchCoords.X = 9
	c.InningsScores[0].Score = 99
	assert.Equal(t, 1.0, e.State().History[len(e.State().History)-1].PitchCoords.X)
	assert.Equal(t, 1, e.State().InningsScores[0].Score)
}

func TestRecentIsNewestFirst(t *testing.T) {
	e := newTestEngine(t, FormatT20, 20)
	apply(t, e, Delta{Runs: 1})
	apply(t, e, Delta{Runs: 2})
	r := e.State().Recent()
	assert.Equal(t, 2, r[0].Runs)
	assert.Equal(t, KindOpeners, r[len(r)-1].Kind)
}
