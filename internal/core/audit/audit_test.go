package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/roster"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenStore(filepath.Join(t.TempDir(), "audit", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_InsertQuery(t *testing.T) {
	st := openStore(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m1"} {
		require.NoError(t, st.Insert(Row{
			Ts:        ts.Add(time.Duration(i) * time.Minute),
			MatchID:   id,
			EventType: live.NotifyWicket,
			Innings:   1,
			Score:     10 * i,
			Wickets:   i + 1,
			Overs:     "1.2",
		}))
	}

	rows, err := st.Query(Filter{MatchID: "m1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 20, rows[0].Score, "newest first")
	assert.True(t, rows[0].Ts.Equal(ts.Add(2*time.Minute)))
	assert.Equal(t, "1.2", rows[1].Overs)

	rows, err = st.Query(Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = st.Query(Filter{EventType: live.NotifyMatchComplete})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestArchive_WriteRead(t *testing.T) {
	a, err := NewArchive(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)

	s := match.NewMatchState("m9", match.FormatT20, "a", "b")
	s.Score = 151
	require.NoError(t, a.Write(Record{State: s, ResultText: "first"}))
	require.NoError(t, a.Write(Record{State: s, ResultText: "second"}))

	rec, err := a.Read("m9")
	require.NoError(t, err)
	assert.Equal(t, "second", rec.ResultText)
	assert.Equal(t, 151, rec.State.Score)

	_, err = a.Read("missing")
	assert.Error(t, err)
}

func testRoster(t *testing.T) *roster.Roster {
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

func TestObserver_RecordsMatch(t *testing.T) {
	verifyNone(t)
	st := openStore(t)
	arch, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	cfg := rules.Config{Format: match.FormatCustom, OversPerInnings: 1}
	s := match.NewMatchState("m1", cfg.Format, "a", "b")
	s.Settings = cfg.Settings()
	mc := live.New(s, live.Deps{
		Rules:  rules.Resolve(cfg),
		Roster: testRoster(t),
		Merger: replica.NewMerger(replica.LastWriteWins),
		Seed:   7,
	})
	mc.AddObserver(NewObserver(st, arch))
	defer mc.Close()

	ctx := context.Background()
	who := replica.Identity{ID: "s1", Role: replica.RoleScorer}
	step := func(_ *match.MatchState, err error) {
		t.Helper()
		require.NoError(t, err)
	}

	step(mc.StartInnings(ctx, who, live.StartRequest{StrikerID: "a1", NonStrikerID: "a2", BowlerID: "b1"}))
	step(mc.RecordWicket(ctx, who, live.WicketRequest{Type: match.WicketBowled}))
	step(mc.SelectBatter(ctx, who, match.SlotStriker, "a3"))
	for i := 0; i < 5; i++ {
		step(mc.ApplyBall(ctx, who, live.BallRequest{Runs: 4}))
	}
	step(mc.StartNextInnings(ctx, who))
	step(mc.StartInnings(ctx, who, live.StartRequest{StrikerID: "b1", NonStrikerID: "b2", BowlerID: "a1"}))
	for i := 0; i < 4; i++ {
		step(mc.ApplyBall(ctx, who, live.BallRequest{Runs: 6}))
	}

	rows, err := st.Query(Filter{MatchID: "m1"})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, live.NotifyMatchComplete, rows[0].EventType)
	assert.Equal(t, "Bees won by 10 wickets", rows[0].Detail)
	assert.Equal(t, live.NotifyInningsComplete, rows[1].EventType)
	assert.Equal(t, "target reached", rows[1].Detail)
	assert.Equal(t, 24, rows[1].Score)
	assert.Equal(t, live.NotifyInningsComplete, rows[2].EventType)
	assert.Equal(t, "overs exhausted", rows[2].Detail)
	assert.Equal(t, 20, rows[2].Score)
	assert.Equal(t, "1.0", rows[2].Overs)
	assert.Equal(t, live.NotifyWicket, rows[3].EventType)
	assert.Equal(t, 1, rows[3].Wickets)
	assert.Equal(t, "0.1", rows[3].Overs)
	assert.Equal(t, "s1", rows[3].ScorerID)

	rec, err := arch.Read("m1")
	require.NoError(t, err)
	assert.Equal(t, "Bees won by 10 wickets", rec.ResultText)
	assert.Equal(t, "b", rec.Result.WinnerID)
	require.Len(t, rec.Scorecards, 2)
	assert.Equal(t, 2, rec.Scorecards[1].Innings)
	assert.True(t, rec.State.IsCompleted)
}

// verifyNone checks for leaks after every cleanup registered later has run.
func verifyNone(t *testing.T) {
	t.Helper()
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })
}
