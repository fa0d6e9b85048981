package replica

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
)

type memStore struct {
	mu        sync.Mutex
	states    map[string]*match.MatchState
	summaries map[string]Summary
	writes    []int64
	fail      int
	block     chan struct{}
}

func newMemStore() *memStore {
	return &memStore{states: map[string]*match.MatchState{}, summaries: map[string]Summary{}}
}

func (m *memStore) Persist(_ context.Context, s *match.MatchState) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail > 0 {
		m.fail--
		return errors.New("store unavailable")
	}
	m.states[s.ID] = s.Clone()
	m.writes = append(m.writes, s.Version)
	return nil
}

func (m *memStore) PersistSummary(_ context.Context, sum Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[sum.MatchID] = sum
	return nil
}

func (m *memStore) Load(_ context.Context, id string) (*match.MatchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memStore) Subscribe(context.Context, string, func(*match.MatchState)) (func(), error) {
	return func() {}, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) version(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[id]; ok {
		return s.Version
	}
	return -1
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

func withVersion(id string, v int64) *match.MatchState {
	s := match.NewMatchState(id, match.FormatT20, "A", "B")
	s.Version = v
	return s
}

func TestAuthorizationAndLock(t *testing.T) {
	s := match.NewMatchState("m1", match.FormatT20, "A", "B")
	s.Umpires = []string{"ump1"}

	scorer := Identity{ID: "s1", Role: RoleScorer}
	other := Identity{ID: "s2", Role: RoleScorer}
	admin := Identity{ID: "adm", Role: RoleAdministrator}

	assert.True(t, Authorized(s, scorer))
	assert.True(t, Authorized(s, Identity{ID: "ump1", Role: RoleUmpire}))
	assert.False(t, Authorized(s, Identity{ID: "ump2", Role: RoleUmpire}))
	assert.False(t, Authorized(s, Identity{ID: "v", Role: RoleViewer}))
	assert.False(t, Authorized(s, Identity{Role: RoleScorer}))

	id, claim := ClaimID(s, scorer)
	assert.True(t, claim)
	assert.Equal(t, "s1", id)
	s.ActiveScorerID = id

	assert.False(t, ReadOnly(s, scorer))
	assert.True(t, ReadOnly(s, other))
	assert.False(t, ReadOnly(s, admin), "administrators override")
	_, claim = ClaimID(s, admin)
	assert.False(t, claim)

	assert.Equal(t, RoleUmpire, ParseRole("umpire"))
	assert.Equal(t, RoleViewer, ParseRole("root"))
}

func TestMerger(t *testing.T) {
	local := withVersion("m1", 5)
	same := local.Clone()
	same.History = nil

	lww := NewMerger(LastWriteWins)
	got, out := lww.Merge(local, same)
	assert.Equal(t, OutcomeEqual, out, "nil and empty history are equal")
	assert.Same(t, local, got)

	older := withVersion("m1", 3)
	older.Score = 40
	got, out = lww.Merge(local, older)
	assert.Equal(t, OutcomeApplied, out, "last write wins even when older")
	assert.Same(t, older, got)

	versioned := NewMerger(ParsePolicy("versioned"))
	got, out = versioned.Merge(local, older)
	assert.Equal(t, OutcomeStale, out)
	assert.Same(t, local, got)

	newer := withVersion("m1", 6)
	_, out = versioned.Merge(local, newer)
	assert.Equal(t, OutcomeApplied, out)

	_, out = lww.Merge(local, withVersion("m2", 9))
	assert.Equal(t, OutcomeForeign, out)
	got, out = lww.Merge(nil, newer)
	assert.Equal(t, OutcomeApplied, out)
	assert.Same(t, newer, got)
}

func TestSummarize(t *testing.T) {
	s := match.NewMatchState("m1", match.FormatTest, "A", "B")
	assert.Equal(t, StatusScheduled, Summarize(s).Status)
	assert.Empty(t, Summarize(s).Scores)

	e := match.NewEngine(s, match.Limits{MaxInnings: 4})
	require.True(t, e.SetOpeners("a1", "a2", "b1"))
	_, err := e.ApplyBall(match.Delta{Runs: 4})
	require.NoError(t, err)
	require.True(t, e.DeclareInnings())
	require.True(t, e.EndInnings(false, ""))
	require.True(t, e.StartInnings("B", "A", nil, false))
	require.True(t, e.SetOpeners("b1", "b2", "a9"))
	_, err = e.RecordWicket(match.WicketEvent{Type: match.WicketBowled})
	require.NoError(t, err)

	sum := Summarize(s)
	assert.Equal(t, StatusLive, sum.Status)
	assert.Equal(t, map[string]string{"A": "4/0d", "B": "0/1"}, sum.Scores)

	require.True(t, e.EndInnings(true, "concluded"))
	assert.Equal(t, StatusCompleted, Summarize(s).Status)
}

func TestSyncer_CoalescesToLatest(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newMemStore()
	store.block = make(chan struct{})
	sy := NewSyncer(store, 0)

	sy.Enqueue(withVersion("m1", 1))
	// The first write is now in flight and blocked; these two coalesce.
	require.Eventually(t, func() bool { return sy.Pending() == 0 }, time.Second, 5*time.Millisecond)
	sy.Enqueue(withVersion("m1", 2))
	sy.Enqueue(withVersion("m1", 3))
	assert.Equal(t, 1, sy.Pending())
	close(store.block)

	require.Eventually(t, func() bool { return store.version("m1") == 3 }, time.Second, 5*time.Millisecond)
	sy.Close()
	assert.Equal(t, []int64{1, 3}, store.writes)
	assert.Equal(t, StatusScheduled, store.summaries["m1"].Status)
}

func TestSyncer_RetriesAfterFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newMemStore()
	store.fail = 1
	sy := NewSyncer(store, 0)
	defer sy.Close()

	sy.Enqueue(withVersion("m1", 7))
	require.Eventually(t, func() bool { return store.version("m1") == 7 }, 3*time.Second, 10*time.Millisecond)
}

func TestSyncer_FlushesOnClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newMemStore()
	sy := NewSyncer(store, time.Hour)
	sy.Enqueue(withVersion("m1", 1))
	sy.Enqueue(withVersion("m2", 1))
	sy.Close()
	sy.Close()

	assert.Equal(t, int64(1), store.version("m1"))
	assert.Equal(t, int64(1), store.version("m2"))
}

func TestSyncer_AttachToBus(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newMemStore()
	sy := NewSyncer(store, 0)
	bus := events.NewBus()
	sy.Attach(bus)

	bus.Publish(events.New(events.EventStateChanged, "m1", events.StateChangedEvent{State: withVersion("m1", 4), Op: "ball"}))
	require.Eventually(t, func() bool { return store.writeCount() == 1 }, time.Second, 5*time.Millisecond)
	sy.Close()
}
