package scoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/adapters/outbound/remote"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
)

// node is one process: its own bus, remote client, syncer and service.
type node struct {
	svc    *Service
	syncer *replica.Syncer
	store  *remote.RedisStore
}

func newNode(t *testing.T, mr *miniredis.Miniredis) *node {
	t.Helper()
	st := remote.NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	bus := events.NewBus()
	sy := replica.NewSyncer(st, 0)
	sy.Attach(bus)
	return &node{
		svc:    NewService(Options{Remote: st, Bus: bus, Merger: replica.NewMerger(replica.LastWriteWins), Seed: 3}),
		syncer: sy,
		store:  st,
	}
}

func (n *node) close() {
	n.svc.Close()
	n.syncer.Close()
	n.store.Close()
}

func TestCreate_Validation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	svc := NewService(Options{})
	defer svc.Close()
	ctx := context.Background()

	var ve *live.ValidationError
	_, err := svc.Create(ctx, CreateRequest{Format: "Hundred", BattingTeamID: "a", BowlingTeamID: "b"})
	require.ErrorAs(t, err, &ve)
	_, err = svc.Create(ctx, CreateRequest{Format: match.FormatT20, BattingTeamID: "a"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Both teams are required.", ve.Msg)
	_, err = svc.Create(ctx, CreateRequest{Format: match.FormatT20, BattingTeamID: "a", BowlingTeamID: "a"})
	require.ErrorAs(t, err, &ve)

	mc, err := svc.Create(ctx, CreateRequest{Format: match.FormatCustom, OversPerInnings: 5, BattingTeamID: "a", BowlingTeamID: "b"})
	require.NoError(t, err)
	assert.NotEmpty(t, mc.ID)
	assert.Equal(t, 5, mc.Rules().OversPerInnings)

	_, err = svc.Create(ctx, CreateRequest{ID: mc.ID, Format: match.FormatT20, BattingTeamID: "a", BowlingTeamID: "b"})
	assert.ErrorIs(t, err, ErrExists)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, live.ErrNotFound)
	assert.Len(t, svc.List(), 1)
}

func TestReplicaFollowsScorer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	defer mr.Close()

	scorerNode := newNode(t, mr)
	viewerNode := newNode(t, mr)
	ctx := context.Background()

	mc, err := scorerNode.svc.Create(ctx, CreateRequest{ID: "m1", Format: match.FormatT20, BattingTeamID: "a", BowlingTeamID: "b"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := viewerNode.store.Load(ctx, "m1")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	_, err = scorerNode.svc.Create(ctx, CreateRequest{ID: "m1", Format: match.FormatT20, BattingTeamID: "a", BowlingTeamID: "b"})
	assert.ErrorIs(t, err, ErrExists)

	view, err := viewerNode.svc.Get(ctx, "m1")
	require.NoError(t, err)
	again, err := viewerNode.svc.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Same(t, view, again)

	scorer := replica.Identity{ID: "s1", Role: replica.RoleScorer}
	_, err = mc.StartInnings(ctx, scorer, live.StartRequest{StrikerID: "a1", NonStrikerID: "a2", BowlerID: "b1"})
	require.NoError(t, err)
	_, err = mc.ApplyBall(ctx, scorer, live.BallRequest{Runs: 4})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, err := view.Snapshot(ctx)
		return err == nil && s.Score == 4
	}, 2*time.Second, 10*time.Millisecond)

	v, err := view.View(ctx, replica.Identity{ID: "s2", Role: replica.RoleScorer})
	require.NoError(t, err)
	assert.True(t, v.ReadOnly, "the replica sees the scorer's lock")

	local, err := mc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, local.Score, "own echo does not roll the scorer back")

	viewerNode.svc.Drop("m1")
	assert.Empty(t, viewerNode.svc.List())

	viewerNode.close()
	scorerNode.close()
}

// gatedStore holds the first Load until gate is closed.
type gatedStore struct {
	replica.Store
	once    sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedStore) Load(ctx context.Context, id string) (*match.MatchState, error) {
	wait := false
	g.once.Do(func() { wait = true })
	if wait {
		close(g.entered)
		<-g.gate
	}
	return g.Store.Load(ctx, id)
}

func TestGet_LosingLoadKeepsCreatedSubscription(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	defer mr.Close()

	rs := remote.NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer rs.Close()
	gs := &gatedStore{Store: rs, entered: make(chan struct{}), gate: make(chan struct{})}
	svc := NewService(Options{Remote: gs, Merger: replica.NewMerger(replica.LastWriteWins), Seed: 3})
	defer svc.Close()
	ctx := context.Background()

	type got struct {
		mc  *live.MatchContext
		err error
	}
	loaded := make(chan got, 1)
	go func() {
		mc, err := svc.Get(ctx, "m1")
		loaded <- got{mc, err}
	}()
	<-gs.entered

	created, err := svc.Create(ctx, CreateRequest{ID: "m1", Format: match.FormatT20, BattingTeamID: "a", BowlingTeamID: "b"})
	require.NoError(t, err)
	snap, err := created.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, rs.Persist(ctx, snap))

	close(gs.gate)
	res := <-loaded
	require.NoError(t, res.err)
	assert.Same(t, created, res.mc)

	next := snap.Clone()
	next.Version++
	next.UpdatedAt++
	next.Score = 50
	require.NoError(t, rs.Persist(ctx, next))
	require.Eventually(t, func() bool {
		s, err := created.Snapshot(ctx)
		return err == nil && s.Score == 50
	}, 2*time.Second, 10*time.Millisecond)
}
