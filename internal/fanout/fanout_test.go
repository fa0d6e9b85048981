package fanout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
)

type applied struct {
	mu     sync.Mutex
	states []*match.MatchState
}

func (a *applied) apply(_ string, s *match.MatchState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states = append(a.states, s)
}

func (a *applied) get() []*match.MatchState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*match.MatchState(nil), a.states...)
}

type testServer struct {
	*Server
	bus  *events.Bus
	addr string
	ts   *httptest.Server
}

func (s *testServer) close() {
	s.Server.Close()
	s.ts.Close()
}

func startServer(initial InitialState) *testServer {
	bus := events.NewBus()
	srv := NewServer(bus, initial)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	return &testServer{Server: srv, bus: bus, addr: "ws" + strings.TrimPrefix(ts.URL, "http"), ts: ts}
}

func follow(t *testing.T, addr, matchID string, bus *events.Bus, a *applied) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewClient(addr, matchID, bus, a.apply).ConnectWithRetry(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestFanout_DeliversMatchEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	srv := startServer(nil)
	defer srv.close()
	bus, addr := srv.bus, srv.addr

	local := events.NewBus()
	var balls []events.BallEvent
	var mu sync.Mutex
	local.Subscribe(events.EventBall, func(e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		balls = append(balls, e.Payload.(events.BallEvent))
		return nil
	})

	a := &applied{}
	stop := follow(t, addr, "m1", local, a)
	defer stop()
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	other := match.NewMatchState("m2", match.FormatT20, "a", "b")
	bus.Publish(events.New(events.EventStateChanged, "m2", events.StateChangedEvent{State: other, Op: "ball"}))

	s := match.NewMatchState("m1", match.FormatT20, "a", "b")
	s.Score, s.Version = 4, 3
	bus.Publish(events.New(events.EventStateChanged, "m1", events.StateChangedEvent{State: s, Op: "ball"}))
	bus.Publish(events.New(events.EventBall, "m1", events.BallEvent{Runs: 4, Commentary: "FOUR!"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(balls) == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := a.get()
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, 4, got[0].Score)
	assert.Equal(t, int64(3), got[0].Version)
	mu.Lock()
	assert.Equal(t, "FOUR!", balls[0].Commentary)
	mu.Unlock()

	stop()
	require.Eventually(t, func() bool { return srv.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFanout_InitialSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	s := match.NewMatchState("m1", match.FormatODI, "a", "b")
	s.Score = 77
	srv := startServer(func(_ context.Context, id string) (*match.MatchState, error) {
		if id != "m1" {
			return nil, nil
		}
		return s, nil
	})
	defer srv.close()
	addr := srv.addr

	a := &applied{}
	stop := follow(t, addr, "m1", events.NewBus(), a)
	defer stop()

	require.Eventually(t, func() bool { return len(a.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 77, a.get()[0].Score)
}

func TestHandleWS_RequiresMatch(t *testing.T) {
	srv := NewServer(events.NewBus(), nil)
	rec := httptest.NewRecorder()
	srv.HandleWS(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnmarshalEvent(t *testing.T) {
	data, err := MarshalEvent(events.New(events.EventInningsComplete, "m1", events.InningsCompleteEvent{Innings: 1, Score: 99}))
	require.NoError(t, err)
	evt, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, "m1", evt.MatchID)
	assert.Equal(t, 99, evt.Payload.(events.InningsCompleteEvent).Score)

	_, err = UnmarshalEvent([]byte(`{"type":"remote_change","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = UnmarshalEvent([]byte(`{"type":"state_changed","payload":{}}`))
	assert.Error(t, err)
}
