package replica

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

const (
	writeTimeout = 5 * time.Second
	maxBackoff   = 30 * time.Second
)

// Syncer writes match snapshots to the remote store off the scoring path.
// Only the latest snapshot per match is kept; a write that is superseded
// before it starts is skipped, one already in flight is allowed to finish.
type Syncer struct {
	store   Store
	limiter *rate.Limiter
	log     zerolog.Logger

	mu      sync.Mutex
	pending map[string]*match.MatchState
	order   []string

	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}
	closed sync.Once
}

// NewSyncer starts the write loop. pacing is the minimum gap between two
// writes; zero writes as fast as the store allows.
func NewSyncer(store Store, pacing time.Duration) *Syncer {
	limit := rate.Inf
	if pacing > 0 {
		limit = rate.Every(pacing)
	}
	s := &Syncer{
		store:   store,
		limiter: rate.NewLimiter(limit, 1),
		log:     telemetry.WithComponent("syncer"),
		pending: make(map[string]*match.MatchState),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Attach subscribes the syncer to state changes on the bus.
func (s *Syncer) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventStateChanged, s.handle)
}

func (s *Syncer) handle(e events.Event) error {
	sc, ok := e.Payload.(events.StateChangedEvent)
	if !ok {
		return fmt.Errorf("syncer: unexpected payload %T", e.Payload)
	}
	s.Enqueue(sc.State)
	return nil
}

// Enqueue hands a snapshot over for persistence. It never blocks. The
// snapshot must not be mutated afterwards.
func (s *Syncer) Enqueue(st *match.MatchState) {
	if st == nil {
		return
	}
	s.put(st, true)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// put stores st as pending. With replace false an existing entry wins,
// which keeps a failed write from clobbering a newer snapshot.
func (s *Syncer) put(st *match.MatchState, replace bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[st.ID]; ok {
		if replace {
			s.pending[st.ID] = st
		}
		return
	}
	s.pending[st.ID] = st
	s.order = append(s.order, st.ID)
}

func (s *Syncer) next() (*match.MatchState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return nil, false
	}
	id := s.order[0]
	s.order = s.order[1:]
	st := s.pending[id]
	delete(s.pending, id)
	return st, true
}

// Pending reports how many matches have an unwritten snapshot.
func (s *Syncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Syncer) run() {
	defer close(s.done)
	backoff := time.Duration(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stop
		cancel()
	}()

	for {
		st, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				s.flush()
				return
			}
		}
		if err := s.limiter.Wait(ctx); err != nil {
			s.put(st, false)
			s.flush()
			return
		}
		if err := s.write(ctx, st); err != nil {
			s.put(st, false)
			backoff = nextBackoff(backoff)
			s.log.Warn().Err(err).Str("match", st.ID).Dur("retry_in", backoff).Msg("persist failed")
			select {
			case <-time.After(backoff):
			case <-s.stop:
				s.flush()
				return
			}
			continue
		}
		backoff = 0
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 500 * time.Millisecond
	}
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (s *Syncer) write(ctx context.Context, st *match.MatchState) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	start := time.Now()
	err := s.store.Persist(ctx, st)
	telemetry.Metrics.PersistLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.Metrics.PersistErrors.Inc()
		return fmt.Errorf("persist %s: %w", st.ID, err)
	}
	telemetry.Metrics.PersistWrites.Inc()

	if err := s.store.PersistSummary(ctx, Summarize(st)); err != nil {
		// Not requeued. The next write refreshes the summary.
		telemetry.Metrics.PersistErrors.Inc()
		s.log.Warn().Err(err).Str("match", st.ID).Msg("summary write failed")
	}
	return nil
}

// flush makes one last attempt at everything still pending.
func (s *Syncer) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	for {
		st, ok := s.next()
		if !ok {
			return
		}
		if err := s.write(ctx, st); err != nil {
			s.log.Error().Err(err).Str("match", st.ID).Msg("dropping snapshot on shutdown")
		}
	}
}

// Close stops the loop after flushing pending snapshots.
func (s *Syncer) Close() {
	s.closed.Do(func() { close(s.stop) })
	<-s.done
}
