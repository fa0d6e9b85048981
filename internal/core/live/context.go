package live

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/commentary"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/innings"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/roster"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

const (
	inboxSize = 256
	// Number of recently announced versions remembered for echo detection.
	echoWindow = 64
)

// Observer notification kinds.
const (
	NotifyBall            = "BALL"
	NotifyWicket          = "WICKET"
	NotifyUndo            = "UNDO"
	NotifyEdit            = "EDIT"
	NotifyChange          = "CHANGE"
	NotifyInningsComplete = "INNINGS COMPLETE"
	NotifyMatchComplete   = "MATCH COMPLETE"
	NotifyRemote          = "REMOTE"
)

// MatchObserver receives notifications when match state changes.
// Implementations run on the match goroutine and may read mc state directly.
type MatchObserver interface {
	OnMatchEvent(mc *MatchContext, kind string)
}

// Deps are the collaborators of a match context.
type Deps struct {
	Rules  rules.Rules
	Roster roster.Provider
	Bus    *events.Bus
	Merger replica.Merger
	// Now overrides the engine clock in tests.
	Now func() time.Time
	// Seed fixes commentary phrase choice.
	Seed uint64
}

// MatchContext is the single owner of one live match.
//
// All state mutations are serialized through an inbox channel drained by
// one goroutine, so no field needs a mutex. Callers either Send a closure
// or use Do to wait for its result.
type MatchContext struct {
	ID string

	engine *match.Engine
	rules  rules.Rules
	roster roster.Provider
	bus    *events.Bus
	merger replica.Merger
	words  *commentary.Generator
	log    zerolog.Logger

	// Set before observers are notified; nil when not relevant.
	LastBall    *events.BallEvent
	LastInnings *events.InningsCompleteEvent
	Result      *innings.Result

	observers []MatchObserver

	// produced maps recently announced versions to their UpdatedAt.
	produced      map[int64]int64
	producedOrder []int64

	mu     sync.RWMutex
	closed bool
	inbox  chan func()
	stop   chan struct{}
}

// New starts the goroutine of a match. s is owned by the context from now on.
func New(s *match.MatchState, d Deps) *MatchContext {
	e := match.NewEngine(s, d.Rules.Limits())
	if d.Now != nil {
		e.SetClock(d.Now)
	}
	if d.Bus == nil {
		d.Bus = events.NewBus()
	}
	if d.Roster == nil {
		d.Roster, _ = roster.New()
	}
	seed := d.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	mc := &MatchContext{
		ID:     s.ID,
		engine: e,
		rules:  d.Rules,
		roster: d.Roster,
		bus:    d.Bus,
		merger: d.Merger,
		words:  commentary.New(seed),
		log:    telemetry.WithMatch("match", s.ID),
		inbox:  make(chan func(), inboxSize),
		stop:   make(chan struct{}),

		produced: make(map[int64]int64),
	}
	if s.IsCompleted {
		res := innings.Decide(s, innings.Reason(s.CompletionReason), d.Rules)
		mc.Result = &res
	}
	go mc.run()
	return mc
}

func (mc *MatchContext) run() {
	defer close(mc.stop)
	for fn := range mc.inbox {
		fn()
	}
}

// Send enqueues a closure to run on the match goroutine. It never blocks:
// the closure is dropped and false returned when the inbox is full or the
// match is closed.
func (mc *MatchContext) Send(fn func()) bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.closed {
		return false
	}
	select {
	case mc.inbox <- fn:
		return true
	default:
		telemetry.Metrics.InboxOverflows.Inc()
		mc.log.Warn().Int("cap", cap(mc.inbox)).Msg("inbox full, dropping closure")
		return false
	}
}

// Do runs fn on the match goroutine and waits for its error. ctx bounds
// the wait only; once queued, fn always runs.
func (mc *MatchContext) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if !mc.Send(func() { done <- fn() }) {
		mc.mu.RLock()
		closed := mc.closed
		mc.mu.RUnlock()
		if closed {
			return ErrClosed
		}
		return ErrBusy
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddObserver registers an observer. Must be called before the match
// starts receiving operations.
func (mc *MatchContext) AddObserver(o MatchObserver) {
	mc.observers = append(mc.observers, o)
}

// Notify calls every observer. Must run on the match goroutine.
func (mc *MatchContext) Notify(kind string) {
	for _, o := range mc.observers {
		o.OnMatchEvent(mc, kind)
	}
}

// State exposes the live state to observers. Must run on the match goroutine.
func (mc *MatchContext) State() *match.MatchState { return mc.engine.State() }

func (mc *MatchContext) Rules() rules.Rules { return mc.rules }

func (mc *MatchContext) Roster() roster.Provider { return mc.roster }

// Close drains the inbox and stops the goroutine.
func (mc *MatchContext) Close() {
	mc.mu.Lock()
	if mc.closed {
		mc.mu.Unlock()
		<-mc.stop
		return
	}
	mc.closed = true
	close(mc.inbox)
	mc.mu.Unlock()
	<-mc.stop
}
