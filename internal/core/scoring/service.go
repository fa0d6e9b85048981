package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/config"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/store"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/roster"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

var ErrExists = errors.New("match already exists")

// Options wires a Service.
type Options struct {
	Remote    replica.Store // nil keeps matches in memory only
	Formats   config.Formats
	Roster    roster.Provider
	Bus       *events.Bus
	Merger    replica.Merger
	Observers []live.MatchObserver
	// Seed fixes commentary phrase choice; zero picks a random seed.
	Seed uint64
}

// Service creates and loads live matches and keeps each one subscribed to
// the remote store for other clients' writes.
type Service struct {
	matches *store.MatchStore
	opts    Options
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[string]func()
}

func NewService(opts Options) *Service {
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.Roster == nil {
		opts.Roster, _ = roster.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		matches: store.New(),
		opts:    opts,
		log:     telemetry.WithComponent("scoring"),
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[string]func()),
	}
}

// CreateRequest describes a new match.
type CreateRequest struct {
	ID              string       `json:"id,omitempty"`
	Format          match.Format `json:"format"`
	OversPerInnings int          `json:"oversPerInnings,omitempty"`
	PlayersPerSide  int          `json:"playersPerSide,omitempty"`
	FlexibleSquad   bool         `json:"flexibleSquad,omitempty"`
	Days            int          `json:"days,omitempty"`
	BattingTeamID   string       `json:"battingTeamId"`
	BowlingTeamID   string       `json:"bowlingTeamId"`
	Umpires         []string     `json:"umpires,omitempty"`
}

func (r CreateRequest) config() rules.Config {
	return rules.Config{
		Format:          r.Format,
		OversPerInnings: r.OversPerInnings,
		PlayersPerSide:  r.PlayersPerSide,
		FlexibleSquad:   r.FlexibleSquad,
		Days:            r.Days,
	}
}

// Create starts a new match and announces its initial state.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*live.MatchContext, error) {
	switch req.Format {
	case match.FormatT20, match.FormatODI, match.FormatTest:
	case match.FormatCustom:
		if req.OversPerInnings < 0 {
			return nil, &live.ValidationError{Msg: "Overs per innings cannot be negative."}
		}
	default:
		return nil, &live.ValidationError{Msg: fmt.Sprintf("Unknown format %q.", req.Format)}
	}
	if req.BattingTeamID == "" || req.BowlingTeamID == "" {
		return nil, &live.ValidationError{Msg: "Both teams are required."}
	}
	if req.BattingTeamID == req.BowlingTeamID {
		return nil, &live.ValidationError{Msg: "A team cannot play itself."}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, ok := s.matches.Get(req.ID); ok {
		return nil, fmt.Errorf("create %s: %w", req.ID, ErrExists)
	}
	if s.opts.Remote != nil {
		_, err := s.opts.Remote.Load(ctx, req.ID)
		if err == nil {
			return nil, fmt.Errorf("create %s: %w", req.ID, ErrExists)
		}
		if !errors.Is(err, replica.ErrNotFound) {
			return nil, fmt.Errorf("create %s: %w", req.ID, err)
		}
	}

	st := match.NewMatchState(req.ID, req.Format, req.BattingTeamID, req.BowlingTeamID)
	st.Settings = req.config().Settings()
	st.Umpires = append([]string(nil), req.Umpires...)

	built := s.build(st)
	mc := s.matches.Put(built)
	if mc != built {
		return nil, fmt.Errorf("create %s: %w", req.ID, ErrExists)
	}
	if err := s.follow(mc); err != nil {
		s.log.Warn().Err(err).Str("match", mc.ID).Msg("remote subscription failed")
	}
	if err := mc.Announce(ctx, "create"); err != nil {
		return nil, err
	}
	s.log.Info().Str("match", mc.ID).Str("format", string(req.Format)).Msg("match created")
	return mc, nil
}

// Get returns a held match or loads it from the remote store. Only the
// context the store keeps is subscribed.
func (s *Service) Get(ctx context.Context, id string) (*live.MatchContext, error) {
	var built *live.MatchContext
	mc, err := s.matches.GetOrLoad(ctx, id, func(ctx context.Context) (*live.MatchContext, error) {
		if s.opts.Remote == nil {
			return nil, fmt.Errorf("match %s: %w", id, live.ErrNotFound)
		}
		st, err := s.opts.Remote.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		built = s.build(st)
		s.log.Info().Str("match", id).Int64("version", st.Version).Msg("match loaded")
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	if built != nil && mc == built {
		if err := s.follow(mc); err != nil {
			s.log.Warn().Err(err).Str("match", id).Msg("remote subscription failed")
		}
	}
	return mc, nil
}

// List returns the matches held in memory.
func (s *Service) List() []*live.MatchContext { return s.matches.All() }

// Rules resolves the rules a saved state was created with, including
// any format overrides.
func (s *Service) Rules(st *match.MatchState) rules.Rules {
	return s.opts.Formats.Resolve(rules.ConfigFor(st))
}

func (s *Service) build(st *match.MatchState) *live.MatchContext {
	mc := live.New(st, live.Deps{
		Rules:  s.Rules(st),
		Roster: s.opts.Roster,
		Bus:    s.opts.Bus,
		Merger: s.opts.Merger,
		Seed:   s.opts.Seed,
	})
	for _, o := range s.opts.Observers {
		mc.AddObserver(o)
	}
	return mc
}

// follow feeds the remote store's change stream for mc into ApplyRemote.
func (s *Service) follow(mc *live.MatchContext) error {
	if s.opts.Remote == nil {
		return nil
	}
	cancel, err := s.opts.Remote.Subscribe(s.ctx, mc.ID, func(st *match.MatchState) {
		mc.ApplyRemote(st, "store")
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.subs[mc.ID]; ok {
		prev()
	}
	s.subs[mc.ID] = cancel
	return nil
}

// Drop unloads a match from memory. Its saved state is untouched.
func (s *Service) Drop(id string) {
	s.mu.Lock()
	if cancel, ok := s.subs[id]; ok {
		cancel()
		delete(s.subs, id)
	}
	s.mu.Unlock()
	s.matches.Delete(id)
}

// Close ends all subscriptions and stops every match goroutine.
func (s *Service) Close() {
	s.cancel()
	s.mu.Lock()
	for id, cancel := range s.subs {
		cancel()
		delete(s.subs, id)
	}
	s.mu.Unlock()
	s.matches.CloseAll()
}
