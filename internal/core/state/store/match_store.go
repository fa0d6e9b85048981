package store

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

// MatchStore is a thread-safe map of all live match contexts, keyed by
// match id.
//
// The store's RWMutex protects the map itself (lookups, inserts, deletes).
// It does NOT protect the MatchContext contents; each MatchContext
// serializes its own state mutations through its inbox channel.
type MatchStore struct {
	mu      sync.RWMutex
	matches map[string]*live.MatchContext
	loads   singleflight.Group
}

func New() *MatchStore {
	return &MatchStore{
		matches: make(map[string]*live.MatchContext),
	}
}

func (s *MatchStore) Get(id string) (*live.MatchContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mc, ok := s.matches[id]
	return mc, ok
}

// Put adds mc unless a context with the same id is already held, and
// returns the one that is kept. A rejected mc is closed.
func (s *MatchStore) Put(mc *live.MatchContext) *live.MatchContext {
	s.mu.Lock()
	if cur, ok := s.matches[mc.ID]; ok {
		s.mu.Unlock()
		if cur != mc {
			mc.Close()
		}
		return cur
	}
	s.matches[mc.ID] = mc
	n := len(s.matches)
	s.mu.Unlock()

	telemetry.Metrics.ActiveMatches.Set(float64(n))
	return mc
}

// GetOrLoad returns the held context or builds it with load. Concurrent
// callers for the same id share one load.
func (s *MatchStore) GetOrLoad(ctx context.Context, id string, load func(context.Context) (*live.MatchContext, error)) (*live.MatchContext, error) {
	if mc, ok := s.Get(id); ok {
		return mc, nil
	}
	v, err, _ := s.loads.Do(id, func() (any, error) {
		if mc, ok := s.Get(id); ok {
			return mc, nil
		}
		mc, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return s.Put(mc), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*live.MatchContext), nil
}

// Delete removes a match from the store and shuts down its goroutine.
func (s *MatchStore) Delete(id string) {
	s.mu.Lock()
	mc, ok := s.matches[id]
	delete(s.matches, id)
	n := len(s.matches)
	s.mu.Unlock()

	if ok {
		telemetry.Metrics.ActiveMatches.Set(float64(n))
		mc.Close()
	}
}

// All returns the held contexts ordered by id.
func (s *MatchStore) All() []*live.MatchContext {
	s.mu.RLock()
	out := make([]*live.MatchContext, 0, len(s.matches))
	for _, mc := range s.matches {
		out = append(out, mc)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MatchStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// CloseAll shuts down every match goroutine and empties the store.
func (s *MatchStore) CloseAll() {
	s.mu.Lock()
	all := s.matches
	s.matches = make(map[string]*live.MatchContext)
	s.mu.Unlock()

	for _, mc := range all {
		mc.Close()
	}
	telemetry.Metrics.ActiveMatches.Set(0)
}
