package display

import (
	"sync"
	"time"
)

// State holds per-match display flags. Each *State is accessed exclusively
// from the match's own goroutine, so individual fields require no
// synchronization.
type State struct {
	LastInnings       int
	Finaled           bool
	LastRemoteDisplay time.Time
}

// Tracker maps match ids to their display state. The map itself is
// mutex-protected so that concurrent match goroutines can safely create
// entries, but once a *State is returned it is goroutine-local.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*State
}

func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[string]*State),
	}
}

// Get returns the display state for a match, creating one if it
// does not yet exist.
func (t *Tracker) Get(id string) *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[id]
	if !ok {
		s = &State{}
		t.states[id] = s
	}
	return s
}
