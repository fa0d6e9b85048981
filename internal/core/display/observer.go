package display

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
)

const remoteDisplayThrottle = 5 * time.Second

// DisplayObserver implements live.MatchObserver. It prints a scoreboard
// on scoring events and throttles prints caused by remote snapshots.
type DisplayObserver struct {
	out     io.Writer
	tracker *Tracker
	now     func() time.Time

	mu sync.Mutex
}

func NewObserver(out io.Writer) *DisplayObserver {
	if out == nil {
		out = os.Stderr
	}
	return &DisplayObserver{out: out, tracker: NewTracker(), now: time.Now}
}

func (d *DisplayObserver) OnMatchEvent(mc *live.MatchContext, kind string) {
	st := d.tracker.Get(mc.ID)
	now := d.now()
	s := mc.State()

	if !s.IsCompleted {
		st.Finaled = false
	}

	switch kind {
	case live.NotifyRemote:
		if now.Sub(st.LastRemoteDisplay) < remoteDisplayThrottle {
			return
		}
		st.LastRemoteDisplay = now
	case live.NotifyMatchComplete:
		if st.Finaled {
			return
		}
		st.Finaled = true
	case live.NotifyChange:
		// Administrative changes print only at innings starts.
		if s.Innings == st.LastInnings {
			return
		}
	}
	st.LastInnings = s.Innings

	bd := Board{
		State:     s,
		Rules:     mc.Rules(),
		Roster:    mc.Roster(),
		EventType: kind,
		Now:       now,
		Result:    mc.Result,
	}
	if kind == live.NotifyBall || kind == live.NotifyWicket {
		bd.LastBall = mc.LastBall
	}

	// Match goroutines print concurrently; keep boards whole.
	d.mu.Lock()
	defer d.mu.Unlock()
	PrintScoreboard(d.out, bd)
}
