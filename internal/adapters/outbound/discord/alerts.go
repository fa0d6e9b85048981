package discord

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

const alertQueueSize = 32

// Alerts turns innings and match completions on the bus into webhook
// posts. Posting happens on its own goroutine so match goroutines never
// wait on Discord.
type Alerts struct {
	n     *Notifier
	names func(teamID string) string

	queue chan Embed
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func NewAlerts(n *Notifier, teamName func(teamID string) string) *Alerts {
	if teamName == nil {
		teamName = func(id string) string { return id }
	}
	a := &Alerts{
		n:     n,
		names: teamName,
		queue: make(chan Embed, alertQueueSize),
		stop:  make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Alerts) Attach(bus *events.Bus) {
	if !a.n.Enabled() {
		return
	}
	bus.Subscribe(events.EventInningsComplete, func(e events.Event) error {
		ic, ok := e.Payload.(events.InningsCompleteEvent)
		if !ok || ic.MatchOver {
			return nil
		}
		a.enqueue(InningsBreak(e.MatchID, a.names(ic.TeamID), ic.Innings, ic.Score, ic.Wickets,
			match.Overs(ic.Balls), ic.Reason))
		return nil
	})
	bus.Subscribe(events.EventMatchComplete, func(e events.Event) error {
		mc, ok := e.Payload.(events.MatchCompleteEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Payload)
		}
		scores := map[string]string{}
		if mc.State != nil {
			for id, sc := range replica.Summarize(mc.State).Scores {
				scores[a.names(id)] = sc
			}
		}
		a.enqueue(MatchResult(e.MatchID, mc.ResultText, mc.Reason, scores))
		return nil
	})
}

func (a *Alerts) enqueue(e Embed) {
	select {
	case a.queue <- e:
	default:
		telemetry.Warnf("discord: alert queue full, dropping %q", e.Title)
	}
}

func (a *Alerts) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.stop:
			return
		case e := <-a.queue:
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			if err := a.n.SendEmbed(ctx, e); err != nil {
				telemetry.Warnf("discord: %v", err)
			}
			cancel()
		}
	}
}

// Close stops the poster. Queued alerts not yet sent are dropped.
func (a *Alerts) Close() {
	a.once.Do(func() {
		close(a.stop)
		a.wg.Wait()
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
