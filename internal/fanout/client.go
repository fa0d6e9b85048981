package fanout

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

const (
	minBackoff = 1 * time.Second
	maxBackoff = 30 * time.Second
)

// StateFunc receives each snapshot pushed by the server.
type StateFunc func(matchID string, s *match.MatchState)

// Client follows one match (or all of them) on a fanout server. Snapshots
// go to apply; narration and completion events are republished onto the
// local bus.
type Client struct {
	addr    string
	matchID string
	bus     *events.Bus
	apply   StateFunc
}

// NewClient dials addr, e.g. "ws://host:8766/ws".
func NewClient(addr, matchID string, bus *events.Bus, apply StateFunc) *Client {
	return &Client{
		addr:    addr,
		matchID: matchID,
		bus:     bus,
		apply:   apply,
	}
}

// ConnectWithRetry connects to the fanout server and reconnects on failure
// with exponential backoff. Blocks until ctx is cancelled.
func (c *Client) ConnectWithRetry(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		connStart := time.Now()
		err := c.connect(ctx)
		if ctx.Err() != nil {
			return
		}

		if time.Since(connStart) > time.Minute {
			attempt = 0
		}

		attempt++
		backoff := time.Duration(float64(minBackoff) * math.Pow(2, float64(min(attempt-1, 5))))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		if err != nil {
			telemetry.Warnf("fanout: connection lost (attempt %d): %v, retrying in %s", attempt, err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?match=%s", c.addr, url.QueryEscape(c.matchID))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	// ReadMessage does not watch ctx.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	telemetry.Infof("fanout: connected to %s as match=%s", c.addr, c.matchID)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		evt, err := UnmarshalEvent(msg)
		if err != nil {
			telemetry.Warnf("fanout: unmarshal error: %v", err)
			continue
		}

		if sc, ok := evt.Payload.(events.StateChangedEvent); ok {
			if c.apply != nil {
				c.apply(evt.MatchID, sc.State)
			}
			continue
		}
		c.bus.Publish(evt)
	}
}
