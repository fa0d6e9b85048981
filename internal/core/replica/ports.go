package replica

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

var ErrNotFound = errors.New("match not found")

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusLive      Status = "Live"
	StatusCompleted Status = "Completed"
)

// Summary is the lightweight row kept next to the saved state for list
// views that do not need the full history.
type Summary struct {
	MatchID string `json:"matchId"`
	Status  Status `json:"status"`
	// Scores maps team id to its innings, e.g. "245/10 & 120/3d".
	Scores    map[string]string `json:"scores"`
	UpdatedAt int64             `json:"updatedAt"`
}

// Summarize projects a state onto its summary row.
func Summarize(s *match.MatchState) Summary {
	sum := Summary{
		MatchID:   s.ID,
		Status:    StatusLive,
		Scores:    map[string]string{},
		UpdatedAt: s.UpdatedAt,
	}
	switch {
	case s.IsCompleted:
		sum.Status = StatusCompleted
	case len(s.History) == 0 && s.Innings == 1:
		sum.Status = StatusScheduled
	}

	parts := map[string][]string{}
	var order []string
	for _, is := range s.InningsScores {
		if !is.IsComplete && len(s.InningsEvents(is.Innings)) == 0 {
			continue
		}
		if _, seen := parts[is.TeamID]; !seen {
			order = append(order, is.TeamID)
		}
		txt := fmt.Sprintf("%d/%d", is.Score, is.Wickets)
		if is.Declared {
			txt += "d"
		}
		parts[is.TeamID] = append(parts[is.TeamID], txt)
	}
	for _, team := range order {
		sum.Scores[team] = strings.Join(parts[team], " & ")
	}
	return sum
}

// Store is the remote store that persists saved states and pushes other
// clients' writes back.
type Store interface {
	Persist(ctx context.Context, s *match.MatchState) error
	PersistSummary(ctx context.Context, sum Summary) error
	// Load returns ErrNotFound when no state has been saved for id.
	Load(ctx context.Context, id string) (*match.MatchState, error)
	// Subscribe delivers snapshots written to id until cancel is called or
	// ctx is done. Delivery happens on a goroutine owned by the store.
	Subscribe(ctx context.Context, id string, fn func(*match.MatchState)) (cancel func(), err error)
	Close() error
}
