package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/innings"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/stats"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

// Record is the archived form of a completed match.
type Record struct {
	ArchivedAt time.Time         `json:"archivedAt"`
	Result     innings.Result    `json:"result"`
	ResultText string            `json:"resultText"`
	Scorecards []stats.Summary   `json:"scorecards"`
	State      *match.MatchState `json:"state"`
}

// Archive writes completed matches as JSON files, one per match id.
type Archive struct {
	dir string
}

func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Archive{dir: dir}, nil
}

func (a *Archive) Path(matchID string) string {
	return filepath.Join(a.dir, matchID+".json")
}

// Write replaces the match's archive file atomically.
func (a *Archive) Write(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}

	pending, err := renameio.NewPendingFile(a.Path(rec.State.ID))
	if err != nil {
		return fmt.Errorf("create pending archive file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write archive data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace archive file: %w", err)
	}
	return nil
}

func (a *Archive) Read(matchID string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(a.Path(matchID))
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode archive %s: %w", matchID, err)
	}
	return rec, nil
}

// Scorecards computes one summary per innings played.
func Scorecards(s *match.MatchState, oversAllowed int) []stats.Summary {
	out := make([]stats.Summary, 0, len(s.InningsScores))
	for _, is := range s.InningsScores {
		out = append(out, stats.ForInnings(s, is.Innings, oversAllowed))
	}
	return out
}
