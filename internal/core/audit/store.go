package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"

	_ "modernc.org/sqlite"
)

// Row holds all columns for a single audited match event.
type Row struct {
	Ts          time.Time
	MatchID     string
	Format      string
	EventType   string // "WICKET", "INNINGS COMPLETE", "MATCH COMPLETE"
	Innings     int
	BattingTeam string
	BowlingTeam string
	Score       int
	Wickets     int
	Overs       string
	Detail      string
	ScorerID    string
}

// Store persists audited events in a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS match_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			ts           TEXT    NOT NULL,
			match_id     TEXT    NOT NULL,
			format       TEXT,
			event_type   TEXT    NOT NULL,
			innings      INTEGER NOT NULL,
			batting_team TEXT,
			bowling_team TEXT,
			score        INTEGER NOT NULL,
			wickets      INTEGER NOT NULL,
			overs        TEXT,
			detail       TEXT,
			scorer_id    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_me_match_id ON match_events(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_me_ts ON match_events(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_me_event_type ON match_events(event_type)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema (%s): %w", stmt, err)
		}
	}

	var count int64
	row := db.QueryRow(`SELECT COUNT(*) FROM match_events`)
	if err := row.Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read row count: %w", err)
	}

	telemetry.Infof("Started Audit db  path=%s  rows=%d", path, count)

	return &Store{db: db}, nil
}

func (s *Store) Insert(row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO match_events (
			ts, match_id, format, event_type, innings,
			batting_team, bowling_team, score, wickets, overs,
			detail, scorer_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.Ts.UTC().Format(time.RFC3339Nano),
		row.MatchID, row.Format, row.EventType, row.Innings,
		row.BattingTeam, row.BowlingTeam, row.Score, row.Wickets, row.Overs,
		row.Detail, row.ScorerID,
	)
	return err
}

// Filter narrows Query. Zero fields match everything.
type Filter struct {
	MatchID   string
	EventType string
	Limit     int
}

// Query returns matching rows, newest first.
func (s *Store) Query(f Filter) ([]Row, error) {
	q := `SELECT ts, match_id, format, event_type, innings, batting_team, bowling_team,
		score, wickets, overs, detail, scorer_id FROM match_events WHERE 1=1`
	var args []any
	if f.MatchID != "" {
		q += ` AND match_id = ?`
		args = append(args, f.MatchID)
	}
	if f.EventType != "" {
		q += ` AND event_type = ?`
		args = append(args, f.EventType)
	}
	q += ` ORDER BY id DESC`
	if f.Limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var ts string
		var format, bat, bowl, overs, detail, scorer sql.NullString
		if err := rows.Scan(&ts, &r.MatchID, &format, &r.EventType, &r.Innings, &bat, &bowl,
			&r.Score, &r.Wickets, &overs, &detail, &scorer); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		r.Ts, _ = time.Parse(time.RFC3339Nano, ts)
		r.Format, r.BattingTeam, r.BowlingTeam = format.String, bat.String, bowl.String
		r.Overs, r.Detail, r.ScorerID = overs.String, detail.String, scorer.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
