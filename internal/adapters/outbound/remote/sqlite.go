package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"

	_ "modernc.org/sqlite"
)

const defaultPollInterval = time.Second

// SQLiteStore keeps saved states in a local or shared sqlite file.
// Subscriptions poll a per-row revision that every write bumps, so several
// processes pointed at the same file see each other's writes even when two
// of them carry the same match version.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	poll time.Duration
	log  zerolog.Logger

	wg      sync.WaitGroup
	closing chan struct{}
	once    sync.Once
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id          TEXT    PRIMARY KEY,
			saved_state TEXT    NOT NULL,
			version     INTEGER NOT NULL,
			revision    INTEGER NOT NULL DEFAULT 0,
			status      TEXT,
			scores      TEXT,
			updated_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema (%s): %w", stmt, err)
		}
	}

	if err := addRevisionColumn(db); err != nil {
		db.Close()
		return nil, err
	}

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read row count: %w", err)
	}

	telemetry.Infof("Started match store db  path=%s  rows=%d", path, count)

	return &SQLiteStore{
		db:      db,
		poll:    defaultPollInterval,
		log:     telemetry.WithComponent("sqlite-store"),
		closing: make(chan struct{}),
	}, nil
}

// addRevisionColumn upgrades files created before the revision column existed.
func addRevisionColumn(db *sql.DB) error {
	rows, err := db.Query(`SELECT revision FROM matches LIMIT 0`)
	if err == nil {
		return rows.Close()
	}
	if _, err := db.Exec(`ALTER TABLE matches ADD COLUMN revision INTEGER NOT NULL DEFAULT 0`); err != nil {
		return fmt.Errorf("add revision column: %w", err)
	}
	return nil
}

// SetPollInterval changes how often subscriptions check for new writes.
func (s *SQLiteStore) SetPollInterval(d time.Duration) { s.poll = d }

func (s *SQLiteStore) Persist(ctx context.Context, st *match.MatchState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matches (id, saved_state, version, revision, updated_at) VALUES (?,?,?,1,?)
		 ON CONFLICT(id) DO UPDATE SET
			saved_state = excluded.saved_state,
			version     = excluded.version,
			revision    = matches.revision + 1,
			updated_at  = excluded.updated_at`,
		st.ID, string(data), st.Version, st.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) PersistSummary(ctx context.Context, sum replica.Summary) error {
	scores, err := json.Marshal(sum.Scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE matches SET status = ?, scores = ? WHERE id = ?`,
		string(sum.Status), string(scores), sum.MatchID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("summary for %s: %w", sum.MatchID, replica.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*match.MatchState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT saved_state FROM matches WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", id, replica.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	var st match.MatchState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &st, nil
}

// LoadSummary reads the summary row of one match.
func (s *SQLiteStore) LoadSummary(ctx context.Context, id string) (replica.Summary, error) {
	var (
		status, scores sql.NullString
		updated        int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, scores, updated_at FROM matches WHERE id = ?`, id,
	).Scan(&status, &scores, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return replica.Summary{}, fmt.Errorf("summary %s: %w", id, replica.ErrNotFound)
	}
	if err != nil {
		return replica.Summary{}, err
	}
	sum := replica.Summary{MatchID: id, Status: replica.Status(status.String), Scores: map[string]string{}, UpdatedAt: updated}
	if scores.Valid && scores.String != "" {
		if err := json.Unmarshal([]byte(scores.String), &sum.Scores); err != nil {
			return replica.Summary{}, fmt.Errorf("decode scores: %w", err)
		}
	}
	return sum, nil
}

func (s *SQLiteStore) revision(ctx context.Context, id string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM matches WHERE id = ?`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	return v, err
}

// Subscribe polls for new writes. The state current at subscribe time is
// not delivered.
func (s *SQLiteStore) Subscribe(ctx context.Context, id string, fn func(*match.MatchState)) (func(), error) {
	last, err := s.revision(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", id, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.closing:
				return
			case <-ticker.C:
			}
			v, err := s.revision(ctx, id)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn().Err(err).Str("match", id).Msg("poll failed")
				}
				continue
			}
			if v == last {
				continue
			}
			st, err := s.Load(ctx, id)
			if err != nil {
				continue
			}
			last = v
			fn(st)
		}
	}()
	return cancel, nil
}

// Close ends all subscriptions and closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.once.Do(func() { close(s.closing) })
	s.wg.Wait()
	return s.db.Close()
}
