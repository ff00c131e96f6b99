// Package store handles persistence of question statistics and sessions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/finquiz/internal/model"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Backend kinds accepted by OpenKind.
const (
	KindSQLite = "sqlite"
	KindJSON   = "json"
)

// Backend is implemented by every statistics store.
type Backend interface {
	Get(id string) model.QuestionStat
	Record(id string, correct bool) error
	Totals() model.Totals
	Snapshot() (Snapshot, error)
	Import(snap Snapshot) error
	Reset() error
	InsertSession(ctx context.Context, rec model.SessionRecord) error
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error)
	Close() error
}

// OpenKind opens the backend of the given kind at path.
func OpenKind(kind, path string, logger *slog.Logger) (Backend, error) {
	switch kind {
	case "", KindSQLite:
		return Open(path, logger)
	case KindJSON:
		return OpenFile(path, logger)
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", kind, KindSQLite, KindJSON)
	}
}

// Store wraps SQLite access for question stats and session history.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// Open opens or creates the SQLite database and applies migrations. A file
// that SQLite reports as corrupt or not a database is moved aside and
// replaced by an empty one. Any other failure, such as a locked database,
// is returned and the file is left in place.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	st, err := openSQLite(path, logger)
	if err == nil {
		return st, nil
	}
	if !isCorrupt(err) {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, err
	}
	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	logger.Warn("stats database unreadable, starting empty", "path", path, "moved_to", aside, "err", err)
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, fmt.Errorf("failed to move corrupt database: %w", errors.Join(err, rerr))
	}
	return openSQLite(path, logger)
}

func isCorrupt(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return true
	}
	return false
}

func openSQLite(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	st := &Store{db: db, logger: logger}
	if err := st.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return st, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS question_stats (
			id TEXT PRIMARY KEY,
			correct INTEGER NOT NULL DEFAULT 0,
			wrong INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS totals (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			total_solved INTEGER NOT NULL,
			total_correct INTEGER NOT NULL
		);`,
		`INSERT OR IGNORE INTO totals (id, total_solved, total_correct) VALUES (1, 0, 0);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			weeks TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			attempted INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			wrong_count INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the counters for a question, zero when it was never recorded.
// Read failures are logged and reported as an empty entry.
func (s *Store) Get(id string) model.QuestionStat {
	stat := model.QuestionStat{ID: id}
	err := s.db.QueryRow(`SELECT correct, wrong FROM question_stats WHERE id = ?`, id).Scan(&stat.Correct, &stat.Wrong)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to read question stats", "id", id, "err", err)
	}
	return stat
}

// Record adds one attempt for the question and to the global totals in a
// single transaction.
func (s *Store) Record(id string, correct bool) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	correctInc, wrongInc := 0, 1
	if correct {
		correctInc, wrongInc = 1, 0
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO question_stats (id, correct, wrong) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET correct = correct + excluded.correct, wrong = wrong + excluded.wrong`,
		id, correctInc, wrongInc); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE totals SET total_solved = total_solved + 1, total_correct = total_correct + ? WHERE id = 1`,
		correctInc); err != nil {
		return err
	}
	return tx.Commit()
}

// Totals returns the global counters.
func (s *Store) Totals() model.Totals {
	var t model.Totals
	if err := s.db.QueryRow(`SELECT total_solved, total_correct FROM totals WHERE id = 1`).Scan(&t.TotalSolved, &t.TotalCorrect); err != nil {
		s.logger.Warn("failed to read totals", "err", err)
	}
	return t
}

// Snapshot exports every counter in the portable JSON shape.
func (s *Store) Snapshot() (Snapshot, error) {
	snap := emptySnapshot()
	t := s.Totals()
	snap.TotalSolved = t.TotalSolved
	snap.TotalCorrect = t.TotalCorrect

	rows, err := s.db.Query(`SELECT id, correct, wrong FROM question_stats`)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var id string
		var c Counts
		if err := rows.Scan(&id, &c.Correct, &c.Wrong); err != nil {
			return Snapshot{}, err
		}
		snap.QuestionStats[id] = c
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Import replaces all counters with the snapshot contents.
func (s *Store) Import(snap Snapshot) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM question_stats`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO question_stats (id, correct, wrong) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for id, c := range snap.QuestionStats {
		if _, err = stmt.ExecContext(ctx, id, c.Correct, c.Wrong); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE totals SET total_solved = ?, total_correct = ? WHERE id = 1`,
		snap.TotalSolved, snap.TotalCorrect); err != nil {
		return err
	}
	return tx.Commit()
}

// Reset clears all counters and session history.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stmts := []string{
		`DELETE FROM question_stats`,
		`DELETE FROM sessions`,
		`UPDATE totals SET total_solved = 0, total_correct = 0 WHERE id = 1`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, mode, weeks, started_at, ended_at, attempted, correct, wrong_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Mode),
		strings.Join(rec.Weeks, ","),
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Attempted,
		rec.Correct,
		rec.WrongCount,
	)
	return err
}

// ListSessions returns completed sessions filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, cfg.Mode)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, mode, weeks, started_at, ended_at, attempted, correct, wrong_count
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var mode, weeks, startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &mode, &weeks, &startedAt, &endedAt, &rec.Attempted, &rec.Correct, &rec.WrongCount); err != nil {
			return nil, err
		}
		rec.Mode = model.Mode(mode)
		if weeks != "" {
			rec.Weeks = strings.Split(weeks, ",")
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
