package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/verte-zerg/finquiz/internal/model"
)

// StorageKey names the serialized stats mapping.
const StorageKey = "finance_quiz_stats"

// Counts is the per-question entry of a Snapshot.
type Counts struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// Snapshot is the portable stats shape shared by the JSON store, export and
// import.
type Snapshot struct {
	QuestionStats map[string]Counts `json:"questionStats"`
	TotalSolved   int               `json:"totalSolved"`
	TotalCorrect  int               `json:"totalCorrect"`
}

func emptySnapshot() Snapshot {
	return Snapshot{QuestionStats: map[string]Counts{}}
}

// DecodeSnapshot parses a snapshot, returning an error for malformed data.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.QuestionStats == nil {
		snap.QuestionStats = map[string]Counts{}
	}
	return snap, nil
}

// EncodeSnapshot serializes a snapshot as indented JSON.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	if snap.QuestionStats == nil {
		snap.QuestionStats = map[string]Counts{}
	}
	return json.MarshalIndent(snap, "", "  ")
}

// FileStore keeps the whole stats mapping in one JSON file and rewrites it on
// every recorded attempt. It does not keep session history.
type FileStore struct {
	path   string
	mu     sync.Mutex
	data   Snapshot
	logger *slog.Logger
}

// OpenFile loads the JSON store at path. A missing or unparseable file
// yields an empty store.
func OpenFile(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	st := &FileStore{path: path, data: emptySnapshot(), logger: logger}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		snap, derr := DecodeSnapshot(raw)
		if derr != nil {
			logger.Warn("stats file unparseable, starting empty", "path", path, "err", derr)
			break
		}
		st.data = snap
	case os.IsNotExist(err):
	default:
		logger.Warn("stats file unreadable, starting empty", "path", path, "err", err)
	}
	return st, nil
}

// Get returns the counters for a question.
func (f *FileStore) Get(id string) model.QuestionStat {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.data.QuestionStats[id]
	return model.QuestionStat{ID: id, Correct: c.Correct, Wrong: c.Wrong}
}

// Record adds one attempt and writes the file before returning. When the
// write fails the in-memory counters are rolled back to match the file.
func (f *FileStore) Record(id string, correct bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, existed := f.data.QuestionStats[id]
	prevSolved, prevCorrect := f.data.TotalSolved, f.data.TotalCorrect
	c := prev
	if correct {
		c.Correct++
		f.data.TotalCorrect++
	} else {
		c.Wrong++
	}
	f.data.QuestionStats[id] = c
	f.data.TotalSolved++
	if err := f.flush(); err != nil {
		if existed {
			f.data.QuestionStats[id] = prev
		} else {
			delete(f.data.QuestionStats, id)
		}
		f.data.TotalSolved, f.data.TotalCorrect = prevSolved, prevCorrect
		return err
	}
	return nil
}

// Totals returns the global counters.
func (f *FileStore) Totals() model.Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.Totals{TotalSolved: f.data.TotalSolved, TotalCorrect: f.data.TotalCorrect}
}

// Snapshot returns a copy of the stored mapping.
func (f *FileStore) Snapshot() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := emptySnapshot()
	for id, c := range f.data.QuestionStats {
		out.QuestionStats[id] = c
	}
	out.TotalSolved = f.data.TotalSolved
	out.TotalCorrect = f.data.TotalCorrect
	return out, nil
}

// Import replaces the stored mapping.
func (f *FileStore) Import(snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.data
	f.data = emptySnapshot()
	for id, c := range snap.QuestionStats {
		f.data.QuestionStats[id] = c
	}
	f.data.TotalSolved = snap.TotalSolved
	f.data.TotalCorrect = snap.TotalCorrect
	if err := f.flush(); err != nil {
		f.data = prev
		return err
	}
	return nil
}

// Reset clears the stored mapping.
func (f *FileStore) Reset() error {
	return f.Import(emptySnapshot())
}

// InsertSession is a no-op; the JSON layout has no session history.
func (f *FileStore) InsertSession(context.Context, model.SessionRecord) error {
	return nil
}

// ListSessions always returns no sessions.
func (f *FileStore) ListSessions(context.Context, model.StatsConfig) ([]model.SessionRecord, error) {
	return nil, nil
}

// Close implements Backend.
func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) flush() error {
	data, err := EncodeSnapshot(f.data)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), StorageKey+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp stats file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync stats file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close stats file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to replace stats file: %w", err)
	}
	return nil
}
