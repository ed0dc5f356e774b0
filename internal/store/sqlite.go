// Package store keeps the latest interview result on disk until the candidate
// has looked at it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/suhbatai/suhbat/internal/model"
)

// ErrNotFound is returned by Load when no result is stored.
var ErrNotFound = errors.New("no interview results found")

// snapshotSlot is the primary key of the single stored result.
const snapshotSlot = 1

// Snapshot is a finished interview awaiting display.
type Snapshot struct {
	Profession string            `json:"profession"`
	Evaluation *model.Evaluation `json:"evaluation"`
	SavedAt    time.Time         `json:"-"`
}

// SQLiteStore holds at most one Snapshot in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultPath is results.db under the user cache directory.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "suhbat", "results.db")
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// results table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS interview_results (
		slot       INTEGER PRIMARY KEY CHECK (slot = 1),
		profession TEXT NOT NULL,
		evaluation TEXT NOT NULL,
		saved_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating interview_results table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save replaces the stored result with snap.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.Evaluation == nil {
		return errors.New("snapshot has no evaluation")
	}

	data, err := json.Marshal(snap.Evaluation)
	if err != nil {
		return fmt.Errorf("encoding evaluation: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interview_results (slot, profession, evaluation, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			profession = excluded.profession,
			evaluation = excluded.evaluation,
			saved_at   = excluded.saved_at`,
		snapshotSlot, snap.Profession, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving results for %s: %w", snap.Profession, err)
	}
	return nil
}

// Load returns the stored result or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	var (
		snap Snapshot
		data string
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT profession, evaluation, saved_at FROM interview_results WHERE slot = ?", snapshotSlot,
	).Scan(&snap.Profession, &data, &snap.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading results: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &snap.Evaluation); err != nil {
		return nil, fmt.Errorf("decoding stored evaluation: %w", err)
	}

	return &snap, nil
}

// Clear removes the stored result. Clearing an empty store is a no-op.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM interview_results"); err != nil {
		return fmt.Errorf("clearing results: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
