package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed history store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
// Parent directories are created as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS publishes (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		trigger_source TEXT NOT NULL,
		outcome TEXT NOT NULL,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed_units INTEGER NOT NULL,
		published INTEGER NOT NULL,
		commit_hash TEXT,
		branch TEXT,
		content_rev TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_publishes_started_at ON publishes(started_at);
	CREATE INDEX IF NOT EXISTS idx_publishes_outcome ON publishes(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends an attempt, assigning an id when the caller left it empty.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	published := 0
	if rec.Published {
		published = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO publishes
		 (id, started_at, finished_at, trigger_source, outcome, rendered, skipped,
		  failed_units, published, commit_hash, branch, content_rev, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(),
		rec.Trigger, rec.Outcome, rec.Rendered, rec.Skipped,
		rec.FailedUnits, published, rec.Commit, rec.Branch, rec.ContentRev, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, trigger_source, outcome, rendered, skipped,
		        failed_units, published, commit_hash, branch, content_rev, error
		 FROM publishes ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var startedMilli, finishedMilli int64
		var published int

		err := rows.Scan(&rec.ID, &startedMilli, &finishedMilli, &rec.Trigger, &rec.Outcome,
			&rec.Rendered, &rec.Skipped, &rec.FailedUnits, &published,
			&rec.Commit, &rec.Branch, &rec.ContentRev, &rec.Error)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		rec.StartedAt = time.UnixMilli(startedMilli)
		rec.FinishedAt = time.UnixMilli(finishedMilli)
		rec.Published = published != 0

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
