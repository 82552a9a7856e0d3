// Package history persists one record per build or publish attempt so the
// daemon's status endpoint and the CLI can show what happened last. History
// is strictly informational: a missing or disabled store never blocks a
// publish.
package history

import (
	"context"
	"time"
)

// Trigger sources recorded with each attempt.
const (
	TriggerManual   = "manual"
	TriggerStartup  = "startup"
	TriggerFS       = "fs"
	TriggerInterval = "interval"
	TriggerNATS     = "nats"
	TriggerWebhook  = "webhook"
)

// Record is one build/publish attempt.
type Record struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Trigger     string // one of the Trigger constants
	Outcome     string // success, warning, failed or canceled
	Rendered    int
	Skipped     int
	FailedUnits int
	Published   bool
	Commit      string
	Branch      string
	ContentRev  string
	Error       string
}

// Duration returns how long the attempt took.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists publish records.
type Store interface {
	// Record appends an attempt. An empty ID is filled in.
	Record(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Close closes the store and releases resources.
	Close() error
}

// NoopStore is a Store that remembers nothing. It stands in when history is
// not configured.
type NoopStore struct{}

func (NoopStore) Record(context.Context, Record) error          { return nil }
func (NoopStore) Recent(context.Context, int) ([]Record, error) { return nil, nil }
func (NoopStore) Close() error                                  { return nil }

// Open returns a sqlite-backed store at path, or a NoopStore when path is
// empty.
func Open(path string) (Store, error) {
	if path == "" {
		return NoopStore{}, nil
	}
	return NewSQLiteStore(path)
}
