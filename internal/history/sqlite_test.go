package history

import (
	"path/filepath"
	"testing"
	"time"
)

func testRecord(id string, started time.Time) Record {
	return Record{
		ID:          id,
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
		Trigger:     "manual",
		Outcome:     "success",
		Rendered:    4,
		Skipped:     1,
		FailedUnits: 0,
		Published:   true,
		Commit:      "abc123",
		Branch:      "gh-pages",
	}
}

func TestStoreRecordAndRecent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.UnixMilli(1_700_000_000_000)

	if err := store.Record(ctx, testRecord("a", base)); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	if err := store.Record(ctx, testRecord("b", base.Add(time.Minute))); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("failed to query records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// Newest first.
	if records[0].ID != "b" || records[1].ID != "a" {
		t.Errorf("unexpected order: %s, %s", records[0].ID, records[1].ID)
	}

	got := records[1]
	if !got.StartedAt.Equal(base) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, base)
	}
	if got.Duration() != 3*time.Second {
		t.Errorf("duration = %v, want 3s", got.Duration())
	}
	if got.Trigger != "manual" || got.Outcome != "success" {
		t.Errorf("trigger/outcome = %s/%s", got.Trigger, got.Outcome)
	}
	if got.Rendered != 4 || got.Skipped != 1 {
		t.Errorf("rendered/skipped = %d/%d", got.Rendered, got.Skipped)
	}
	if !got.Published || got.Commit != "abc123" || got.Branch != "gh-pages" {
		t.Errorf("publish fields lost: %+v", got)
	}
}

func TestStoreAssignsID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	if err := store.Record(ctx, Record{StartedAt: time.Now(), FinishedAt: time.Now()}); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	records, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("failed to query records: %v", err)
	}
	if len(records) != 1 || records[0].ID == "" {
		t.Fatalf("expected a generated id, got %+v", records)
	}
}

func TestRecentLimit(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.UnixMilli(1_700_000_000_000)
	for i := range 5 {
		if err := store.Record(ctx, testRecord("", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("failed to query records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].StartedAt.After(records[1].StartedAt) {
		t.Errorf("records not newest first: %v, %v", records[0].StartedAt, records[1].StartedAt)
	}
}

func TestRecentEmptyStore(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(t.Context(), 10)
	if err != nil {
		t.Fatalf("failed to query records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "history.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Record(t.Context(), testRecord("persisted", time.Now())); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	records, err := reopened.Recent(t.Context(), 1)
	if err != nil {
		t.Fatalf("failed to query records: %v", err)
	}
	if len(records) != 1 || records[0].ID != "persisted" {
		t.Fatalf("expected persisted record, got %+v", records)
	}
}

func TestOpenWithoutPathIsNoop(t *testing.T) {
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\") failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Record(t.Context(), testRecord("x", time.Now())); err != nil {
		t.Fatalf("noop record failed: %v", err)
	}
	records, err := store.Recent(t.Context(), 10)
	if err != nil {
		t.Fatalf("noop recent failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("noop store returned records: %+v", records)
	}
}
