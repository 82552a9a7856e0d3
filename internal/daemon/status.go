package daemon

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/history"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// StatusSnapshot is the JSON document served by GET /status.
type StatusSnapshot struct {
	Status    Status         `json:"status"`
	StartedAt time.Time      `json:"started_at"`
	UptimeSec int64          `json:"uptime_seconds"`
	Recent    []buildSummary `json:"recent_builds,omitempty"`
}

type buildSummary struct {
	ID          string    `json:"id"`
	Trigger     string    `json:"trigger"`
	Outcome     string    `json:"outcome"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	Rendered    int       `json:"rendered"`
	FailedUnits int       `json:"failed_units"`
	Published   bool      `json:"published"`
	Commit      string    `json:"commit,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func summarize(rec history.Record) buildSummary {
	return buildSummary{
		ID:          rec.ID,
		Trigger:     rec.Trigger,
		Outcome:     rec.Outcome,
		StartedAt:   rec.StartedAt,
		DurationMS:  rec.Duration().Milliseconds(),
		Rendered:    rec.Rendered,
		FailedUnits: rec.FailedUnits,
		Published:   rec.Published,
		Commit:      rec.Commit,
		Branch:      rec.Branch,
		Error:       rec.Error,
	}
}

func (d *Daemon) snapshot(ctx context.Context) StatusSnapshot {
	snap := StatusSnapshot{
		Status:    d.Status(),
		StartedAt: d.startTime,
	}
	if !d.startTime.IsZero() {
		snap.UptimeSec = int64(time.Since(d.startTime).Seconds())
	}

	recent, err := d.hist.Recent(ctx, 10)
	if err != nil {
		slog.Warn("Failed to read history", logfields.Error(err))
	}
	for _, rec := range recent {
		snap.Recent = append(snap.Recent, summarize(rec))
	}
	// With history disabled, at least surface the in-memory last attempt.
	if len(snap.Recent) == 0 {
		if last := d.LastRecord(); last != nil {
			snap.Recent = []buildSummary{summarize(*last)}
		}
	}
	return snap
}
