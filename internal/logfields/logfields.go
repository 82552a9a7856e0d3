package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyJobID      = "job_id"
	KeyTrigger    = "trigger"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule_name"
	KeyBranch     = "branch"
	KeyPost       = "post"
	KeySection    = "section"
	KeyTag        = "tag"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyCommit     = "commit"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Post(p string) slog.Attr         { return slog.String(KeyPost, p) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Commit(c string) slog.Attr       { return slog.String(KeyCommit, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
