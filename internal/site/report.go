package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/blogpress/internal/metrics"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// UnitFailure records one content unit that was skipped during the build.
// The rest of the site is built and published without it.
type UnitFailure struct {
	Path   string `json:"path"`
	Stage  string `json:"stage"` // discover_content | render_posts
	Reason string `json:"reason"`
}

// StageCount aggregates per-stage outcome counts.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// BuildReport captures metrics and diagnostics for one site build.
type BuildReport struct {
	SchemaVersion   int
	Posts           int // posts discovered (drafts included)
	RenderedPages   int
	SkippedDrafts   int
	CopiedAssets    int
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing build abortion
	Warnings        []error // non-fatal issues; build continued
	Failures        []UnitFailure
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Outcome         BuildOutcome
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
	}
}

func (r *BuildReport) finish() { r.End = time.Now() }

// AddUnitFailure records a skipped content unit.
func (r *BuildReport) AddUnitFailure(path string, stage StageName, reason string) {
	r.Failures = append(r.Failures, UnitFailure{Path: path, Stage: string(stage), Reason: reason})
}

// recordStageResult updates stage counters and emits metrics.
func (r *BuildReport) recordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	sc := r.StageCounts[stage]
	switch res {
	case StageResultSuccess:
		sc.Success++
	case StageResultWarning:
		sc.Warning++
	case StageResultFatal:
		sc.Fatal++
	case StageResultCanceled:
		sc.Canceled++
	}
	r.StageCounts[stage] = sc
	if recorder != nil {
		recorder.IncStageResult(string(stage), metrics.ResultLabel(res))
	}
}

// deriveOutcome sets Outcome from recorded errors and warnings.
func (r *BuildReport) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// HasWarnings reports whether any unit was skipped or any stage warned.
func (r *BuildReport) HasWarnings() bool {
	return len(r.Warnings) > 0 || len(r.Failures) > 0
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("posts=%d rendered=%d skipped_drafts=%d failed_units=%d assets=%d duration=%s warnings=%d outcome=%s",
		r.Posts, r.RenderedPages, r.SkippedDrafts, len(r.Failures), r.CopiedAssets,
		dur.Truncate(time.Millisecond), len(r.Warnings), r.Outcome)
}

// Persist writes the report into the given directory:
//
//	build-report.json  (machine readable)
//	build-report.txt   (human summary)
//
// Best effort; errors are returned for caller logging but do not change the
// build outcome. The publisher excludes these files from the hosting branch
// so identical content keeps producing an identical published tree.
func (r *BuildReport) Persist(dir string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(dir, "build-report.json"), bytes.NewReader(jb)); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(dir, "build-report.txt"), bytes.NewReader([]byte(r.Summary()+"\n"))); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}

// buildReportSerializable mirrors BuildReport with string errors for JSON output.
type buildReportSerializable struct {
	SchemaVersion   int                      `json:"schema_version"`
	Posts           int                      `json:"posts"`
	RenderedPages   int                      `json:"rendered_pages"`
	SkippedDrafts   int                      `json:"skipped_drafts"`
	CopiedAssets    int                      `json:"copied_assets"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
	Errors          []string                 `json:"errors"`
	Warnings        []string                 `json:"warnings"`
	Failures        []UnitFailure            `json:"failures"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds"`
	StageCounts     map[string]StageCount    `json:"stage_counts"`
	Outcome         string                   `json:"outcome"`
}

func (r *BuildReport) serializable() *buildReportSerializable {
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	sc := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		sc[string(k)] = v
	}
	s := &buildReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		Posts:           r.Posts,
		RenderedPages:   r.RenderedPages,
		SkippedDrafts:   r.SkippedDrafts,
		CopiedAssets:    r.CopiedAssets,
		Start:           r.Start,
		End:             r.End,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		Failures:        r.Failures,
		StageDurations:  r.StageDurations,
		StageErrorKinds: sek,
		StageCounts:     sc,
		Outcome:         string(r.Outcome),
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	if s.Failures == nil {
		s.Failures = []UnitFailure{}
	}
	return s
}
