package site

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/content"
	"git.home.luguber.info/inful/blogpress/internal/render"
)

// StageName is a strongly-typed identifier for a build stage. All canonical
// stages are declared as constants here for compile-time safety.
type StageName string

// Canonical stage names.
const (
	StagePrepareOutput   StageName = "prepare_output"
	StageDiscoverContent StageName = "discover_content"
	StageRenderPosts     StageName = "render_posts"
	StageCopyAssets      StageName = "copy_assets"
	StageRenderIndexes   StageName = "render_indexes"
	StageVerifyOutput    StageName = "verify_output"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Helper constructors.
func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult enumerates per-stage classification outcomes. Mirrors
// metrics.ResultLabel values to simplify emission.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// BuildState carries mutable state across stages.
type BuildState struct {
	Builder   *Builder
	Inventory *content.Inventory
	Lookup    *render.Lookup
	Outputs   []render.Result    // successful render results, post order
	Assets    []render.AssetCopy // pending asset copies collected while rendering
	Report    *BuildReport
	Timings   map[StageName]time.Duration
	start     time.Time
}

func newBuildState(b *Builder, report *BuildReport) *BuildState {
	return &BuildState{
		Builder: b,
		Report:  report,
		Timings: make(map[StageName]time.Duration),
		start:   time.Now(),
	}
}
