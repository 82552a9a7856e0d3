package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/content"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
	"git.home.luguber.info/inful/blogpress/internal/metrics"
	"git.home.luguber.info/inful/blogpress/internal/render"
	"git.home.luguber.info/inful/blogpress/internal/theme"
)

// Builder drives a full site build: scan content, render posts and indexes
// into an isolated staging directory, then atomically promote it to the
// output directory.
type Builder struct {
	cfg           *config.Config
	store         *content.Store
	engine        *render.Engine
	outputDir     string // final output dir
	stageDir      string // ephemeral staging dir for current build
	recorder      metrics.Recorder
	includeDrafts bool
}

// NewBuilder creates a builder for the given configuration. Loading the
// theme happens here so template problems abort before any output is touched.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	th, err := theme.Load(cfg.Theme.Directory)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}
	engine := render.NewEngine(render.Options{
		Theme: th,
		Site: theme.Site{
			Title:       cfg.Site.Title,
			Description: cfg.Site.Description,
			BaseURL:     cfg.Site.BaseURL,
			Author:      cfg.Site.Author,
			Language:    cfg.Site.Language,
		},
		IncludeDrafts: cfg.Theme.IncludeDrafts,
	})
	return &Builder{
		cfg:           cfg,
		store:         content.NewStore(cfg.Content.Root),
		engine:        engine,
		outputDir:     filepath.Clean(cfg.OutputPath()),
		recorder:      metrics.NoopRecorder{},
		includeDrafts: cfg.Theme.IncludeDrafts,
	}, nil
}

// SetRecorder injects a metrics recorder. Returns the builder for chaining.
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		b.recorder = metrics.NoopRecorder{}
		return b
	}
	b.recorder = r
	return b
}

// OutputDir returns the final output directory.
func (b *Builder) OutputDir() string { return b.outputDir }

// Build runs the full pipeline and returns the report. The returned error is
// non-nil only when the build aborted (fatal stage error or cancellation);
// per-unit failures are reported through the report's warnings and failures.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	slog.Info("Starting site build",
		slog.String("content", b.store.Root()),
		slog.String("output", b.outputDir))

	report := newBuildReport()
	if err := b.beginStaging(); err != nil {
		report.Errors = append(report.Errors, err)
		report.deriveOutcome()
		report.finish()
		return report, err
	}
	bs := newBuildState(b, report)

	stages := []StageDef{
		{StagePrepareOutput, stagePrepareOutput},
		{StageDiscoverContent, stageDiscoverContent},
		{StageRenderPosts, stageRenderPosts},
		{StageCopyAssets, stageCopyAssets},
		{StageRenderIndexes, stageRenderIndexes},
		{StageVerifyOutput, stageVerifyOutput},
	}

	if err := runStages(ctx, bs, stages); err != nil {
		report.deriveOutcome()
		report.finish()
		b.abortStaging()
		b.recordBuildMetrics(report)
		return report, err
	}

	report.deriveOutcome()
	report.finish()
	if err := b.finalizeStaging(); err != nil {
		report.Errors = append(report.Errors, err)
		report.Outcome = OutcomeFailed
		b.abortStaging()
		b.recordBuildMetrics(report)
		return report, err
	}

	// Best effort; a report write failure never changes the build outcome.
	if err := report.Persist(b.outputDir); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}
	b.recordBuildMetrics(report)

	slog.Info("Site build completed",
		slog.Int("posts", report.Posts),
		slog.Int("rendered", report.RenderedPages),
		slog.Int("skipped_drafts", report.SkippedDrafts),
		slog.Int("failed_units", len(report.Failures)),
		logfields.Outcome(string(report.Outcome)))
	return report, nil
}

func (b *Builder) recordBuildMetrics(report *BuildReport) {
	if b.recorder == nil {
		return
	}
	b.recorder.ObserveBuildDuration(report.End.Sub(report.Start))
	b.recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(report.Outcome))
	b.recorder.SetPostsRendered(report.RenderedPages)
	b.recorder.SetPostsSkipped(report.SkippedDrafts + len(report.Failures))
}

// stagePrepareOutput lays down the fixed entries of the output tree. The
// .nojekyll marker keeps gh-pages style hosts from reprocessing the files.
func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	b := bs.Builder
	if err := b.writeStaged(".nojekyll", nil); err != nil {
		return newFatalStageError(StagePrepareOutput, fmt.Errorf("%w: %w", ErrStaging, err))
	}
	if err := b.copyThemeStatic(); err != nil {
		return newFatalStageError(StagePrepareOutput, err)
	}
	return nil
}

// copyThemeStatic mirrors the theme's static/ directory into the staging
// root so override themes can ship stylesheets, fonts and favicons. The
// embedded default theme carries none.
func (b *Builder) copyThemeStatic() error {
	if b.cfg.Theme.Directory == "" {
		return nil
	}
	staticDir := filepath.Join(b.cfg.Theme.Directory, "static")
	if st, err := os.Stat(staticDir); err != nil || !st.IsDir() {
		return nil
	}
	count := 0
	err := filepath.WalkDir(staticDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(staticDir, p)
		if err != nil {
			return err
		}
		if err := b.copyStaged(p, filepath.ToSlash(rel)); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("copy theme static files: %w", err)
	}
	if count > 0 {
		slog.Debug("Copied theme static files", slog.Int("count", count), logfields.Path(staticDir))
	}
	return nil
}

// stageDiscoverContent scans the content root. A missing or unwalkable root
// is fatal; malformed units are recorded and skipped.
func stageDiscoverContent(_ context.Context, bs *BuildState) error {
	inv, err := bs.Builder.store.Scan()
	if err != nil {
		return newFatalStageError(StageDiscoverContent, fmt.Errorf("%w: %w", ErrDiscovery, err))
	}
	bs.Inventory = inv
	bs.Lookup = render.NewLookup(inv, bs.Builder.includeDrafts)
	bs.Report.Posts = len(inv.Posts)

	for _, failure := range inv.Failures {
		bs.Report.AddUnitFailure(failure.Path, StageDiscoverContent, failure.Reason)
	}
	if len(inv.Failures) > 0 {
		return newWarnStageError(StageDiscoverContent,
			fmt.Errorf("%w: %d of %d units", ErrUnitsSkipped, len(inv.Failures), len(inv.Posts)+len(inv.Failures)))
	}
	return nil
}

// stageRenderPosts renders every post into the staging tree. Unit failures
// are recorded and skipped; the stage warns instead of aborting so the valid
// subset still publishes.
func stageRenderPosts(ctx context.Context, bs *BuildState) error {
	b := bs.Builder
	failed := 0
	for _, post := range bs.Inventory.Posts {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageRenderPosts, ctx.Err())
		default:
		}

		result := b.engine.RenderPost(post, bs.Lookup)
		switch {
		case result.Skipped:
			bs.Report.SkippedDrafts++
		case result.Err != nil:
			failed++
			bs.Report.AddUnitFailure(post.Path, StageRenderPosts, result.Err.Error())
			slog.Warn("Skipping post after render failure",
				logfields.Post(post.Path), logfields.Error(result.Err))
		default:
			rel := path.Join(filepath.ToSlash(result.Output.Dir), "index.html")
			if err := b.writeStaged(rel, result.Output.HTML); err != nil {
				return newFatalStageError(StageRenderPosts, err)
			}
			bs.Outputs = append(bs.Outputs, result)
			bs.Assets = append(bs.Assets, result.Output.Assets...)
			bs.Report.RenderedPages++
		}
	}
	if failed > 0 {
		return newWarnStageError(StageRenderPosts,
			fmt.Errorf("%w: %d of %d posts failed to render", ErrUnitsSkipped, failed, len(bs.Inventory.Posts)))
	}
	return nil
}

// stageCopyAssets copies referenced assets into the staging tree. Copies are
// deduplicated by target; two different sources claiming the same target is
// reported as a warning and the first copy wins.
func stageCopyAssets(ctx context.Context, bs *BuildState) error {
	b := bs.Builder
	copied := make(map[string]string, len(bs.Assets)) // target -> source
	conflicts := 0
	for _, asset := range bs.Assets {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageCopyAssets, ctx.Err())
		default:
		}

		if source, done := copied[asset.TargetPath]; done {
			if source != asset.SourcePath {
				conflicts++
				slog.Warn("Conflicting asset copy target",
					logfields.Path(asset.TargetPath),
					slog.String("kept", source),
					slog.String("dropped", asset.SourcePath))
			}
			continue
		}
		if err := b.copyStaged(asset.SourcePath, asset.TargetPath); err != nil {
			return newFatalStageError(StageCopyAssets, err)
		}
		copied[asset.TargetPath] = asset.SourcePath
		bs.Report.CopiedAssets++
	}
	if conflicts > 0 {
		return newWarnStageError(StageCopyAssets,
			fmt.Errorf("%w: %d conflicting targets", ErrAssetConflict, conflicts))
	}
	return nil
}
