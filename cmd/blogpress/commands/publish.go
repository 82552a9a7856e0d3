package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/git"
	"git.home.luguber.info/inful/blogpress/internal/history"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
	"git.home.luguber.info/inful/blogpress/internal/publish"
	"git.home.luguber.info/inful/blogpress/internal/site"
	"git.home.luguber.info/inful/blogpress/internal/workspace"
)

// PublishCmd implements the 'publish' command: build, then replace the
// hosting branch contents with the rendered tree and push.
type PublishCmd struct {
	Drafts  bool   `help:"Include draft posts in the build"`
	Branch  string `short:"b" help:"Override the hosting branch for this run"`
	Message string `short:"m" help:"Commit message for the hosting branch"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if p.Drafts {
		cfg.Theme.IncludeDrafts = true
	}
	if p.Branch != "" {
		cfg.Publish.Branch = p.Branch
	}

	ws := workspace.NewPersistentManager(cfg.DataDir(), "hosting")
	pub := publish.NewPublisher(cfg.Publish, ws.GetPath())
	if !pub.Configured() {
		return fmt.Errorf("%w: set publish.url in %s", publish.ErrNotConfigured, root.Config)
	}
	if err := ws.Create(); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	builder, err := site.NewBuilder(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rec := history.Record{
		StartedAt: time.Now(),
		Trigger:   history.TriggerManual,
	}

	report, buildErr := builder.Build(ctx)
	printReport(report)
	if report != nil {
		rec.Outcome = string(report.Outcome)
		rec.Rendered = report.RenderedPages
		rec.Skipped = report.SkippedDrafts
		rec.FailedUnits = len(report.Failures)
	} else {
		rec.Outcome = string(site.OutcomeFailed)
	}
	if buildErr != nil {
		rec.Error = buildErr.Error()
		saveHistory(cfg, finishRecord(cfg, rec))
		return buildErr
	}

	message := p.Message
	if message == "" {
		message = fmt.Sprintf("Publish site: %d pages", report.RenderedPages)
	}
	res, err := pub.Publish(ctx, builder.OutputDir(), message)
	if err != nil {
		rec.Outcome = string(site.OutcomeFailed)
		rec.Error = err.Error()
		saveHistory(cfg, finishRecord(cfg, rec))
		return fmt.Errorf("publish: %w", err)
	}

	rec.Published = !res.Skipped
	rec.Commit = res.Commit
	rec.Branch = res.Branch
	saveHistory(cfg, finishRecord(cfg, rec))

	if res.Skipped {
		fmt.Printf("Hosting branch %s already up to date\n", res.Branch)
	} else {
		fmt.Printf("Published %s to branch %s (commit %s)\n",
			builder.OutputDir(), res.Branch, res.Commit)
	}
	return completionError(report)
}

// finishRecord stamps the end time and, when the content root is itself a git
// checkout, the content revision that was published.
func finishRecord(cfg *config.Config, rec history.Record) history.Record {
	rec.FinishedAt = time.Now()
	if rev, err := git.ReadHead(cfg.Content.Root); err == nil {
		rec.ContentRev = rev
	}
	return rec
}

// saveHistory appends one attempt to the configured history store. History is
// informational, so failures only log.
func saveHistory(cfg *config.Config, rec history.Record) {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("Failed to open history store", logfields.Error(err))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}()
	if err := store.Record(context.Background(), rec); err != nil {
		slog.Warn("Failed to record publish history", logfields.Error(err))
	}
}
