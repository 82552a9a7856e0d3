// Package daemon runs blogpress headless. It rebuilds and republishes the
// site in response to content changes, a fixed schedule, NATS messages and
// webhook calls, funneling every trigger through one serialized build worker
// so at most one build runs at a time.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/git"
	"git.home.luguber.info/inful/blogpress/internal/history"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
	"git.home.luguber.info/inful/blogpress/internal/metrics"
	"git.home.luguber.info/inful/blogpress/internal/publish"
	"git.home.luguber.info/inful/blogpress/internal/site"
	"git.home.luguber.info/inful/blogpress/internal/watch"
	"git.home.luguber.info/inful/blogpress/internal/workspace"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// Daemon coordinates trigger sources, the build worker and the HTTP server.
type Daemon struct {
	cfg     *config.Config
	builder *site.Builder
	hist    history.Store
	hosting *workspace.Manager

	recorder metrics.Recorder
	registry *prom.Registry

	status    atomic.Value // Status
	startTime time.Time

	jobs    chan job
	workers WorkerGroup

	nats *natsBridge

	mu         sync.RWMutex
	lastRecord *history.Record
	boundAddr  string
}

// New creates a daemon from a loaded configuration.
func New(cfg *config.Config) (*Daemon, error) {
	builder, err := site.NewBuilder(cfg)
	if err != nil {
		return nil, err
	}

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	hosting := workspace.NewPersistentManager(cfg.DataDir(), "hosting")
	if cfg.Publish.URL != "" {
		if err := hosting.Create(); err != nil {
			return nil, fmt.Errorf("create publish workspace: %w", err)
		}
	}

	d := &Daemon{
		cfg:      cfg,
		builder:  builder,
		hist:     hist,
		hosting:  hosting,
		recorder: metrics.NoopRecorder{},
		jobs:     make(chan job, 1),
	}
	if cfg.Daemon.Metrics {
		d.registry = prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(d.registry)
		builder.SetRecorder(d.recorder)
	}
	d.status.Store(StatusStopped)
	return d, nil
}

// Status returns the daemon's lifecycle state.
func (d *Daemon) Status() Status {
	return d.status.Load().(Status)
}

// Run starts all trigger sources plus the HTTP server and blocks until ctx
// is canceled. An initial build runs right after startup so a fresh daemon
// serves current content without waiting for the first trigger.
func (d *Daemon) Run(ctx context.Context) error {
	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	// HTTP first so /healthz answers while the initial build runs.
	srv, err := d.startHTTPServer()
	if err != nil {
		d.status.Store(StatusStopped)
		return err
	}

	watcher, err := watch.New(d.cfg.Daemon.DebounceDuration(), d.cfg.Content.Root, d.cfg.Theme.Directory)
	if err != nil {
		d.status.Store(StatusStopped)
		return fmt.Errorf("watch content: %w", err)
	}
	d.workers.Go(func() { watcher.Run(ctx) })
	d.workers.Go(func() { d.watchLoop(ctx, watcher) })

	var sched gocron.Scheduler
	if d.cfg.Daemon.IntervalDuration() > 0 {
		sched, err = d.startScheduler()
		if err != nil {
			d.status.Store(StatusStopped)
			return err
		}
	}

	if d.cfg.Daemon.NATS.URL != "" {
		bridge, err := newNATSBridge(d.cfg.Daemon.NATS)
		if err != nil {
			d.status.Store(StatusStopped)
			return err
		}
		d.nats = bridge
		if err := bridge.subscribe(func(branch string) {
			d.Enqueue(newJob(history.TriggerNATS, branch))
		}); err != nil {
			d.status.Store(StatusStopped)
			return err
		}
	}

	d.workers.Go(func() { d.workerLoop(ctx) })

	d.status.Store(StatusRunning)
	slog.Info("Daemon running",
		slog.String("listen", d.cfg.Daemon.Listen),
		logfields.Path(d.cfg.Content.Root))

	d.Enqueue(newJob(history.TriggerStartup, ""))

	<-ctx.Done()
	d.status.Store(StatusStopping)
	slog.Info("Daemon stopping")

	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown error", logfields.Error(err))
		}
	}
	if d.nats != nil {
		d.nats.close()
	}
	_ = watcher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	if err := d.workers.StopAndWait(shutdownCtx); err != nil {
		slog.Warn("Workers did not stop in time", logfields.Error(err))
	}
	if err := d.hist.Close(); err != nil {
		slog.Warn("History store close error", logfields.Error(err))
	}

	d.status.Store(StatusStopped)
	return nil
}

func (d *Daemon) startScheduler() (gocron.Scheduler, error) {
	interval := d.cfg.Daemon.IntervalDuration()
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.Enqueue(newJob(history.TriggerInterval, "")) }),
		gocron.WithName("interval-republish"),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule interval republish: %w", err)
	}
	sched.Start()
	slog.Info("Scheduled periodic republish", slog.Duration("interval", interval))
	return sched, nil
}

func (d *Daemon) watchLoop(ctx context.Context, watcher *watch.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-watcher.C():
			d.Enqueue(newJob(history.TriggerFS, ""))
		}
	}
}

func (d *Daemon) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.jobs:
			d.process(ctx, j)
		}
	}
}

// process runs one build and, when configured, publishes the result. Every
// attempt lands in the history store regardless of outcome.
func (d *Daemon) process(ctx context.Context, j job) {
	rec := history.Record{
		ID:        j.id,
		StartedAt: time.Now(),
		Trigger:   j.trigger,
	}
	slog.Info("Build started", logfields.JobID(j.id), logfields.Trigger(j.trigger))

	report, err := d.builder.Build(ctx)
	if report != nil {
		rec.Outcome = string(report.Outcome)
		rec.Rendered = report.RenderedPages
		rec.Skipped = report.SkippedDrafts
		rec.FailedUnits = len(report.Failures)
	} else {
		rec.Outcome = string(site.OutcomeFailed)
	}

	switch {
	case err != nil:
		rec.Error = err.Error()
		slog.Error("Build failed", logfields.JobID(j.id), logfields.Error(err))
	case d.publishingEnabled():
		d.runPublish(ctx, j, report, &rec)
	}

	rec.FinishedAt = time.Now()
	if rev, err := git.ReadHead(d.cfg.Content.Root); err == nil {
		rec.ContentRev = rev
	}

	if err := d.hist.Record(ctx, rec); err != nil {
		slog.Warn("Failed to record history", logfields.JobID(j.id), logfields.Error(err))
	}
	d.setLastRecord(rec)

	slog.Info("Job finished",
		logfields.JobID(j.id),
		logfields.Outcome(rec.Outcome),
		logfields.DurationMS(float64(rec.Duration().Milliseconds())))
}

// runPublish pushes the fresh build. Unit-level warnings never block this;
// only a fatal build error does, and that is decided by the caller.
func (d *Daemon) runPublish(ctx context.Context, j job, report *site.BuildReport, rec *history.Record) {
	pub := d.publisherFor(j.branch)
	start := time.Now()
	res, err := pub.Publish(ctx, d.builder.OutputDir(), publishMessage(report))
	if err != nil {
		d.recorder.ObservePublishDuration(time.Since(start), false)
		d.recorder.IncPublishResult(false)
		rec.Outcome = string(site.OutcomeFailed)
		rec.Error = err.Error()
		slog.Error("Publish failed", logfields.JobID(j.id), logfields.Error(err))
		return
	}
	d.recorder.ObservePublishDuration(res.Duration, true)
	d.recorder.IncPublishResult(true)
	rec.Published = !res.Skipped
	rec.Commit = res.Commit
	rec.Branch = res.Branch
	if d.nats != nil {
		d.nats.notify(publishNotification{
			Branch:  res.Branch,
			Commit:  res.Commit,
			Skipped: res.Skipped,
			Outcome: rec.Outcome,
			Time:    time.Now().UTC(),
		})
	}
}

func (d *Daemon) publishingEnabled() bool {
	return d.cfg.Publish.URL != ""
}

// publisherFor builds a publisher honoring a per-trigger branch override.
// All publishers share the persistent hosting workspace, so the clone made by
// the first publish is reused for the rest of the daemon's lifetime.
func (d *Daemon) publisherFor(branch string) *publish.Publisher {
	pubCfg := d.cfg.Publish
	if branch != "" {
		pubCfg.Branch = branch
	}
	return publish.NewPublisher(pubCfg, d.hosting.GetPath())
}

func publishMessage(report *site.BuildReport) string {
	if report == nil {
		return ""
	}
	return fmt.Sprintf("Publish site: %d pages", report.RenderedPages)
}

func (d *Daemon) setLastRecord(rec history.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastRecord = &rec
}

// LastRecord returns the most recent attempt, or nil before the first one.
func (d *Daemon) LastRecord() *history.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRecord
}
