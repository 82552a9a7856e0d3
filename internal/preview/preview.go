// Package preview builds the site into a scratch directory and serves it
// over HTTP, rebuilding whenever the content tree changes. It is meant for
// writing sessions, not hosting: drafts follow the normal include flag and
// nothing is ever published from here.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
	"git.home.luguber.info/inful/blogpress/internal/site"
	"git.home.luguber.info/inful/blogpress/internal/watch"
	"git.home.luguber.info/inful/blogpress/internal/workspace"
)

// Options configures the preview server.
type Options struct {
	Addr     string        // listen address, defaults to :8080
	Debounce time.Duration // quiet period before a rebuild, defaults to 300ms
}

func (o Options) addr() string {
	if o.Addr != "" {
		return o.Addr
	}
	return config.DefaultListenAddr
}

func (o Options) debounce() time.Duration {
	if o.Debounce > 0 {
		return o.Debounce
	}
	return 300 * time.Millisecond
}

// buildStatus tracks the current build state for error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool // true once at least one successful build exists
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) get() (err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild
}

// Run builds the site into a temporary directory, serves it on the
// configured address and rebuilds on content changes until ctx is done.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	contentDir, err := resolveContentDir(cfg)
	if err != nil {
		return err
	}

	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return err
	}
	defer func() { _ = ws.Cleanup() }()

	previewCfg := *cfg
	previewCfg.Output.Directory = filepath.Join(ws.GetPath(), "site")
	previewCfg.Output.BaseDirectory = ""

	builder, err := site.NewBuilder(&previewCfg)
	if err != nil {
		return err
	}

	status := &buildStatus{}
	runBuild(ctx, builder, status)

	watcher, err := watch.New(opts.debounce(), contentDir, previewCfg.Theme.Directory)
	if err != nil {
		return fmt.Errorf("watch content: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	go watcher.Run(ctx)
	go rebuildLoop(ctx, watcher, builder, status)

	srv := &http.Server{
		Addr:              opts.addr(),
		Handler:           statusHandler(builder.OutputDir(), status),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening",
			slog.String("addr", opts.addr()),
			logfields.Path(contentDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("preview server: %w", err)
	case <-ctx.Done():
		return shutdown(srv)
	}
}

func resolveContentDir(cfg *config.Config) (string, error) {
	root := cfg.Content.Root
	if root == "" {
		root = config.DefaultContentRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve content root: %w", err)
	}
	if st, statErr := os.Stat(abs); statErr != nil || !st.IsDir() {
		return "", fmt.Errorf("content root not found or not a directory: %s", abs)
	}
	return abs, nil
}

// rebuildLoop consumes change signals one at a time. The signal channel has
// capacity one, so edits landing mid-build coalesce into a single follow-up.
func rebuildLoop(ctx context.Context, watcher *watch.Watcher, builder *site.Builder, status *buildStatus) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-watcher.C():
			slog.Info("Change detected, rebuilding site")
			runBuild(ctx, builder, status)
		}
	}
}

func runBuild(ctx context.Context, builder *site.Builder, status *buildStatus) {
	if _, err := builder.Build(ctx); err != nil {
		slog.Warn("Preview build failed", logfields.Error(err))
		status.setError(err)
		return
	}
	status.setSuccess()
}

// statusHandler serves the built site. Until a first good build exists,
// failures surface as a 503 with the build error; after that the last good
// build keeps being served while errors only show up in the log.
func statusHandler(outputDir string, status *buildStatus) http.Handler {
	files := http.FileServer(http.Dir(outputDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err, good := status.get()
		if err != nil && !good {
			http.Error(w, fmt.Sprintf("site build failed:\n\n%v", err), http.StatusServiceUnavailable)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func shutdown(srv *http.Server) error {
	slog.Info("Shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("preview server shutdown: %w", err)
	}
	return nil
}
