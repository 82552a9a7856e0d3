// Package watch turns noisy filesystem events into debounced rebuild
// signals. Editors fire bursts of writes, renames and swap-file churn for a
// single save; consumers only want to hear "the content settled, rebuild".
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// Watcher watches directory trees recursively and emits one signal on C
// after changes have been quiet for the debounce interval.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	c        chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher over the given roots. Roots that do not exist are
// skipped, so an optional theme directory can be passed unconditionally.
// Directories created later under a watched root are picked up on the fly.
func New(debounce time.Duration, roots ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fsw,
		debounce: debounce,
		c:        make(chan struct{}, 1),
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if st, err := os.Stat(root); err != nil || !st.IsDir() {
			continue
		}
		if err := addDirsRecursive(fsw, root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// C delivers debounced change signals. The channel has capacity one; a
// signal that arrives while a previous one is unconsumed is coalesced.
func (w *Watcher) C() <-chan struct{} {
	return w.c
}

// Run processes filesystem events until ctx is done or the watcher closes.
func (w *Watcher) Run(ctx context.Context) {
	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close shuts the underlying fsnotify watcher down.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fs.Close()
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ShouldIgnore(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fs, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.c <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if err := fsw.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// ShouldIgnore returns true for filesystem events that should not trigger
// rebuilds: hidden files, editor swap and temp files, OS noise.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
