package site

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// beginStaging creates an isolated staging directory for atomic build output.
// The staging dir is a sibling of the final output: <output>_stage.
func (b *Builder) beginStaging() error {
	stage := b.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("%w: clear stale staging: %w", ErrStaging, err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrStaging, err)
	}
	b.stageDir = stage
	slog.Debug("Initialized staging directory", "staging", stage, "final", b.outputDir)
	return nil
}

// finalizeStaging atomically promotes the staging directory to the final
// output location:
//  1. Move existing output (if any) to <output>.prev.
//  2. Rename staging -> output.
//  3. Remove the backup asynchronously, best effort.
func (b *Builder) finalizeStaging() error {
	if b.stageDir == "" {
		return fmt.Errorf("%w: no staging directory initialized", ErrStaging)
	}
	if _, err := os.Stat(b.stageDir); err != nil {
		return fmt.Errorf("%w: staging directory missing: %w", ErrStaging, err)
	}

	prev := b.outputDir + ".prev"
	if _, err := os.Stat(prev); err == nil {
		// The previous backup may be briefly locked by a serving process.
		for i := 0; i < 3; i++ {
			if err := os.RemoveAll(prev); err == nil {
				break
			}
			if i < 2 {
				time.Sleep(100 * time.Millisecond)
			}
		}
	}
	if _, err := os.Stat(b.outputDir); err == nil {
		if err := os.Rename(b.outputDir, prev); err != nil {
			return fmt.Errorf("%w: backup existing output: %w", ErrStaging, err)
		}
	}
	if err := os.Rename(b.stageDir, b.outputDir); err != nil {
		return fmt.Errorf("%w: promote staging: %w", ErrStaging, err)
	}
	b.stageDir = ""
	go func(p string) {
		if err := os.RemoveAll(p); err != nil {
			slog.Warn("Failed to remove previous backup", "path", p, "error", err)
		}
	}(prev)
	slog.Info("Promoted staging directory", "output", b.outputDir)
	return nil
}

// abortStaging removes the staging directory after a failed build so no
// orphaned temp dirs accumulate. The existing output stays untouched.
func (b *Builder) abortStaging() {
	if b.stageDir == "" {
		return
	}
	dir := b.stageDir
	b.stageDir = "" // prevent double cleanup
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", "staging", dir, "error", err)
	} else {
		slog.Debug("Removed staging directory after abort", "staging", dir)
	}
}

// writeStaged writes a file under the staging directory, creating parents.
func (b *Builder) writeStaged(relPath string, data []byte) error {
	target := filepath.Join(b.stageDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// copyStaged streams a source file into the staging directory.
func (b *Builder) copyStaged(sourcePath, relPath string) error {
	target := filepath.Join(b.stageDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	// #nosec G304 -- sourcePath comes from the scanned content tree
	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", relPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("copy %s: %w", relPath, err)
	}
	return dst.Close()
}
