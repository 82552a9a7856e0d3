package publish

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// publishExclude lists build artifacts that never reach the hosting branch.
// The build report carries timestamps, so publishing it would dirty every
// commit even when the rendered site is byte-identical.
var publishExclude = map[string]struct{}{
	"build-report.json": {},
	"build-report.txt":  {},
}

// replaceWorktree makes the checkout mirror outputDir exactly, keeping only
// the .git directory from the previous state.
func replaceWorktree(repoPath, outputDir string) error {
	entries, err := os.ReadDir(repoPath)
	if err != nil {
		return fmt.Errorf("read checkout %s: %w", repoPath, err)
	}
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(repoPath, entry.Name())); err != nil {
			return fmt.Errorf("clear checkout entry %s: %w", entry.Name(), err)
		}
	}
	return copyTree(outputDir, repoPath)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if _, skip := publishExclude[filepath.ToSlash(rel)]; skip {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

func copyFile(sourcePath, target string) error {
	// #nosec G304 -- sourcePath comes from the rendered output walk
	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("copy %s: %w", target, err)
	}
	return dst.Close()
}
