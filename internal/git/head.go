package git

import (
	"os"
	"path/filepath"
	"strings"
)

// ReadHead returns the commit hash HEAD points at for a local checkout.
// One level of symbolic reference is resolved, which covers ordinary branch
// checkouts. Callers use this to stamp builds with the content revision when
// the content root happens to be a git repository; an error simply means it
// is not one.
func ReadHead(repoPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, ".git", "HEAD"))
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))

	ref, ok := strings.CutPrefix(line, "ref:")
	if !ok {
		// Detached HEAD holds the hash directly.
		return line, nil
	}

	refPath := filepath.Join(repoPath, ".git", filepath.FromSlash(strings.TrimSpace(ref)))
	refData, err := os.ReadFile(refPath)
	if err != nil {
		// Unborn branch or packed refs; nothing sensible to report.
		return "", err
	}
	return strings.TrimSpace(string(refData)), nil
}
