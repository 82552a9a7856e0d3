package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/content"
)

// NewCmd implements the 'new' command: scaffold a post file with front
// matter so a writing session starts from a valid unit.
type NewCmd struct {
	Path  string   `arg:"" help:"Post path relative to the content root, e.g. posts/my-first-post.md"`
	Title string   `help:"Post title (defaults to one derived from the file name)"`
	Tags  []string `help:"Tags for the new post"`
	Draft bool     `help:"Mark the post as a draft" default:"true"`
}

func (n *NewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rel := filepath.Clean(filepath.FromSlash(n.Path))
	if filepath.IsAbs(rel) || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("post path must stay inside the content root: %s", n.Path)
	}
	if filepath.Ext(rel) == "" {
		rel += ".md"
	}

	target := filepath.Join(cfg.Content.Root, rel)
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%s already exists", target)
	}

	scaffold, err := content.Scaffold(rel, n.Title, time.Now(), n.Tags, n.Draft)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create post directory: %w", err)
	}
	if err := os.WriteFile(target, scaffold, 0o644); err != nil {
		return fmt.Errorf("write post: %w", err)
	}

	fmt.Printf("Created %s\n", target)
	return nil
}
