package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/preview"
)

// ServeCmd implements the 'serve' command: a local preview server for
// writing sessions.
type ServeCmd struct {
	Addr     string        `help:"Listen address for the preview server" default:":8080"`
	Debounce time.Duration `help:"Quiet period after a change before rebuilding" default:"300ms"`
	Drafts   bool          `help:"Include draft posts in the preview"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.Drafts {
		cfg.Theme.IncludeDrafts = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Serving preview on %s (Ctrl+C to stop)\n", s.Addr)
	return preview.Run(ctx, cfg, preview.Options{Addr: s.Addr, Debounce: s.Debounce})
}
