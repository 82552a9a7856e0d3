package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Drafts bool `help:"Include draft posts in the build"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.Drafts {
		cfg.Theme.IncludeDrafts = true
	}

	builder, err := site.NewBuilder(cfg)
	if err != nil {
		return err
	}

	report, err := builder.Build(context.Background())
	printReport(report)
	if err != nil {
		return err
	}
	return completionError(report)
}
