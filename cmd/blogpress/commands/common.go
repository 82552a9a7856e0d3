package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	bperrors "git.home.luguber.info/inful/blogpress/internal/errors"
	"git.home.luguber.info/inful/blogpress/internal/site"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"blogpress.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site into the output directory"`
	Publish PublishCmd `cmd:"" help:"Build the site and push it to the hosting branch"`
	Serve   ServeCmd   `cmd:"" help:"Serve a local preview, rebuilding on content changes"`
	Daemon  DaemonCmd  `cmd:"" help:"Run headless: watch, rebuild and republish continuously"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	New     NewCmd     `cmd:"" help:"Scaffold a new post file under the content root"`
}

// AfterApply runs after flag parsing; set up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// printReport writes the build summary to stdout. The skipped-unit list is
// part of the CLI contract and prints regardless of outcome.
func printReport(report *site.BuildReport) {
	if report == nil {
		return
	}
	fmt.Println(report.Summary())
	for _, f := range report.Failures {
		fmt.Printf("skipped: %s (%s): %s\n", f.Path, f.Stage, f.Reason)
	}
}

// completionError maps a finished build onto the exit contract: a clean run
// returns nil, per-unit failures return the warnings sentinel so main exits
// with the dedicated status code.
func completionError(report *site.BuildReport) error {
	if report == nil || !report.HasWarnings() {
		return nil
	}
	return fmt.Errorf("%w: failed_units=%d warnings=%d",
		bperrors.ErrCompletedWithWarnings, len(report.Failures), len(report.Warnings))
}
