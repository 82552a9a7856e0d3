package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogpress/cmd/blogpress/commands"
	bperrors "git.home.luguber.info/inful/blogpress/internal/errors"
	"git.home.luguber.info/inful/blogpress/internal/version"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("blogpress"),
		kong.Description("Markdown blog builder that publishes to a git hosting branch."),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("blogpress %s (commit %s, built %s)",
				version.Version, version.GitCommit, version.BuildTime),
		},
	)

	if err := ctx.Run(&commands.Global{}, &cli); err != nil {
		bperrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
