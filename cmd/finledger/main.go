package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"finledger/internal/cli"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	args struct {
		Version kong.VersionFlag `help:"Show version information"`
		cli.Commands
	}
)

func main() {
	cli.LoadEnvFile()

	rt := &cli.Runtime{}
	ctx := kong.Parse(&args,
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("finledger"),
		kong.Description("Record personal income and expenses and summarize them by month."),
		kong.UsageOnError(),
		kong.Bind(&args.Globals, rt),
	)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, os.Stderr)

	opener, err := cli.NewConfigOpener(cfg, logger)
	if err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(1)
	}
	rt.Opener = opener
	rt.Logger = logger
	rt.Timeout = cfg.OpTimeout

	if err := ctx.Run(); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
