// Package bootstrap builds the scm command-line application.
package bootstrap

import (
	"strings"

	urfavecli "github.com/urfave/cli/v3"
)

// globalFlags returns the flags shared by every subcommand.
// Note: --version is provided automatically by urfave/cli via Command.Version
func globalFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "Force a backend (" + strings.Join(backendNames(), ", ") + ") instead of detecting it per path",
		},
		&urfavecli.StringFlag{
			Name:  "config-file",
			Usage: "Path to configuration file",
		},
		&urfavecli.StringSliceFlag{
			Name:    "config",
			Aliases: []string{"C"},
			Usage:   "Override config values (repeatable): --config=scm.key=value",
		},
		&urfavecli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
		&urfavecli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-command timeout (0 disables it)",
		},
		&urfavecli.StringFlag{
			Name:    "theme",
			Aliases: []string{"t"},
			Usage:   "Override the UI theme",
		},
		&urfavecli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Do not echo tool invocations on stderr",
		},
	}
}

func jsonFlag() urfavecli.Flag {
	return &urfavecli.BoolFlag{
		Name:  "json",
		Usage: "Print results as JSON",
	}
}

func interactiveFlag() urfavecli.Flag {
	return &urfavecli.BoolFlag{
		Name:    "interactive",
		Aliases: []string{"i"},
		Usage:   "Browse results in a terminal UI",
	}
}

func revisionFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:    "revision",
			Aliases: []string{"r"},
			Usage:   "Repository revision to use",
		},
		&urfavecli.StringFlag{
			Name:    "date",
			Aliases: []string{"D"},
			Usage:   "Repository date to use when no revision is given",
		},
	}
}
