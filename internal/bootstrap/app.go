package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	urfavecli "github.com/urfave/cli/v3"

	"github.com/google-code-export/editra-plugins-sub001/internal/buildinfo"
	"github.com/google-code-export/editra-plugins-sub001/internal/config"
	"github.com/google-code-export/editra-plugins-sub001/internal/log"
)

// App carries the process streams and the interactive hooks shared by all
// subcommands. Tests replace the hooks to avoid a terminal.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	IsTerminal    func() bool
	PromptMessage func(paths []string) (string, error)
	ConfirmRevert func(paths []string) (bool, error)
	RunProgram    func(m tea.Model) error

	cfg   *config.AppConfig
	quiet bool
}

// New returns an App wired to the real terminal.
func New() *App {
	return &App{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		IsTerminal:    stdinIsTerminal,
		PromptMessage: promptCommitMessage,
		ConfirmRevert: confirmRevert,
		RunProgram: func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

// Command builds the root command.
func (a *App) Command() *urfavecli.Command {
	return &urfavecli.Command{
		Name:                  "scm",
		Usage:                 "Run cvs, svn and git working copy operations through one interface",
		Version:               buildinfo.Version(),
		EnableShellCompletion: true,
		Writer:                a.Stdout,
		ErrWriter:             a.Stderr,
		Flags:                 globalFlags(),
		Before:                a.before,
		After: func(context.Context, *urfavecli.Command) error {
			return log.Close()
		},
		Commands: []*urfavecli.Command{
			a.statusCommand(),
			a.historyCommand(),
			a.passThroughCommand("add", "Schedule paths for addition", a.runAdd),
			a.passThroughCommand("remove", "Schedule paths for removal", a.runRemove),
			a.commitCommand(),
			a.diffCommand(),
			a.compareCommand(),
			a.passThroughCommand("update", "Bring paths up to date with the repository", a.runUpdate),
			a.revertCommand(),
			a.fetchCommand(),
			a.checkoutCommand(),
			a.detectCommand(),
			a.doctorCommand(),
			a.watchCommand(),
			a.versionCommand(),
		},
	}
}

func (a *App) before(ctx context.Context, cmd *urfavecli.Command) (context.Context, error) {
	cfg, err := a.loadCLIConfig(cmd)
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg
	a.quiet = cmd.Bool("quiet")
	a.setupLogging(cfg)
	log.Debug().Str("backend", cfg.Backend).Dur("timeout", cfg.CommandTimeout).Msg("config loaded")
	return ctx, nil
}

// Run executes the application with args (including the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	return a.Command().Run(ctx, args)
}

// Main is the process entry point; it returns the exit status.
func Main(ctx context.Context, args []string) int {
	buildinfo.Enrich()
	app := New()
	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintf(app.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
