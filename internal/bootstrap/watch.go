package bootstrap

import (
	"context"
	"errors"
	"fmt"

	urfavecli "github.com/urfave/cli/v3"

	"github.com/google-code-export/editra-plugins-sub001/internal/log"
	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/ui"
	"github.com/google-code-export/editra-plugins-sub001/internal/utils"
	"github.com/google-code-export/editra-plugins-sub001/internal/watch"
)

func (a *App) watchCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "watch",
		Usage:     "Re-run status whenever files under the paths change",
		ArgsUsage: "[path...]",
		Flags: []urfavecli.Flag{
			interactiveFlag(),
			&urfavecli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"R"},
				Usage:   "Descend into subdirectories",
			},
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			paths, err := utils.AbsPaths(pathsOrCwd(cmd))
			if err != nil {
				return err
			}
			recursive := cmd.Bool("recursive") || a.cfg.RecursiveStatus

			watcher, err := watch.New(paths,
				watch.WithDebounce(a.cfg.WatchDebounce),
				watch.WithFilters(a.cfg.Filters),
				watch.WithLogf(log.Printf),
			)
			if err != nil {
				return err
			}
			defer func() { _ = watcher.Close() }()

			load := func(ctx context.Context) (map[string]models.StatusRecord, error) {
				return a.collectStatus(ctx, paths, recursive)
			}

			if cmd.Bool("interactive") {
				if !a.IsTerminal() {
					return errNoTerminal
				}
				return a.watchInteractive(ctx, watcher, load, paths)
			}
			return a.watchPlain(ctx, watcher, load)
		},
	}
}

func (a *App) watchInteractive(ctx context.Context, watcher *watch.Service, load ui.StatusLoader, paths []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes := make(chan []string, 1)
	go func() {
		defer close(changes)
		_ = watcher.Run(ctx, func(changed []string) {
			select {
			case changes <- changed:
			default:
				// a reload is already queued
			}
		})
	}()

	return a.RunProgram(ui.NewStatusModel(ctx, load, a.statusOptions(paths, changes)))
}

// watchPlain prints the status table once, then again after every batch of
// changes until ctx ends.
func (a *App) watchPlain(ctx context.Context, watcher *watch.Service, load ui.StatusLoader) error {
	report := func() {
		records, err := load(ctx)
		if err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		}
		_ = printStatus(a.Stdout, sortedStatus(records))
	}

	report()
	err := watcher.Run(ctx, func(changed []string) {
		fmt.Fprintf(a.Stdout, "-- %d change(s)\n", len(changed))
		report()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
