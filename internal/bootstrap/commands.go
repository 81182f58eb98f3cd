package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	urfavecli "github.com/urfave/cli/v3"

	"github.com/google-code-export/editra-plugins-sub001/internal/buildinfo"
	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/theme"
	"github.com/google-code-export/editra-plugins-sub001/internal/ui"
	"github.com/google-code-export/editra-plugins-sub001/internal/utils"
	"github.com/google-code-export/editra-plugins-sub001/internal/vcs"
)

func (a *App) statusCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "status",
		Aliases:   []string{"st"},
		Usage:     "Show the status of working copy files",
		ArgsUsage: "[path...]",
		Flags: []urfavecli.Flag{
			jsonFlag(),
			interactiveFlag(),
			&urfavecli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"R"},
				Usage:   "Descend into subdirectories",
			},
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			paths := pathsOrCwd(cmd)
			recursive := cmd.Bool("recursive") || a.cfg.RecursiveStatus

			load := func(ctx context.Context) (map[string]models.StatusRecord, error) {
				return a.collectStatus(ctx, paths, recursive)
			}

			if cmd.Bool("interactive") {
				if !a.IsTerminal() {
					return errNoTerminal
				}
				return a.RunProgram(ui.NewStatusModel(ctx, load, a.statusOptions(paths, nil)))
			}

			records, err := load(ctx)
			sorted := sortedStatus(records)
			if cmd.Bool("json") {
				if jsonErr := writeJSON(a.Stdout, sorted); jsonErr != nil {
					return jsonErr
				}
			} else if printErr := printStatus(a.Stdout, sorted); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

func (a *App) statusOptions(paths []string, changes <-chan []string) ui.StatusOptions {
	opts := ui.StatusOptions{
		Title:     "Status",
		ShowIcons: a.cfg.ShowIcons,
		Theme:     theme.GetTheme(a.cfg.Theme),
		Changes:   changes,
	}
	if abs, err := utils.AbsPaths(paths); err == nil && len(abs) == 1 {
		opts.Title = "Status: " + abs[0]
		opts.Base = abs[0]
	}
	return opts
}

func (a *App) collectStatus(ctx context.Context, paths []string, recursive bool) (map[string]models.StatusRecord, error) {
	all := make(map[string]models.StatusRecord)
	err := a.forEachBatch(ctx, paths, func(ctx context.Context, b *batch) error {
		records, err := b.service.Status(ctx, b.paths, recursive)
		for k, v := range records {
			all[k] = v
		}
		return err
	})
	return all, err
}

func (a *App) historyCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "history",
		Aliases:   []string{"log"},
		Usage:     "Show the revision history of paths",
		ArgsUsage: "[path...]",
		Flags: []urfavecli.Flag{
			jsonFlag(),
			interactiveFlag(),
			&urfavecli.StringFlag{
				Name:  "filter",
				Usage: "Only show revisions whose revision, author or comment match",
			},
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			paths := pathsOrCwd(cmd)
			var history []models.HistoryRecord
			err := a.forEachBatch(ctx, paths, func(ctx context.Context, b *batch) error {
				records, err := b.service.History(ctx, b.paths)
				history = append(history, records...)
				return err
			})
			history = ui.FilterHistory(history, cmd.String("filter"))

			if cmd.Bool("interactive") {
				if !a.IsTerminal() {
					return errNoTerminal
				}
				if len(history) == 0 && err != nil {
					return err
				}
				title := "History"
				if len(paths) == 1 {
					title += ": " + paths[0]
				}
				if runErr := a.RunProgram(ui.NewHistoryModel(title, history, theme.GetTheme(a.cfg.Theme))); runErr != nil {
					return runErr
				}
				return err
			}

			if cmd.Bool("json") {
				if history == nil {
					history = []models.HistoryRecord{}
				}
				if jsonErr := writeJSON(a.Stdout, history); jsonErr != nil {
					return jsonErr
				}
			} else if printErr := printHistory(a.Stdout, history); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

type batchOp func(ctx context.Context, b *batch) error

func (a *App) passThroughCommand(name, usage string, op batchOp) *urfavecli.Command {
	return &urfavecli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "path...",
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			paths, err := requirePaths(cmd)
			if err != nil {
				return err
			}
			return a.forEachBatch(ctx, paths, op)
		},
	}
}

func (a *App) runAdd(ctx context.Context, b *batch) error {
	return b.service.Add(ctx, b.paths)
}

func (a *App) runRemove(ctx context.Context, b *batch) error {
	return b.service.Remove(ctx, b.paths)
}

func (a *App) runUpdate(ctx context.Context, b *batch) error {
	return b.service.Update(ctx, b.paths)
}

func (a *App) commitCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "commit",
		Aliases:   []string{"ci"},
		Usage:     "Commit paths to the repository",
		ArgsUsage: "path...",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "Commit message (prompted for when omitted on a terminal)",
			},
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			paths, err := requirePaths(cmd)
			if err != nil {
				return err
			}
			message := cmd.String("message")
			if message == "" {
				if !a.IsTerminal() {
					return errors.New("commit: --message is required when not running on a terminal")
				}
				if message, err = a.PromptMessage(paths); err != nil {
					return err
				}
			}
			return a.forEachBatch(ctx, paths, func(ctx context.Context, b *batch) error {
				return b.service.Commit(ctx, b.paths, message)
			})
		},
	}
}

func (a *App) diffCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "diff",
		Usage:     "Show the tool's diff of paths against the repository",
		ArgsUsage: "[path...]",
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			return a.forEachBatch(ctx, pathsOrCwd(cmd), func(ctx context.Context, b *batch) error {
				text, err := b.service.Diff(ctx, b.paths)
				fmt.Fprint(a.Stdout, text)
				return err
			})
		},
	}
}

func argvOptions(cmd *urfavecli.Command) vcs.ArgvOptions {
	return vcs.ArgvOptions{
		Revision: cmd.String("revision"),
		Date:     cmd.String("date"),
	}
}

func (a *App) compareCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "compare",
		Usage:     "Diff a repository revision of files against their working copies",
		ArgsUsage: "path...",
		Flags:     revisionFlags(),
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			paths, err := requirePaths(cmd)
			if err != nil {
				return err
			}
			opts := argvOptions(cmd)
			return a.forEachBatch(ctx, paths, func(ctx context.Context, b *batch) error {
				var errs []error
				for _, p := range b.paths {
					diff, err := b.service.Compare(ctx, p, opts)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Fprint(a.Stdout, diff)
				}
				return errors.Join(errs...)
			})
		},
	}
}

func (a *App) revertCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "revert",
		Usage:     "Discard local changes to paths",
		ArgsUsage: "path...",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Do not ask for confirmation",
			},
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			paths, err := requirePaths(cmd)
			if err != nil {
				return err
			}
			if !cmd.Bool("yes") {
				if !a.IsTerminal() {
					return errors.New("revert: pass --yes when not running on a terminal")
				}
				ok, err := a.ConfirmRevert(paths)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.Stderr, "revert cancelled")
					return nil
				}
			}
			return a.forEachBatch(ctx, paths, func(ctx context.Context, b *batch) error {
				return b.service.Revert(ctx, b.paths)
			})
		},
	}
}

func (a *App) fetchCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "fetch",
		Aliases:   []string{"cat"},
		Usage:     "Print the repository content of files",
		ArgsUsage: "path...",
		Flags:     revisionFlags(),
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			paths, err := requirePaths(cmd)
			if err != nil {
				return err
			}
			opts := argvOptions(cmd)
			contents := make(map[string][]byte)
			err = a.forEachBatch(ctx, paths, func(ctx context.Context, b *batch) error {
				fetched, err := b.service.Fetch(ctx, b.paths, opts)
				for k, v := range fetched {
					contents[k] = v
				}
				return err
			})

			keys := make([]string, 0, len(contents))
			for k := range contents {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if len(keys) > 1 {
					fmt.Fprintf(a.Stdout, "==> %s <==\n", relativeToCwd(k))
				}
				_, _ = a.Stdout.Write(contents[k])
			}
			return err
		},
	}
}

func (a *App) checkoutCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "checkout",
		Aliases:   []string{"co"},
		Usage:     "Check out modules or URLs into a directory",
		ArgsUsage: "source...",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Destination directory",
				Value:   ".",
			},
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			sources, err := requirePaths(cmd)
			if err != nil {
				return err
			}
			if a.cfg.Backend == "" {
				return errors.New("checkout: choose a backend with --backend")
			}
			service, err := a.newService(models.BackendKind(a.cfg.Backend))
			if err != nil {
				return err
			}
			dir, err := utils.ExpandPath(cmd.String("dir"))
			if err != nil {
				return err
			}
			dir, err = filepath.Abs(dir)
			if err != nil {
				return err
			}
			return service.Checkout(ctx, dir, sources)
		},
	}
}

// detection is one row of `scm detect`.
type detection struct {
	Path       string             `json:"path"`
	Backend    models.BackendKind `json:"backend,omitempty"`
	Repository string             `json:"repository,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func (a *App) detectCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "detect",
		Usage:     "Report which backend controls each path",
		ArgsUsage: "[path...]",
		Flags:     []urfavecli.Flag{jsonFlag()},
		Action: func(_ context.Context, cmd *urfavecli.Command) error {
			paths, err := utils.AbsPaths(pathsOrCwd(cmd))
			if err != nil {
				return err
			}
			rows := make([]detection, 0, len(paths))
			var errs []error
			for _, p := range paths {
				row := detection{Path: p}
				backend, err := vcs.Detect(p, a.backendOptions)
				if err != nil {
					row.Error = err.Error()
					errs = append(errs, err)
				} else {
					row.Backend = backend.Kind()
					row.Repository, _ = backend.Repository(p)
				}
				rows = append(rows, row)
			}

			if cmd.Bool("json") {
				if err := writeJSON(a.Stdout, rows); err != nil {
					return err
				}
				return errors.Join(errs...)
			}
			for _, row := range rows {
				if row.Error != "" {
					fmt.Fprintf(a.Stdout, "%s\tnone\n", relativeToCwd(row.Path))
					continue
				}
				fmt.Fprintf(a.Stdout, "%s\t%s\t%s\n", relativeToCwd(row.Path), row.Backend, row.Repository)
			}
			return errors.Join(errs...)
		},
	}
}

// doctorRow is one backend's line in `scm doctor`.
type doctorRow struct {
	*vcs.ProbeResult
	Error string `json:"error,omitempty"`
}

func (a *App) doctorCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "doctor",
		Usage: "Check that the configured tools are installed and recent enough",
		Flags: []urfavecli.Flag{jsonFlag()},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			kinds := models.Backends
			if a.cfg.Backend != "" {
				kinds = []models.BackendKind{models.BackendKind(a.cfg.Backend)}
			}

			rows := make([]doctorRow, 0, len(kinds))
			healthy := false
			for _, kind := range kinds {
				service, err := a.newService(kind)
				if err != nil {
					return err
				}
				result, err := service.Probe(ctx)
				row := doctorRow{ProbeResult: result}
				if err != nil {
					row.ProbeResult = &vcs.ProbeResult{Kind: kind, Command: a.cfg.CommandFor(kind)}
					row.Error = err.Error()
				} else if result.Supported {
					healthy = true
				}
				rows = append(rows, row)
			}

			if cmd.Bool("json") {
				if err := writeJSON(a.Stdout, rows); err != nil {
					return err
				}
			} else {
				for _, row := range rows {
					switch {
					case row.Error != "":
						fmt.Fprintf(a.Stdout, "%-4s %-20s missing: %s\n", row.Kind, row.Command, row.Error)
					case row.Supported:
						fmt.Fprintf(a.Stdout, "%-4s %-20s %s ok\n", row.Kind, row.Command, row.Version)
					default:
						fmt.Fprintf(a.Stdout, "%-4s %-20s %s too old (need %s)\n", row.Kind, row.Command, row.Version, row.Constraint)
					}
				}
			}
			if !healthy {
				return errors.New("doctor: no supported tool found")
			}
			return nil
		},
	}
}

func (a *App) versionCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(context.Context, *urfavecli.Command) error {
			fmt.Fprint(a.Stdout, buildinfo.Summary())
			return nil
		},
	}
}

// backendNames lists the accepted --backend values.
func backendNames() []string {
	names := make([]string, 0, len(models.Backends))
	for _, kind := range models.Backends {
		names = append(names, string(kind))
	}
	return names
}
