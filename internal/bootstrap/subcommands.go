package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	urfavecli "github.com/urfave/cli/v3"

	"github.com/google-code-export/editra-plugins-sub001/internal/config"
	"github.com/google-code-export/editra-plugins-sub001/internal/log"
	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/theme"
	"github.com/google-code-export/editra-plugins-sub001/internal/utils"
	"github.com/google-code-export/editra-plugins-sub001/internal/vcs"
)

// loadCLIConfig loads the configuration and layers the global flags on top.
func (a *App) loadCLIConfig(cmd *urfavecli.Command) (*config.AppConfig, error) {
	cfg, err := config.LoadConfig(cmd.String("config-file"))
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if overrides := cmd.StringSlice("config"); len(overrides) > 0 {
		if err := cfg.ApplyCLIOverrides(overrides); err != nil {
			return nil, fmt.Errorf("error applying config overrides: %w", err)
		}
	}

	if name := cmd.String("backend"); name != "" {
		kind, err := models.ParseBackendKind(name)
		if err != nil {
			return nil, err
		}
		cfg.Backend = string(kind)
	}
	if cmd.IsSet("timeout") {
		cfg.CommandTimeout = max(cmd.Duration("timeout"), 0)
	}
	if name := cmd.String("theme"); name != "" {
		normalized := theme.NormalizeName(name)
		if normalized == "" {
			return nil, fmt.Errorf("unknown theme %q", name)
		}
		cfg.Theme = normalized
	}
	if debugLog := cmd.String("debug-log"); debugLog != "" {
		cfg.DebugLog = debugLog
	}

	return cfg, nil
}

// setupLogging sends debug output to the configured file, or drops it.
func (a *App) setupLogging(cfg *config.AppConfig) {
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(a.Stderr, "Error setting log level: %v\n", err)
	}
	if cfg.DebugLog == "" {
		_ = log.SetFile("")
		return
	}
	path := cfg.DebugLog
	if expanded, err := utils.ExpandPath(path); err == nil {
		path = expanded
	}
	if err := log.SetFile(path); err != nil {
		fmt.Fprintf(a.Stderr, "Error opening debug log file %q: %v\n", path, err)
	}
}

// backendOptions maps the configuration onto one backend's options.
func (a *App) backendOptions(kind models.BackendKind) vcs.Options {
	return vcs.Options{
		Command:    a.cfg.CommandFor(kind),
		Filters:    a.cfg.Filters,
		RootOption: a.cfg.CVSRootOption,
		RSH:        a.cfg.CVSRSH,
	}
}

func (a *App) console() io.Writer {
	if a.quiet {
		return io.Discard
	}
	return a.Stderr
}

// newService builds the operation set for kind, streaming tool text to
// stdout.
func (a *App) newService(kind models.BackendKind, opts ...vcs.ServiceOption) (*vcs.Service, error) {
	backend, err := vcs.NewBackend(kind, a.backendOptions(kind))
	if err != nil {
		return nil, err
	}
	runner := vcs.NewRunner(backend,
		vcs.WithConsole(a.console()),
		vcs.WithTimeout(a.cfg.CommandTimeout),
	)
	opts = append([]vcs.ServiceOption{vcs.WithOutput(a.printLine)}, opts...)
	return vcs.NewService(runner, opts...), nil
}

func (a *App) printLine(line vcs.Line) {
	if line.Stream == vcs.StreamStderr {
		fmt.Fprintln(a.Stderr, line.Text)
		return
	}
	fmt.Fprintln(a.Stdout, line.Text)
}

// batch is the slice of input paths handled by one backend.
type batch struct {
	kind    models.BackendKind
	paths   []string
	service *vcs.Service
}

// partitionByBackend resolves each path's backend (the configured one, or
// detection) and groups paths per backend in first-seen order. Paths no
// backend claims are reported in the returned error.
func (a *App) partitionByBackend(paths []string) ([]*batch, error) {
	var batches []*batch
	index := map[models.BackendKind]*batch{}
	var errs []error

	for _, p := range paths {
		kind := models.BackendKind(a.cfg.Backend)
		if kind == "" {
			backend, err := vcs.Detect(p, a.backendOptions)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			kind = backend.Kind()
		}
		b, ok := index[kind]
		if !ok {
			service, err := a.newService(kind)
			if err != nil {
				return nil, err
			}
			b = &batch{kind: kind, service: service}
			index[kind] = b
			batches = append(batches, b)
		}
		b.paths = append(b.paths, p)
	}
	return batches, errors.Join(errs...)
}

// forEachBatch runs fn per backend batch and joins every error, so one
// failing backend never hides the others' results.
func (a *App) forEachBatch(ctx context.Context, paths []string, fn func(ctx context.Context, b *batch) error) error {
	abs, err := utils.AbsPaths(paths)
	if err != nil {
		return err
	}
	batches, detectErr := a.partitionByBackend(abs)
	errs := []error{detectErr}
	for _, b := range batches {
		log.Debug().Str("backend", string(b.kind)).Strs("paths", b.paths).Msg("batch")
		errs = append(errs, fn(ctx, b))
	}
	return errors.Join(errs...)
}

// pathsOrCwd returns the positional arguments, defaulting to ".".
func pathsOrCwd(cmd *urfavecli.Command) []string {
	if cmd.Args().Len() == 0 {
		return []string{"."}
	}
	return cmd.Args().Slice()
}

func requirePaths(cmd *urfavecli.Command) ([]string, error) {
	if cmd.Args().Len() == 0 {
		return nil, fmt.Errorf("%s: at least one path is required", cmd.Name)
	}
	return cmd.Args().Slice(), nil
}
