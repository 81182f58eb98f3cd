package vcs

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	log "github.com/google-code-export/editra-plugins-sub001/internal/log"
)

// LookupPath is used to find executables in PATH. Tests replace it to avoid
// depending on installed tools.
var LookupPath = exec.LookPath

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithConsole sets where command echoes are written.
func WithConsole(w io.Writer) RunnerOption {
	return func(r *Runner) { r.console = w }
}

// WithTimeout bounds every invocation. Zero disables the bound.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// WithFilesystem replaces the filesystem used for path partitioning.
func WithFilesystem(fs billy.Filesystem) RunnerOption {
	return func(r *Runner) { r.fs = fs }
}

// Runner partitions paths and spawns the backend tool.
type Runner struct {
	backend Backend
	console io.Writer
	timeout time.Duration
	fs      billy.Filesystem
}

// NewRunner returns a Runner for backend.
func NewRunner(backend Backend, opts ...RunnerOption) *Runner {
	r := &Runner{
		backend: backend,
		console: io.Discard,
		fs:      osfs.New("/"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the adapter the runner spawns.
func (r *Runner) Backend() Backend {
	return r.backend
}

func formatEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	formatted := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		formatted = append(formatted, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return formatted
}

// Execute spawns the backend command in dir with argv, after the backend's
// root options. extraEnv extends the child's environment only. When
// mergeStderr is set stderr is interleaved into stdout.
//
// A spawn failure returns a nil result and an error matching
// ErrToolUnavailable.
func (r *Runner) Execute(ctx context.Context, dir string, argv []string, extraEnv map[string]string, mergeStderr bool) (*CommandResult, error) {
	command := r.backend.Command()
	full := r.backend.AddRootOption(dir, argv)
	fmt.Fprintf(r.console, "%s %s %s\n", dir, command, strings.Join(full, " "))

	id := uuid.NewString()
	log.Debug().
		Str("id", id).
		Str("dir", dir).
		Str("command", command).
		Strs("argv", full).
		Msg("run")

	path, err := LookupPath(command)
	if err != nil {
		log.Error().Str("id", id).Err(err).Msg("lookup")
		return nil, fmt.Errorf("%w: %s: %w", ErrToolUnavailable, command, err)
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	// #nosec G204 -- command comes from backend configuration and argv is never shell interpolated
	cmd := exec.CommandContext(runCtx, path, full...)
	cmd.Dir = dir
	cmd.Env = append(append(os.Environ(), formatEnv(r.backend.Env())...), formatEnv(extraEnv)...)

	result := &CommandResult{
		ID:     id,
		Dir:    dir,
		Argv:   append([]string{command}, full...),
		ctx:    runCtx,
		cancel: cancel,
		cmd:    cmd,
		closed: make(chan struct{}),
	}

	if result.stdin, err = cmd.StdinPipe(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %s: %w", ErrToolUnavailable, command, err)
	}
	if result.stdout, err = cmd.StdoutPipe(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %s: %w", ErrToolUnavailable, command, err)
	}
	if mergeStderr {
		cmd.Stderr = cmd.Stdout
	} else if result.stderr, err = cmd.StderrPipe(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %s: %w", ErrToolUnavailable, command, err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		log.Error().Str("id", id).Err(err).Msg("spawn")
		return nil, fmt.Errorf("%w: %s: %w", ErrToolUnavailable, command, err)
	}

	return result, nil
}

// RunOptions tunes Run.
type RunOptions struct {
	MergeStderr bool
	Env         map[string]string
	OKCodes     []int // exit codes besides 0 that count as success
	Tee         Sink
}

// Run executes argv and collects its output. A failing exit status becomes
// a *CommandError carrying the tool's stderr (or merged output).
func (r *Runner) Run(ctx context.Context, dir string, argv []string, opts RunOptions) (*Output, error) {
	result, err := r.Execute(ctx, dir, argv, opts.Env, opts.MergeStderr)
	if err != nil {
		return nil, err
	}
	out, err := Collect(result, opts.Tee)
	if err != nil {
		return out, err
	}
	if out.ExitCode != 0 && !slices.Contains(opts.OKCodes, out.ExitCode) {
		detail := out.Stderr
		if opts.MergeStderr || len(detail) == 0 {
			detail = out.Stdout
		}
		log.Error().Str("id", result.ID).Int("exit", out.ExitCode).Msg("error")
		return out, &CommandError{
			Dir:      dir,
			Argv:     result.Argv,
			ExitCode: out.ExitCode,
			Detail:   strings.TrimSpace(lastLines(detail, 5)),
		}
	}
	log.Debug().Str("id", result.ID).Int("lines", len(out.Stdout)).Msg("ok")
	return out, nil
}

// Capture executes argv and returns its stdout byte for byte. stderr is
// never merged.
func (r *Runner) Capture(ctx context.Context, dir string, argv []string, opts RunOptions) ([]byte, error) {
	result, err := r.Execute(ctx, dir, argv, opts.Env, false)
	if err != nil {
		return nil, err
	}
	data, stderr, code, err := ReadAll(result)
	if err != nil {
		return data, err
	}
	if code != 0 && !slices.Contains(opts.OKCodes, code) {
		log.Error().Str("id", result.ID).Int("exit", code).Msg("error")
		return data, &CommandError{
			Dir:      dir,
			Argv:     result.Argv,
			ExitCode: code,
			Detail:   strings.TrimSpace(lastLines(stderr, 5)),
		}
	}
	log.Debug().Str("id", result.ID).Int("bytes", len(data)).Msg("ok")
	return data, nil
}

func lastLines(lines []string, n int) string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
