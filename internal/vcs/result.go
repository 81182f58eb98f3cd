package vcs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/google-code-export/editra-plugins-sub001/internal/log"
)

const maxLineSize = 4 * 1024 * 1024

// Stream identifies which child pipe a line was read from.
type Stream int

// Child output streams.
const (
	StreamStdout Stream = iota
	StreamStderr
)

func (s Stream) String() string {
	if s == StreamStderr {
		return "stderr"
	}
	return "stdout"
}

// Line is one line of child output without its trailing newline.
type Line struct {
	Stream Stream
	Text   string
}

// Sink receives drained lines in arrival order.
type Sink func(Line)

// CommandResult is a running or finished child process. It must be closed
// exactly once, which kills the child if it is still running and releases
// every pipe.
type CommandResult struct {
	ID   string
	Dir  string
	Argv []string

	ctx    context.Context
	cancel context.CancelFunc
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser // nil when merged into stdout

	linesOnce sync.Once
	lines     chan Line
	drained   atomic.Bool
	closed    chan struct{}

	closeOnce sync.Once
	exitCode  int
	closeErr  error

	readMu  sync.Mutex
	readErr error
}

// Merged reports whether stderr is interleaved into stdout.
func (r *CommandResult) Merged() bool {
	return r.stderr == nil
}

// Lines starts reading both pipes and returns a channel yielding lines as
// they arrive on either stream. The channel closes once both streams hit EOF
// or the result is closed. Repeated calls return the same channel.
func (r *CommandResult) Lines() <-chan Line {
	r.linesOnce.Do(func() {
		r.lines = make(chan Line)
		var wg sync.WaitGroup
		read := func(stream Stream, rd io.Reader) {
			defer wg.Done()
			scanner := bufio.NewScanner(rd)
			scanner.Buffer(make([]byte, 64*1024), maxLineSize)
			for scanner.Scan() {
				select {
				case r.lines <- Line{Stream: stream, Text: strings.TrimSuffix(scanner.Text(), "\r")}:
				case <-r.closed:
					return
				}
			}
			r.scanFailed(stream, scanner.Err(), rd)
		}

		wg.Add(1)
		go read(StreamStdout, r.stdout)
		if r.stderr != nil {
			wg.Add(1)
			go read(StreamStderr, r.stderr)
		}
		go func() {
			wg.Wait()
			select {
			case <-r.closed:
			default:
				r.drained.Store(true)
			}
			close(r.lines)
		}()
	})
	return r.lines
}

// scanFailed records a line over maxLineSize and discards the rest of rd so
// the child never blocks on a full pipe.
func (r *CommandResult) scanFailed(stream Stream, err error, rd io.Reader) {
	if !errors.Is(err, bufio.ErrTooLong) {
		return
	}
	r.readMu.Lock()
	if r.readErr == nil {
		r.readErr = fmt.Errorf("%w on %s of %s: %w", ErrOutputTooLong, stream, strings.Join(r.Argv, " "), err)
	}
	r.readMu.Unlock()
	log.Error().Str("id", r.ID).Str("stream", stream.String()).Msg("line too long, discarding output")
	_, _ = io.Copy(io.Discard, rd)
}

func (r *CommandResult) readError() error {
	r.readMu.Lock()
	defer r.readMu.Unlock()
	return r.readErr
}

// Stdin exposes the child's standard input, open until Close.
func (r *CommandResult) Stdin() io.Writer {
	return r.stdin
}

// Close waits for a drained child or kills one that is still producing
// output, then releases the pipes. It returns the exit code; a non-zero code
// is not an error. Calls after the first return the same values.
func (r *CommandResult) Close() (int, error) {
	r.closeOnce.Do(func() {
		_ = r.stdin.Close()
		if !r.drained.Load() {
			r.cancel()
		}
		close(r.closed)

		waitErr := r.cmd.Wait()
		timedOut := errors.Is(r.ctx.Err(), context.DeadlineExceeded)
		r.cancel()

		r.exitCode = -1
		if r.cmd.ProcessState != nil {
			r.exitCode = r.cmd.ProcessState.ExitCode()
		}

		var exitErr *exec.ExitError
		switch {
		case timedOut:
			r.closeErr = fmt.Errorf("%w: %s", ErrTimeout, strings.Join(r.Argv, " "))
		case waitErr == nil, errors.As(waitErr, &exitErr):
		default:
			if r.drained.Load() || !errors.Is(waitErr, context.Canceled) {
				r.closeErr = waitErr
			}
		}
		if r.closeErr == nil {
			r.closeErr = r.readError()
		}

		log.Debug().
			Str("id", r.ID).
			Int("exit", r.exitCode).
			Err(r.closeErr).
			Msg("close")
	})
	return r.exitCode, r.closeErr
}

// DrainOutput forwards every line of result to sink in arrival order, then
// closes result and returns its exit code. Close errors other than a
// timeout or truncated output are suppressed. A nil result is a no-op.
func DrainOutput(result *CommandResult, sink Sink) (int, error) {
	if result == nil {
		return 0, nil
	}
	for line := range result.Lines() {
		if sink != nil {
			sink(line)
		}
	}
	code, err := result.Close()
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrOutputTooLong) {
		return code, err
	}
	return code, nil
}

// Output is the collected text of a finished command.
type Output struct {
	Stdout   []string
	Stderr   []string
	ExitCode int
}

// Text joins stdout lines back into one string.
func (o *Output) Text() string {
	if len(o.Stdout) == 0 {
		return ""
	}
	return strings.Join(o.Stdout, "\n") + "\n"
}

// Collect drains result into memory. Merged stderr lands in Stdout.
func Collect(result *CommandResult, tee Sink) (*Output, error) {
	out := &Output{}
	code, err := DrainOutput(result, func(line Line) {
		if line.Stream == StreamStderr {
			out.Stderr = append(out.Stderr, line.Text)
		} else {
			out.Stdout = append(out.Stdout, line.Text)
		}
		if tee != nil {
			tee(line)
		}
	})
	out.ExitCode = code
	return out, err
}

// ReadAll reads stdout verbatim while collecting stderr lines, then closes
// result. Use it when the output is file content rather than text records.
func ReadAll(result *CommandResult) ([]byte, []string, int, error) {
	var stderr []string
	done := make(chan struct{})
	if result.stderr != nil {
		go func() {
			defer close(done)
			scanner := bufio.NewScanner(result.stderr)
			scanner.Buffer(make([]byte, 64*1024), maxLineSize)
			for scanner.Scan() {
				stderr = append(stderr, scanner.Text())
			}
			result.scanFailed(StreamStderr, scanner.Err(), result.stderr)
		}()
	} else {
		close(done)
	}

	data, readErr := io.ReadAll(result.stdout)
	<-done
	if readErr == nil {
		result.drained.Store(true)
	}

	code, err := result.Close()
	if err == nil {
		err = readErr
	}
	return data, stderr, code, err
}
