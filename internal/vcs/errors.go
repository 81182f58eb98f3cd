package vcs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolUnavailable is returned when the backend executable cannot be spawned.
	ErrToolUnavailable = errors.New("source control tool unavailable")
	// ErrPathNotFound is returned when a requested path does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrHistoryUnsupported is returned by backends whose log output is not parsed.
	ErrHistoryUnsupported = errors.New("history parsing not supported by backend")
	// ErrNotControlled is returned when no backend claims a path.
	ErrNotControlled = errors.New("path is not under source control")
	// ErrMultipleRepositories is returned when one batch spans repositories.
	ErrMultipleRepositories = errors.New("paths belong to more than one repository")
	// ErrUnsupportedOperation is returned for operations a backend cannot build.
	ErrUnsupportedOperation = errors.New("operation not supported by backend")
	// ErrTimeout is returned when a command outlives the configured timeout.
	ErrTimeout = errors.New("command timed out")
	// ErrOutputTooLong is returned when a child prints a line longer than the
	// reader accepts; the rest of that stream is discarded.
	ErrOutputTooLong = errors.New("command output line too long")
)

// PathError records a failure tied to one input path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// CommandError reports a child process that exited with a non-zero status.
type CommandError struct {
	Dir      string
	Argv     []string
	ExitCode int
	Detail   string
}

func (e *CommandError) Error() string {
	command := strings.Join(e.Argv, " ")
	if e.Detail != "" {
		return fmt.Sprintf("%s (in %s): exit %d: %s", command, e.Dir, e.ExitCode, e.Detail)
	}
	return fmt.Sprintf("%s (in %s): exit %d", command, e.Dir, e.ExitCode)
}

// BatchError collects the per-path failures of one operation. Paths that
// succeeded are still reported by the operation's result.
type BatchError struct {
	Errors []error
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d paths failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error { return e.Errors }

// add records err when non-nil.
func (e *BatchError) add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// err returns nil when nothing failed.
func (e *BatchError) err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
