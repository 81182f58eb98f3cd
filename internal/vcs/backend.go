package vcs

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

// ArgvOptions carries per-request values that end up in an argument vector.
type ArgvOptions struct {
	Message   string // commit message
	Recursive bool   // status recursion
	Revision  string // fetch revision
	Date      string // fetch date, used when Revision is empty
}

// Options configures a backend. It is copied into the backend on
// construction and never mutated afterwards.
type Options struct {
	Command    string   // executable name or path
	Filters    []string // exclusion globs
	RootOption bool     // cvs: prepend -d <CVS/Root>
	RSH        string   // cvs: value of CVS_RSH
	FS         billy.Filesystem
}

// Backend adapts one version-control tool to the shared operation set.
type Backend interface {
	Kind() models.BackendKind
	// Command is the executable spawned for every operation.
	Command() string
	// Env is merged into the environment of every child.
	Env() map[string]string
	Filters() []string
	// IsControlled reports whether path (or the directory holding it) is
	// under this tool's control.
	IsControlled(path string) bool
	// Repository identifies the repository path belongs to.
	Repository(path string) (string, error)
	AddRootOption(dir string, argv []string) []string
	// Partition tells how paths are grouped for op.
	Partition(op models.Operation) PartitionOptions
	BuildArgv(op models.Operation, files []string, opts ArgvOptions) ([]string, error)
	// OKCodes lists non-zero exit codes that still mean success for op.
	OKCodes(op models.Operation) []int
	// RevertByFetch reports whether revert rewrites files from fetched
	// content instead of running a tool verb.
	RevertByFetch() bool
	ParseStatus(lines []string, recursive bool) map[string]models.StatusRecord
	ParseHistory(lines []string) ([]models.HistoryRecord, error)
}

// NewBackend returns the backend for kind. An empty Options.Command falls
// back to the tool's usual name.
func NewBackend(kind models.BackendKind, opts Options) (Backend, error) {
	if opts.FS == nil {
		opts.FS = osfs.New("/")
	}
	if opts.Command == "" {
		opts.Command = string(kind)
	}
	opts.Filters = slices.Clone(opts.Filters)

	b := base{opts: opts, kind: kind}
	switch kind {
	case models.BackendCVS:
		return &cvsBackend{base: b}, nil
	case models.BackendSVN:
		return &svnBackend{base: b}, nil
	case models.BackendGit:
		return &gitBackend{base: b}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}

// Detect returns the backend that controls path from the nearest
// directory, so a git checkout vendored inside an svn working copy is
// reported as git. Ties keep models.Backends order. optsFor supplies each
// candidate's options.
func Detect(path string, optsFor func(models.BackendKind) Options) (Backend, error) {
	var best Backend
	bestDepth := -1
	for _, kind := range models.Backends {
		backend, err := NewBackend(kind, optsFor(kind))
		if err != nil {
			return nil, err
		}
		dir, ok := backend.(markerLocator).markerDir(path)
		if !ok {
			continue
		}
		if depth := pathDepth(dir); depth > bestDepth {
			best, bestDepth = backend, depth
		}
	}
	if best == nil {
		return nil, &PathError{Path: path, Err: ErrNotControlled}
	}
	return best, nil
}

// markerLocator finds the directory whose administrative data claims path.
type markerLocator interface {
	markerDir(path string) (string, bool)
}

func pathDepth(dir string) int {
	return strings.Count(filepath.ToSlash(filepath.Clean(dir)), "/")
}

type base struct {
	opts Options
	kind models.BackendKind
}

func (b *base) Kind() models.BackendKind { return b.kind }

func (b *base) Command() string { return b.opts.Command }

func (b *base) Env() map[string]string { return nil }

func (b *base) Filters() []string { return slices.Clone(b.opts.Filters) }

func (b *base) AddRootOption(_ string, argv []string) []string { return argv }

func (b *base) OKCodes(models.Operation) []int { return nil }

func (b *base) RevertByFetch() bool { return false }

func (b *base) ParseStatus(lines []string, recursive bool) map[string]models.StatusRecord {
	return ParseStatus(b.kind, lines, recursive)
}

func (b *base) ParseHistory(lines []string) ([]models.HistoryRecord, error) {
	return ParseHistory(b.kind, lines)
}

// workingDir returns path when it is a directory, otherwise its parent.
func (b *base) workingDir(path string) string {
	path = absPath(path)
	if info, err := b.opts.FS.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

func (b *base) isDir(path string) bool {
	info, err := b.opts.FS.Stat(path)
	return err == nil && info.IsDir()
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func withFiles(argv, files []string) []string {
	return append(argv, files...)
}
