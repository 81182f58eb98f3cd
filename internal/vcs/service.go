package vcs

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	log "github.com/google-code-export/editra-plugins-sub001/internal/log"
	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithOutput sets where the text of pass-through operations is streamed.
func WithOutput(sink Sink) ServiceOption {
	return func(s *Service) { s.output = sink }
}

// WithSingleRepository toggles the check that one batch stays inside one
// repository.
func WithSingleRepository(enabled bool) ServiceOption {
	return func(s *Service) { s.singleRepo = enabled }
}

// Service runs the source-control operation set for one backend.
type Service struct {
	backend    Backend
	runner     *Runner
	locks      *pathLocks
	output     Sink
	singleRepo bool
}

// NewService binds runner (and its backend) to the operation set.
func NewService(runner *Runner, opts ...ServiceOption) *Service {
	s := &Service{
		backend:    runner.Backend(),
		runner:     runner,
		locks:      newPathLocks(),
		singleRepo: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the adapter the service drives.
func (s *Service) Backend() Backend {
	return s.backend
}

func (s *Service) debugf(format string, args ...any) {
	log.Printf(format, args...)
}

type groupFunc func(ctx context.Context, path string, group models.PathGroup) error

// checkSingleRepository rejects batches spanning repositories. Paths whose
// repository cannot be determined are ignored here and fail later.
func (s *Service) checkSingleRepository(paths []string) error {
	if !s.singleRepo || len(paths) < 2 {
		return nil
	}
	previous := ""
	for _, p := range paths {
		repo, err := s.backend.Repository(p)
		if err != nil {
			continue
		}
		if previous != "" && repo != previous {
			return fmt.Errorf("%w: %s and %s", ErrMultipleRepositories, previous, repo)
		}
		previous = repo
	}
	return nil
}

// eachGroup partitions every path for op and calls fn once per group under
// the group's lock. A failing path never stops the others.
func (s *Service) eachGroup(ctx context.Context, op models.Operation, paths []string, fn groupFunc) error {
	if err := s.checkSingleRepository(paths); err != nil {
		return err
	}

	popts := s.backend.Partition(op)
	batch := &BatchError{}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			batch.add(err)
			break
		}

		groups, err := s.runner.PartitionPaths([]string{p}, popts)
		if err != nil {
			batch.add(err)
			continue
		}

		for _, group := range groups {
			// An empty list only means "whole directory" for a directory
			// handed over as is; otherwise everything was filtered out.
			if len(group.Files) == 0 && (popts.ForceFileList || group.Root != absPath(p)) {
				s.debugf("skip %s %s: nothing left after filters", op, p)
				continue
			}

			unlock := s.locks.acquire(group.Root, op.ReadOnly())
			err := fn(ctx, p, group)
			unlock()
			if err != nil {
				batch.add(&PathError{Path: p, Err: err})
			}
		}
	}
	return batch.err()
}

func mergeStderr(op models.Operation) bool {
	return op != models.OpFetch && op != models.OpDiff
}

func (s *Service) run(ctx context.Context, dir string, op models.Operation, argv []string, tee bool) (*Output, error) {
	opts := RunOptions{
		MergeStderr: mergeStderr(op),
		OKCodes:     s.backend.OKCodes(op),
	}
	if tee {
		opts.Tee = s.output
	}
	return s.runner.Run(ctx, dir, argv, opts)
}

// passThrough runs op on every group, streaming the tool's text to the
// service output.
func (s *Service) passThrough(ctx context.Context, op models.Operation, paths []string, argvOpts ArgvOptions) error {
	return s.eachGroup(ctx, op, paths, func(ctx context.Context, _ string, group models.PathGroup) error {
		argv, err := s.backend.BuildArgv(op, group.Files, argvOpts)
		if err != nil {
			return err
		}
		_, err = s.run(ctx, group.Root, op, argv, true)
		return err
	})
}

// Add schedules paths for addition.
func (s *Service) Add(ctx context.Context, paths []string) error {
	return s.passThrough(ctx, models.OpAdd, paths, ArgvOptions{})
}

// Checkout fetches sources (modules or URLs) into dir.
func (s *Service) Checkout(ctx context.Context, dir string, sources []string) error {
	dir = absPath(dir)
	if info, err := s.runner.fs.Stat(dir); err != nil || !info.IsDir() {
		return &PathError{Path: dir, Err: ErrPathNotFound}
	}
	argv, err := s.backend.BuildArgv(models.OpCheckout, sources, ArgvOptions{})
	if err != nil {
		return err
	}
	unlock := s.locks.acquire(dir, false)
	defer unlock()
	_, err = s.run(ctx, dir, models.OpCheckout, argv, true)
	return err
}

// Commit commits paths with message.
func (s *Service) Commit(ctx context.Context, paths []string, message string) error {
	return s.passThrough(ctx, models.OpCommit, paths, ArgvOptions{Message: message})
}

// Remove schedules paths for removal.
func (s *Service) Remove(ctx context.Context, paths []string) error {
	return s.passThrough(ctx, models.OpRemove, paths, ArgvOptions{})
}

// Update brings paths up to date with the repository.
func (s *Service) Update(ctx context.Context, paths []string) error {
	return s.passThrough(ctx, models.OpUpdate, paths, ArgvOptions{})
}

// Diff returns the tool's diff of paths against the repository.
func (s *Service) Diff(ctx context.Context, paths []string) (string, error) {
	var b strings.Builder
	err := s.eachGroup(ctx, models.OpDiff, paths, func(ctx context.Context, _ string, group models.PathGroup) error {
		argv, err := s.backend.BuildArgv(models.OpDiff, group.Files, ArgvOptions{})
		if err != nil {
			return err
		}
		out, err := s.run(ctx, group.Root, models.OpDiff, argv, false)
		if out != nil {
			b.WriteString(out.Text())
		}
		return err
	})
	return b.String(), err
}

// statusBase returns the directory status keys are relative to.
func (s *Service) statusBase(root string) string {
	if s.backend.Kind() == models.BackendGit {
		if repo, err := s.backend.Repository(root); err == nil {
			return repo
		}
	}
	return root
}

// Status returns records keyed by absolute path.
func (s *Service) Status(ctx context.Context, paths []string, recursive bool) (map[string]models.StatusRecord, error) {
	records := make(map[string]models.StatusRecord)
	err := s.eachGroup(ctx, models.OpStatus, paths, func(ctx context.Context, _ string, group models.PathGroup) error {
		argv, err := s.backend.BuildArgv(models.OpStatus, group.Files, ArgvOptions{Recursive: recursive})
		if err != nil {
			return err
		}
		out, err := s.run(ctx, group.Root, models.OpStatus, argv, false)
		if err != nil {
			return err
		}
		base := s.statusBase(group.Root)
		for key, record := range s.backend.ParseStatus(out.Stdout, recursive) {
			full := filepath.Join(base, filepath.FromSlash(key))
			record.Path = full
			records[full] = record
		}
		return nil
	})
	return records, err
}

// History returns the revision records of paths. Backends without a log
// parser stream the raw log to the service output and report
// ErrHistoryUnsupported.
func (s *Service) History(ctx context.Context, paths []string) ([]models.HistoryRecord, error) {
	history := []models.HistoryRecord{}
	err := s.eachGroup(ctx, models.OpHistory, paths, func(ctx context.Context, p string, group models.PathGroup) error {
		argv, err := s.backend.BuildArgv(models.OpHistory, group.Files, ArgvOptions{})
		if err != nil {
			return err
		}
		out, err := s.run(ctx, group.Root, models.OpHistory, argv, false)
		if err != nil {
			return err
		}
		records, err := s.backend.ParseHistory(out.Stdout)
		if err != nil {
			if s.output != nil {
				for _, line := range out.Stdout {
					s.output(Line{Stream: StreamStdout, Text: line})
				}
			}
			return err
		}
		for _, record := range records {
			if record.Path == "" {
				record.Path = absPath(p)
			} else {
				record.Path = filepath.Join(group.Root, filepath.FromSlash(record.Path))
			}
			history = append(history, record)
		}
		return nil
	})
	return history, err
}

// Revert discards local changes to paths.
func (s *Service) Revert(ctx context.Context, paths []string) error {
	if !s.backend.RevertByFetch() {
		return s.passThrough(ctx, models.OpRevert, paths, ArgvOptions{})
	}

	return s.eachGroup(ctx, models.OpRevert, paths, func(ctx context.Context, _ string, group models.PathGroup) error {
		batch := &BatchError{}
		for _, file := range group.Files {
			full := filepath.Join(group.Root, file)
			content, err := s.fetchOne(ctx, group.Root, file, ArgvOptions{})
			if err != nil {
				batch.add(&PathError{Path: full, Err: err})
				continue
			}
			if len(content) == 0 || bytes.HasPrefix(content, []byte("cvs server")) {
				s.debugf("revert %s: no repository content", full)
				continue
			}
			if err := util.WriteFile(s.runner.fs, full, content, 0o644); err != nil {
				batch.add(&PathError{Path: full, Err: err})
				continue
			}
			if s.output != nil {
				s.output(Line{Stream: StreamStdout, Text: "reverted " + full})
			}
		}
		return batch.err()
	})
}

func (s *Service) fetchOne(ctx context.Context, root, file string, opts ArgvOptions) ([]byte, error) {
	argv, err := s.backend.BuildArgv(models.OpFetch, []string{file}, opts)
	if err != nil {
		return nil, err
	}
	return s.runner.Capture(ctx, root, argv, RunOptions{OKCodes: s.backend.OKCodes(models.OpFetch)})
}

// Fetch returns the repository content of each file path at the requested
// revision or date, keyed by absolute path. Directories and files with no
// content are left out.
func (s *Service) Fetch(ctx context.Context, paths []string, opts ArgvOptions) (map[string][]byte, error) {
	contents := make(map[string][]byte)
	err := s.eachGroup(ctx, models.OpFetch, paths, func(ctx context.Context, p string, group models.PathGroup) error {
		if group.Root == absPath(p) {
			return nil
		}
		for _, file := range group.Files {
			content, err := s.fetchOne(ctx, group.Root, file, opts)
			if err != nil {
				return err
			}
			if len(bytes.TrimSpace(content)) == 0 {
				continue
			}
			contents[filepath.Join(group.Root, file)] = content
		}
		return nil
	})
	return contents, err
}
