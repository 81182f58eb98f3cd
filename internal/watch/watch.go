// Package watch reports changes under working copies so status views can
// refresh without polling the version-control tool.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/google-code-export/editra-plugins-sub001/internal/vcs"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 600 * time.Millisecond

// metadataDirs are the administrative directories the tools rewrite while
// running; they are never watched regardless of the configured filters.
var metadataDirs = []string{"CVS", ".svn", ".git"}

// ChangeFunc receives the sorted set of paths changed since the last call.
type ChangeFunc func(changed []string)

// Option customizes a Service.
type Option func(*Service)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithFilters ignores paths matching any of the backend filter patterns.
func WithFilters(filters []string) Option {
	return func(s *Service) { s.filters = slices.Clone(filters) }
}

// WithLogf routes watcher diagnostics.
func WithLogf(logf func(string, ...any)) Option {
	return func(s *Service) { s.logf = logf }
}

// Service watches a set of directory trees.
type Service struct {
	Roots    []string
	debounce time.Duration
	filters  []string
	logf     func(string, ...any)

	mu      sync.Mutex
	paths   map[string]struct{}
	watcher *fsnotify.Watcher
}

// New starts watching every directory below roots.
func New(roots []string, opts ...Option) (*Service, error) {
	s := &Service{
		debounce: DefaultDebounce,
		paths:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	s.watcher = watcher

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = watcher.Close()
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			_ = watcher.Close()
			return nil, &vcs.PathError{Path: abs, Err: vcs.ErrPathNotFound}
		}
		if !info.IsDir() {
			abs = filepath.Dir(abs)
		}
		s.Roots = append(s.Roots, abs)
		s.addWatchTree(abs)
	}
	return s, nil
}

// Close stops the underlying watcher. Run returns once it notices.
func (s *Service) Close() error {
	return s.watcher.Close()
}

// Watched returns the directories currently registered.
func (s *Service) Watched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Run delivers debounced change batches to onChange until ctx ends or the
// service is closed.
func (s *Service) Run(ctx context.Context, onChange ChangeFunc) error {
	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if s.Ignored(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				s.maybeWatchNewDir(event.Name)
			}
			pending[event.Name] = struct{}{}
			timer.Reset(s.debounce)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				s.debugf("watcher overflow, forcing refresh")
				pending[s.Roots[0]] = struct{}{}
				timer.Reset(s.debounce)
				continue
			}
			s.debugf("watcher error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			onChange(changed)
		}
	}
}

// Ignored reports whether path sits under a root and either lies inside a
// tool's administrative directory or matches the filters.
func (s *Service) Ignored(path string) bool {
	for _, root := range s.Roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			return false
		}
		rel = filepath.ToSlash(rel)
		for _, part := range strings.Split(rel, "/") {
			if slices.Contains(metadataDirs, part) {
				return true
			}
		}
		return len(vcs.FilterPaths([]string{rel}, s.filters)) == 0
	}
	return false
}

func (s *Service) maybeWatchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	s.addWatchTree(path)
}

func (s *Service) addWatchDir(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paths[path]; ok {
		return
	}
	if err := s.watcher.Add(path); err != nil {
		s.debugf("watcher add failed for %s: %v", path, err)
		return
	}
	s.paths[path] = struct{}{}
}

func (s *Service) addWatchTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && s.Ignored(path) {
			return filepath.SkipDir
		}
		s.addWatchDir(path)
		return nil
	})
}

func (s *Service) debugf(format string, args ...any) {
	if s.logf == nil {
		return
	}
	s.logf(format, args...)
}
