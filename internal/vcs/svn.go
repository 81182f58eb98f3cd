package vcs

import (
	"fmt"
	"path/filepath"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

type svnBackend struct {
	base
}

// IsControlled looks for a .svn directory beside path or in any ancestor.
// Working copies from svn 1.7 on keep a single .svn at the checkout top.
func (b *svnBackend) IsControlled(path string) bool {
	_, ok := b.markerDir(path)
	return ok
}

// markerDir returns the nearest ancestor of path holding a .svn directory.
func (b *svnBackend) markerDir(path string) (string, bool) {
	dir := b.workingDir(path)
	for {
		if b.isDir(filepath.Join(dir, ".svn")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// topmost returns the highest ancestor of dir holding a .svn directory.
func (b *svnBackend) topmost(dir string) (string, bool) {
	found := ""
	for {
		if b.isDir(filepath.Join(dir, ".svn")) {
			found = dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return found, found != ""
}

// Repository returns the working copy root.
func (b *svnBackend) Repository(path string) (string, error) {
	root, ok := b.topmost(b.workingDir(path))
	if !ok {
		return "", &PathError{Path: path, Err: ErrNotControlled}
	}
	return root, nil
}

func (b *svnBackend) Partition(models.Operation) PartitionOptions {
	return PartitionOptions{TopDown: true}
}

func (b *svnBackend) BuildArgv(op models.Operation, files []string, opts ArgvOptions) ([]string, error) {
	switch op {
	case models.OpAdd:
		return withFiles([]string{"add"}, files), nil
	case models.OpCheckout:
		return withFiles([]string{"checkout"}, files), nil
	case models.OpCommit:
		return withFiles([]string{"commit", "-m", opts.Message}, files), nil
	case models.OpDiff:
		return withFiles([]string{"diff"}, files), nil
	case models.OpHistory:
		return withFiles([]string{"log"}, files), nil
	case models.OpRemove:
		return withFiles([]string{"remove", "--force"}, files), nil
	case models.OpStatus:
		argv := []string{"status", "-v"}
		if !opts.Recursive {
			argv = append(argv, "-N")
		}
		return withFiles(argv, files), nil
	case models.OpUpdate:
		return withFiles([]string{"update"}, files), nil
	case models.OpRevert:
		if len(files) == 0 {
			files = []string{"."}
		}
		return withFiles([]string{"revert", "-R"}, files), nil
	case models.OpFetch:
		argv := []string{"cat"}
		switch {
		case opts.Revision != "":
			argv = append(argv, "-r", opts.Revision)
		case opts.Date != "":
			argv = append(argv, "-r", "{"+opts.Date+"}")
		}
		return withFiles(argv, files), nil
	}
	return nil, fmt.Errorf("%w: svn %s", ErrUnsupportedOperation, op)
}
