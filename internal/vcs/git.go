package vcs

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

type gitBackend struct {
	base
}

// worktreeRoot opens the repository enclosing path and returns its
// worktree root.
func (b *gitBackend) worktreeRoot(path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(b.workingDir(path), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	return wt.Filesystem.Root(), nil
}

func (b *gitBackend) IsControlled(path string) bool {
	_, ok := b.markerDir(path)
	return ok
}

func (b *gitBackend) markerDir(path string) (string, bool) {
	root, err := b.worktreeRoot(path)
	return root, err == nil
}

func (b *gitBackend) Repository(path string) (string, error) {
	root, err := b.worktreeRoot(path)
	if err != nil {
		return "", &PathError{Path: path, Err: ErrNotControlled}
	}
	return root, nil
}

func (b *gitBackend) Partition(models.Operation) PartitionOptions {
	return PartitionOptions{TopDown: true}
}

func (b *gitBackend) BuildArgv(op models.Operation, files []string, opts ArgvOptions) ([]string, error) {
	switch op {
	case models.OpAdd:
		return withFiles([]string{"add"}, files), nil
	case models.OpCheckout:
		return withFiles([]string{"clone"}, files), nil
	case models.OpCommit:
		return withFiles([]string{"commit", "-m", opts.Message}, files), nil
	case models.OpDiff:
		return withFiles([]string{"diff"}, files), nil
	case models.OpHistory:
		return withFiles([]string{"log"}, files), nil
	case models.OpRemove:
		return withFiles([]string{"rm", "-r", "-f"}, files), nil
	case models.OpStatus:
		return withFiles([]string{"status", "--porcelain"}, files), nil
	case models.OpUpdate:
		return []string{"pull"}, nil
	case models.OpRevert:
		if len(files) == 0 {
			files = []string{"."}
		}
		return withFiles([]string{"checkout", "--"}, files), nil
	case models.OpFetch:
		if len(files) != 1 {
			return nil, fmt.Errorf("%w: git fetch takes exactly one file", ErrUnsupportedOperation)
		}
		rev := opts.Revision
		if rev == "" {
			rev = "HEAD"
		}
		return []string{"show", rev + ":./" + filepath.ToSlash(files[0])}, nil
	}
	return nil, fmt.Errorf("%w: git %s", ErrUnsupportedOperation, op)
}
