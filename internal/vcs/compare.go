package vcs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"
	"github.com/go-git/go-billy/v5/util"
)

// Compare returns a unified diff from the repository content of path (at
// the requested revision or date) to its working copy. An empty string
// means they match.
func (s *Service) Compare(ctx context.Context, path string, opts ArgvOptions) (string, error) {
	path = absPath(path)
	working, err := util.ReadFile(s.runner.fs, path)
	if err != nil {
		return "", &PathError{Path: path, Err: ErrPathNotFound}
	}

	contents, err := s.Fetch(ctx, []string{path}, opts)
	if err != nil {
		return "", err
	}
	fetched := contents[path]

	label := filepath.Base(path)
	rev := opts.Revision
	switch {
	case rev == "" && opts.Date != "":
		rev = opts.Date
	case rev == "":
		rev = "repository"
	}

	return udiff.Unified(
		fmt.Sprintf("a/%s (%s)", label, rev),
		fmt.Sprintf("b/%s (working)", label),
		string(fetched),
		string(working),
	), nil
}
