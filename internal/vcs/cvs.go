package vcs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

type cvsBackend struct {
	base
}

func (b *cvsBackend) Env() map[string]string {
	rsh := b.opts.RSH
	if rsh == "" {
		rsh = "ssh"
	}
	return map[string]string{"CVS_RSH": rsh}
}

// IsControlled looks for a CVS administrative directory beside path.
func (b *cvsBackend) IsControlled(path string) bool {
	return b.isDir(filepath.Join(b.workingDir(path), "CVS"))
}

func (b *cvsBackend) markerDir(path string) (string, bool) {
	dir := b.workingDir(path)
	return dir, b.isDir(filepath.Join(dir, "CVS"))
}

func (b *cvsBackend) readRoot(dir string) (string, error) {
	data, err := util.ReadFile(b.opts.FS, filepath.Join(dir, "CVS", "Root"))
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(string(data))
	if root == "" {
		return "", fmt.Errorf("%s: empty CVS/Root", dir)
	}
	return root, nil
}

// Repository returns the CVSROOT recorded for path.
func (b *cvsBackend) Repository(path string) (string, error) {
	root, err := b.readRoot(b.workingDir(path))
	if err != nil {
		return "", &PathError{Path: path, Err: ErrNotControlled}
	}
	return root, nil
}

// AddRootOption prepends -d with the directory's CVS/Root when enabled and
// readable.
func (b *cvsBackend) AddRootOption(dir string, argv []string) []string {
	if !b.opts.RootOption {
		return argv
	}
	root, err := b.readRoot(dir)
	if err != nil {
		return argv
	}
	return append([]string{"-d", root}, argv...)
}

func (b *cvsBackend) Partition(op models.Operation) PartitionOptions {
	switch op {
	case models.OpAdd, models.OpCheckout:
		return PartitionOptions{ForceFileList: true, TopDown: true}
	case models.OpRemove:
		return PartitionOptions{ForceFileList: true, TopDown: false}
	case models.OpRevert:
		return PartitionOptions{ForceFileList: true, PathType: models.PathFile, TopDown: true}
	}
	return PartitionOptions{TopDown: true}
}

// OKCodes treats exit 1 from diff as "differences found".
func (b *cvsBackend) OKCodes(op models.Operation) []int {
	if op == models.OpDiff {
		return []int{1}
	}
	return nil
}

func (b *cvsBackend) RevertByFetch() bool { return true }

func (b *cvsBackend) BuildArgv(op models.Operation, files []string, opts ArgvOptions) ([]string, error) {
	switch op {
	case models.OpAdd:
		return withFiles([]string{"add"}, files), nil
	case models.OpCheckout:
		return withFiles([]string{"checkout"}, files), nil
	case models.OpCommit:
		return withFiles([]string{"commit", "-R", "-m", opts.Message}, files), nil
	case models.OpDiff:
		return withFiles([]string{"diff"}, files), nil
	case models.OpHistory:
		return withFiles([]string{"log"}, files), nil
	case models.OpRemove:
		return withFiles([]string{"remove"}, files), nil
	case models.OpStatus:
		argv := []string{"status", "-l"}
		if opts.Recursive {
			argv = append(argv, "-R")
		}
		return withFiles(argv, files), nil
	case models.OpUpdate:
		return withFiles([]string{"update", "-R"}, files), nil
	case models.OpFetch, models.OpRevert:
		argv := []string{"update", "-p"}
		switch {
		case opts.Revision != "":
			argv = append(argv, "-r", opts.Revision)
		case opts.Date != "":
			argv = append(argv, "-D", opts.Date)
		}
		return withFiles(argv, files), nil
	}
	return nil, fmt.Errorf("%w: cvs %s", ErrUnsupportedOperation, op)
}
