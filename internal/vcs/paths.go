package vcs

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

// PartitionOptions controls how directories are expanded into file lists.
type PartitionOptions struct {
	// ForceFileList enumerates directory contents instead of handing the
	// directory to the tool as a whole.
	ForceFileList bool
	PathType      models.PathType
	// TopDown lists a directory's entries before those of its
	// subdirectories. When false the walk is post-order.
	TopDown bool
}

// PartitionPaths groups paths into working directories and relative file
// lists. Failures for individual paths are joined into the returned error;
// groups for the remaining paths are still returned.
func (r *Runner) PartitionPaths(paths []string, opts PartitionOptions) ([]models.PathGroup, error) {
	return partitionPaths(r.fs, r.backend, paths, opts)
}

func partitionPaths(fs billy.Filesystem, backend Backend, paths []string, opts PartitionOptions) ([]models.PathGroup, error) {
	groups := make([]models.PathGroup, 0, len(paths))
	var errs []error

	for _, p := range paths {
		group, err := partitionOne(fs, backend, absPath(p), opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		groups = append(groups, group)
	}

	return groups, errors.Join(errs...)
}

func partitionOne(fs billy.Filesystem, backend Backend, p string, opts PartitionOptions) (models.PathGroup, error) {
	info, err := fs.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.PathGroup{}, &PathError{Path: p, Err: ErrPathNotFound}
		}
		return models.PathGroup{}, &PathError{Path: p, Err: err}
	}

	if !info.IsDir() {
		return models.PathGroup{
			Root:  filepath.Dir(p),
			Files: FilterPaths([]string{filepath.Base(p)}, backend.Filters()),
		}, nil
	}

	if !opts.ForceFileList {
		return models.PathGroup{Root: p, Files: []string{}}, nil
	}

	walked, err := walkDir(fs, p, opts)
	if err != nil {
		return models.PathGroup{}, &PathError{Path: p, Err: err}
	}

	// The directory itself can only be named from its parent, so a
	// controlled parent becomes the working directory.
	parent := filepath.Dir(p)
	if opts.PathType != models.PathFile && parent != p && backend.IsControlled(parent) {
		base := filepath.Base(p)
		files := make([]string, 0, len(walked)+1)
		files = append(files, base)
		for _, rel := range walked {
			files = append(files, filepath.Join(base, rel))
		}
		return models.PathGroup{Root: parent, Files: FilterPaths(files, backend.Filters())}, nil
	}

	return models.PathGroup{Root: p, Files: FilterPaths(walked, backend.Filters())}, nil
}

// walkDir lists the entries below root relative to it. Each directory
// contributes its subdirectories then its files, before (TopDown) or after
// its descendants.
func walkDir(fs billy.Filesystem, root string, opts PartitionOptions) ([]string, error) {
	var out []string

	var walk func(rel string) error
	walk = func(rel string) error {
		entries, err := fs.ReadDir(filepath.Join(root, rel))
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		var dirs, files []string
		for _, entry := range entries {
			name := filepath.Join(rel, entry.Name())
			if entry.IsDir() {
				dirs = append(dirs, name)
			} else {
				files = append(files, name)
			}
		}

		emit := func() {
			if opts.PathType != models.PathFile {
				out = append(out, dirs...)
			}
			if opts.PathType != models.PathDirectory {
				out = append(out, files...)
			}
		}

		if opts.TopDown {
			emit()
		}
		for _, dir := range dirs {
			if err := walk(dir); err != nil {
				return err
			}
		}
		if !opts.TopDown {
			emit()
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterPaths drops entries ending in a carriage return and entries matching
// any exclusion glob. A glob matches the whole relative path, its base name
// or any single path component, case-sensitively.
func FilterPaths(paths []string, filters []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasSuffix(p, "\r") {
			continue
		}
		if excluded(p, filters) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func excluded(p string, filters []string) bool {
	slashed := filepath.ToSlash(p)
	components := strings.Split(slashed, "/")
	for _, pattern := range filters {
		if ok, _ := path.Match(pattern, slashed); ok {
			return true
		}
		for _, c := range components {
			if ok, _ := path.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}
