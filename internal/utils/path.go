// Package utils holds small helpers shared by the CLI and config layers.
package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading ~ and environment variables in path.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return os.ExpandEnv(path), nil
}

// AbsPaths expands and absolutizes every entry, keeping order.
func AbsPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded, err := ExpandPath(p)
		if err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}
