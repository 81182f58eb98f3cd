package vcs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

// writeTool writes an executable shell script standing in for a
// version-control tool and returns its path.
func writeTool(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	path := filepath.Join(t.TempDir(), name)
	// #nosec G306 -- test script must be executable
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// toolRunner returns a Runner whose backend spawns the script at command.
func toolRunner(t *testing.T, kind models.BackendKind, command string, opts ...RunnerOption) *Runner {
	t.Helper()
	backend, err := NewBackend(kind, Options{Command: command, RootOption: true})
	require.NoError(t, err)
	return NewRunner(backend, opts...)
}

// writeFile creates path with content, making parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
