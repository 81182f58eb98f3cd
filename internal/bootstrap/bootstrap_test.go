package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/ui"
)

const fakeCVS = `#!/bin/sh
if [ "$1" = "-d" ]; then shift 2; fi
case "$1" in
--version)
	echo "Concurrent Versions System (CVS) 1.12.13 (client/server)"
	;;
status)
	echo "File: a.txt            	Status: Locally Modified"
	echo "   Working revision:	1.4"
	;;
update)
	if [ "$2" = "-p" ]; then
		if [ "$3" = "-r" ]; then echo "content at $4"; else echo "pristine"; fi
	else
		echo "U a.txt"
	fi
	;;
log)
	echo "Working file: a.txt"
	echo "----------------------------"
	echo "revision 1.4"
	echo "date: 2024/01/02 03:04:05;  author: dev;  state: Exp;"
	echo "tune it"
	echo "============================================================================="
	;;
*)
	echo "$@"
	;;
esac
`

type fixture struct {
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
	tool   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "CVS"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CVS", "Root"), []byte(":pserver:anon@cvs.example.org:/cvsroot\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("local edit\n"), 0o600))

	tool := filepath.Join(t.TempDir(), "cvs")
	// #nosec G306 -- test script must be executable
	require.NoError(t, os.WriteFile(tool, []byte(fakeCVS), 0o755))

	f := &fixture{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, dir: dir, tool: tool}
	f.app = &App{
		Stdout:     f.stdout,
		Stderr:     f.stderr,
		IsTerminal: func() bool { return false },
		PromptMessage: func([]string) (string, error) {
			return "", errors.New("unexpected prompt")
		},
		ConfirmRevert: func([]string) (bool, error) {
			return false, errors.New("unexpected confirmation")
		},
		RunProgram: func(tea.Model) error { return errors.New("unexpected program") },
	}
	return f
}

func (f *fixture) run(args ...string) error {
	full := append([]string{"scm", "--quiet", "--config", "scm.cvs_path=" + f.tool}, args...)
	return f.app.Run(context.Background(), full)
}

func TestStatusPrintsTable(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run("status", f.dir))
	out := f.stdout.String()
	assert.Contains(t, out, "modified")
	assert.Contains(t, out, "1.4")
	assert.Contains(t, out, filepath.Join(f.dir, "a.txt"))
	assert.Empty(t, f.stderr.String())
}

func TestStatusJSON(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run("status", "--json", f.dir))
	var records []models.StatusRecord
	require.NoError(t, json.Unmarshal(f.stdout.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusModified, records[0].Status)
	assert.Equal(t, filepath.Join(f.dir, "a.txt"), records[0].Path)
}

func TestStatusEchoesCommandsUnlessQuiet(t *testing.T) {
	f := newFixture(t)

	err := f.app.Run(context.Background(), []string{"scm", "--config", "scm.cvs_path=" + f.tool, "status", f.dir})
	require.NoError(t, err)
	assert.Contains(t, f.stderr.String(), f.tool+" -d :pserver:anon@cvs.example.org:/cvsroot status -l")
}

func TestStatusUncontrolledPath(t *testing.T) {
	f := newFixture(t)
	plain := t.TempDir()

	err := f.run("status", plain, f.dir)
	require.Error(t, err)
	assert.Contains(t, f.stdout.String(), "a.txt")
}

func TestStatusInteractiveRequiresTerminal(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.run("status", "--interactive", f.dir), errNoTerminal)

	f.app.IsTerminal = func() bool { return true }
	var shown tea.Model
	f.app.RunProgram = func(m tea.Model) error {
		shown = m
		return nil
	}
	require.NoError(t, f.run("status", "-i", f.dir))
	_, ok := shown.(*ui.StatusModel)
	assert.True(t, ok)
}

func TestHistoryPrintsAndFilters(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run("log", filepath.Join(f.dir, "a.txt")))
	assert.Contains(t, f.stdout.String(), "1.4  dev  2024/01/02 03:04:05  [Exp]")
	assert.Contains(t, f.stdout.String(), "    tune it")

	f.stdout.Reset()
	require.NoError(t, f.run("history", "--json", "--filter", "nomatch", filepath.Join(f.dir, "a.txt")))
	assert.JSONEq(t, "[]", f.stdout.String())
}

func TestHistoryInteractive(t *testing.T) {
	f := newFixture(t)
	f.app.IsTerminal = func() bool { return true }
	var shown *ui.HistoryModel
	f.app.RunProgram = func(m tea.Model) error {
		shown, _ = m.(*ui.HistoryModel)
		return nil
	}

	require.NoError(t, f.run("history", "--interactive", filepath.Join(f.dir, "a.txt")))
	require.NotNil(t, shown)
	assert.Len(t, shown.Records(), 1)
}

func TestCommitMessage(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(f.dir, "a.txt")

	require.Error(t, f.run("commit", file), "no message and no terminal")

	require.NoError(t, f.run("commit", "-m", "from flag", file))
	assert.Equal(t, "commit -R -m from flag a.txt\n", f.stdout.String())

	f.stdout.Reset()
	f.app.IsTerminal = func() bool { return true }
	f.app.PromptMessage = func([]string) (string, error) { return "from prompt", nil }
	require.NoError(t, f.run("commit", file))
	assert.Equal(t, "commit -R -m from prompt a.txt\n", f.stdout.String())
}

func TestRevertConfirmation(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(f.dir, "a.txt")

	require.Error(t, f.run("revert", file))

	f.app.IsTerminal = func() bool { return true }
	f.app.ConfirmRevert = func([]string) (bool, error) { return false, nil }
	require.NoError(t, f.run("revert", file))
	assert.Contains(t, f.stderr.String(), "revert cancelled")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "local edit\n", string(data))

	require.NoError(t, f.run("revert", "--yes", file))
	data, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "pristine\n", string(data))
	assert.Contains(t, f.stdout.String(), "reverted "+file)
}

func TestFetchAndCompare(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(f.dir, "a.txt")

	require.NoError(t, f.run("cat", "-r", "1.2", file))
	assert.Equal(t, "content at 1.2\n", f.stdout.String())

	f.stdout.Reset()
	require.NoError(t, f.run("compare", file))
	out := f.stdout.String()
	assert.Contains(t, out, "-pristine")
	assert.Contains(t, out, "+local edit")
}

func TestPassThroughCommandsNeedPaths(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"add", "remove", "update", "commit", "revert", "fetch", "compare", "checkout"} {
		err := f.run(name)
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "at least one", name)
	}
}

func TestUpdateStreamsToolOutput(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("update", filepath.Join(f.dir, "a.txt")))
	assert.Equal(t, "U a.txt\n", f.stdout.String())
}

func TestCheckoutNeedsBackend(t *testing.T) {
	f := newFixture(t)
	err := f.run("checkout", "module")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--backend")

	require.NoError(t, f.run("--backend", "cvs", "checkout", "--dir", f.dir, "module"))
	assert.Equal(t, "checkout module\n", f.stdout.String())
}

func TestDetectJSON(t *testing.T) {
	f := newFixture(t)
	plain := t.TempDir()

	err := f.run("detect", "--json", f.dir, plain)
	require.Error(t, err)

	var rows []detection
	require.NoError(t, json.Unmarshal(f.stdout.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, models.BackendCVS, rows[0].Backend)
	assert.Equal(t, ":pserver:anon@cvs.example.org:/cvsroot", rows[0].Repository)
	assert.NotEmpty(t, rows[1].Error)
}

func TestDoctor(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("--backend", "cvs", "doctor"))
	assert.Contains(t, f.stdout.String(), "1.12.13 ok")

	f.stdout.Reset()
	err := f.run("--backend", "svn", "--config", "scm.svn_path=scm-test-missing-svn", "doctor")
	require.Error(t, err)
	assert.Contains(t, f.stdout.String(), "missing")
}

func TestGlobalFlagValidation(t *testing.T) {
	f := newFixture(t)
	require.Error(t, f.run("--backend", "hg", "status"))
	require.Error(t, f.run("--theme", "nope", "status"))
	require.Error(t, f.run("--config", "other.key=1", "status"))
}

func TestVersionCommand(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("version"))
	assert.True(t, strings.HasPrefix(f.stdout.String(), "scm version "))
}

func TestGlobalFlagsListed(t *testing.T) {
	names := map[string]bool{}
	for _, flag := range globalFlags() {
		for _, n := range flag.Names() {
			names[n] = true
		}
	}
	for _, want := range []string{"backend", "b", "config-file", "config", "C", "debug-log", "timeout", "quiet"} {
		assert.True(t, names[want], want)
	}
}
