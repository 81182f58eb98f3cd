package vcs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

// fakeCVS answers the subcommands the service issues, after dropping the
// -d root option.
const fakeCVS = `if [ "$1" = "-d" ]; then shift 2; fi
case "$1" in
--version)
	echo "Concurrent Versions System (CVS) 1.12.13 (client/server)"
	;;
status)
	echo "==================================================================="
	echo "File: a.txt            	Status: Locally Modified"
	echo ""
	echo "   Working revision:	1.2"
	echo "   Repository revision:	1.2	/cvsroot/proj/a.txt,v"
	;;
update)
	shift
	if [ "$1" = "-p" ]; then
		shift
		if [ "$1" = "-r" ]; then
			echo "content at $2"
		else
			echo "pristine"
		fi
	else
		echo "U a.txt"
	fi
	;;
log)
	echo "Working file: a.txt"
	echo "----------------------------"
	echo "revision 1.2"
	echo "date: 2007/05/01 10:00:00;  author: alice;  state: Exp;  lines: +1 -1"
	echo "tweak"
	echo "============================================================================="
	;;
diff)
	echo "Index: a.txt"
	exit 1
	;;
*)
	echo "$@"
	;;
esac
`

type cvsFixture struct {
	dir     string
	service *Service
	mu      sync.Mutex
	output  []string
}

func (f *cvsFixture) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.output...)
}

func newCVSFixture(t *testing.T) *cvsFixture {
	t.Helper()
	f := &cvsFixture{dir: t.TempDir()}
	writeFile(t, filepath.Join(f.dir, "CVS", "Root"), ":pserver:anon@cvs.example.org:/cvsroot\n")
	writeFile(t, filepath.Join(f.dir, "a.txt"), "changed\n")

	tool := writeTool(t, "cvs", fakeCVS)
	backend, err := NewBackend(models.BackendCVS, Options{Command: tool, RootOption: true, Filters: []string{"CVS"}})
	require.NoError(t, err)
	f.service = NewService(NewRunner(backend), WithOutput(func(line Line) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.output = append(f.output, line.Text)
	}))
	return f
}

func TestServiceStatus(t *testing.T) {
	f := newCVSFixture(t)

	records, err := f.service.Status(context.Background(), []string{f.dir}, false)
	require.NoError(t, err)

	file := filepath.Join(f.dir, "a.txt")
	require.Contains(t, records, file)
	assert.Equal(t, models.StatusModified, records[file].Status)
	assert.Equal(t, file, records[file].Path)
}

func TestServiceStatusPartialFailure(t *testing.T) {
	f := newCVSFixture(t)
	missing := filepath.Join(f.dir, "missing.txt")

	records, err := f.service.Status(context.Background(), []string{missing, filepath.Join(f.dir, "a.txt")}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathNotFound)

	var batch *BatchError
	require.ErrorAs(t, err, &batch)
	assert.Len(t, batch.Errors, 1)
	assert.Contains(t, records, filepath.Join(f.dir, "a.txt"))
}

func TestServiceMissingTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")
	backend, err := NewBackend(models.BackendSVN, Options{Command: "scm-test-no-such-tool-xyz"})
	require.NoError(t, err)
	s := NewService(NewRunner(backend))

	records, err := s.Status(context.Background(), []string{dir}, true)
	assert.ErrorIs(t, err, ErrToolUnavailable)
	assert.Empty(t, records)
}

func TestServiceCommitStreamsOutput(t *testing.T) {
	f := newCVSFixture(t)

	err := f.service.Commit(context.Background(), []string{filepath.Join(f.dir, "a.txt")}, "fix bug")
	require.NoError(t, err)
	assert.Equal(t, []string{"commit -R -m fix bug a.txt"}, f.lines())
}

func TestServiceRejectsMultipleRepositories(t *testing.T) {
	f := newCVSFixture(t)
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "CVS", "Root"), ":pserver:anon@cvs.other.org:/cvs\n")
	writeFile(t, filepath.Join(other, "b.txt"), "b")

	err := f.service.Update(context.Background(), []string{filepath.Join(f.dir, "a.txt"), filepath.Join(other, "b.txt")})
	require.ErrorIs(t, err, ErrMultipleRepositories)
	assert.Empty(t, f.lines())

	relaxed := NewService(f.service.runner, WithSingleRepository(false))
	require.NoError(t, relaxed.Update(context.Background(), []string{filepath.Join(f.dir, "a.txt"), filepath.Join(other, "b.txt")}))
}

func TestServiceRevertRewritesFiles(t *testing.T) {
	f := newCVSFixture(t)
	file := filepath.Join(f.dir, "a.txt")

	require.NoError(t, f.service.Revert(context.Background(), []string{f.dir}))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "pristine\n", string(data))
	assert.Equal(t, []string{"reverted " + file}, f.lines())
}

func TestServiceFetch(t *testing.T) {
	f := newCVSFixture(t)
	file := filepath.Join(f.dir, "a.txt")

	contents, err := f.service.Fetch(context.Background(), []string{file, f.dir}, ArgvOptions{Revision: "1.1"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{file: []byte("content at 1.1\n")}, contents)
}

func TestServiceCompare(t *testing.T) {
	f := newCVSFixture(t)

	diff, err := f.service.Compare(context.Background(), filepath.Join(f.dir, "a.txt"), ArgvOptions{})
	require.NoError(t, err)
	assert.Contains(t, diff, "--- a/a.txt (repository)")
	assert.Contains(t, diff, "+++ b/a.txt (working)")
	assert.Contains(t, diff, "-pristine")
	assert.Contains(t, diff, "+changed")

	writeFile(t, filepath.Join(f.dir, "a.txt"), "pristine\n")
	diff, err = f.service.Compare(context.Background(), filepath.Join(f.dir, "a.txt"), ArgvOptions{})
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestServiceDiffAcceptsDifferencesExit(t *testing.T) {
	f := newCVSFixture(t)

	diff, err := f.service.Diff(context.Background(), []string{filepath.Join(f.dir, "a.txt")})
	require.NoError(t, err)
	assert.Equal(t, "Index: a.txt\n", diff)
}

func TestServiceHistoryCVS(t *testing.T) {
	f := newCVSFixture(t)

	history, err := f.service.History(context.Background(), []string{filepath.Join(f.dir, "a.txt")})
	require.NoError(t, err)
	assert.Equal(t, []models.HistoryRecord{{
		Path:     filepath.Join(f.dir, "a.txt"),
		Revision: "1.2",
		Date:     "2007/05/01 10:00:00",
		Author:   "alice",
		State:    "Exp",
		Comment:  "tweak",
	}}, history)
}

func TestServiceHistorySVNStreamsRawLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".svn"), 0o750))
	tool := writeTool(t, "svn", "echo 'r7 | dev | 2024-01-01 | 1 line'\necho 'msg'\n")
	backend, err := NewBackend(models.BackendSVN, Options{Command: tool})
	require.NoError(t, err)

	var raw []string
	s := NewService(NewRunner(backend), WithOutput(func(line Line) { raw = append(raw, line.Text) }))

	history, err := s.History(context.Background(), []string{dir})
	require.ErrorIs(t, err, ErrHistoryUnsupported)
	assert.Empty(t, history)
	assert.Equal(t, []string{"r7 | dev | 2024-01-01 | 1 line", "msg"}, raw)
}

func TestServiceStatusGitKeysFromRepositoryRoot(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "sub", "x.txt"), "x")

	tool := writeTool(t, "git", "echo ' M sub/x.txt'\necho '?? sub/new.txt'\n")
	backend, err := NewBackend(models.BackendGit, Options{Command: tool})
	require.NoError(t, err)
	s := NewService(NewRunner(backend))

	root, err := backend.Repository(dir)
	require.NoError(t, err)

	records, err := s.Status(context.Background(), []string{filepath.Join(dir, "sub")}, true)
	require.NoError(t, err)
	want := filepath.Join(root, "sub", "x.txt")
	assert.Equal(t, map[string]models.StatusRecord{
		want: {Path: want, Status: models.StatusModified},
	}, records)
}

func TestServiceCheckout(t *testing.T) {
	f := newCVSFixture(t)

	err := f.service.Checkout(context.Background(), filepath.Join(f.dir, "nope"), []string{"module"})
	require.ErrorIs(t, err, ErrPathNotFound)

	require.NoError(t, f.service.Checkout(context.Background(), f.dir, []string{"module"}))
	assert.Equal(t, []string{"checkout module"}, f.lines())
}

func TestServiceProbe(t *testing.T) {
	f := newCVSFixture(t)

	result, err := f.service.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.BackendCVS, result.Kind)
	assert.Equal(t, "1.12.13", result.Version.String())
	assert.True(t, result.Supported)
}

func TestServiceCanceledContext(t *testing.T) {
	f := newCVSFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.service.Add(ctx, []string{filepath.Join(f.dir, "a.txt")})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, strings.Contains(strings.Join(f.lines(), "\n"), "add"))
}

func TestParseToolVersion(t *testing.T) {
	v, err := parseToolVersion([]string{"git version 2.43.0"})
	require.NoError(t, err)
	assert.Equal(t, "2.43.0", v.String())

	v, err = parseToolVersion([]string{"", "1.14.2 (r1899510)"})
	require.NoError(t, err)
	assert.Equal(t, "1.14.2", v.String())

	_, err = parseToolVersion([]string{"no digits"})
	assert.Error(t, err)
}
