package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
)

func TestParseStatusCVSScenario(t *testing.T) {
	lines := []string{
		"File: foo.py   Status: Locally Modified\n",
		"   Working revision: 1.3\n",
		"   Repository revision: 1.4\n",
		"   Sticky Tag: (none)\n",
	}

	got := ParseStatus(models.BackendCVS, lines, false)
	assert.Equal(t, map[string]models.StatusRecord{
		"foo.py": {Path: "foo.py", Status: models.StatusModified, Revision: "1.3", RRevision: "1.4"},
	}, got)
	assert.Empty(t, got["foo.py"].Tag)
}

func TestParseStatusCVS(t *testing.T) {
	lines := []string{
		"cvs server: Examining .",
		"===================================================================",
		"File: top.c            Status: Up-to-date",
		"",
		"   Working revision:    1.1     Mon Jan  1 00:00:00 2007",
		"   Repository revision: 1.1     /cvsroot/proj/top.c,v",
		"   Sticky Tag:          REL_1",
		"   Sticky Date:         (none)",
		"   Sticky Options:      -kb",
		"",
		"cvs server: Examining lib",
		"File: util.c           Status: Locally Added",
		"   Working revision:    New file!",
		"File: no file gone.c   Status: Locally Removed",
		"   Working revision:    -1.2",
		"File: merge.c          Status: Needs Merge",
		"File: broken.c         Status: Unresolved Conflict",
		"File: stale.c          Status: Needs Patch",
		"   Working revision:    1.7",
		"   Sticky Tag:          BRANCH",
		"File: new.c            Status: Locally Modified",
	}

	got := ParseStatus(models.BackendCVS, lines, true)

	assert.Equal(t, models.StatusRecord{
		Path: "top.c", Status: models.StatusUpToDate,
		Revision: "1.1", RRevision: "1.1", Tag: "REL_1", Options: "-kb",
	}, got["top.c"])
	assert.Equal(t, models.StatusRecord{Path: "lib/util.c", Status: models.StatusAdded, Revision: "New"}, got["lib/util.c"])
	assert.Equal(t, models.StatusDeleted, got["lib/gone.c"].Status)
	assert.Equal(t, models.StatusConflict, got["lib/merge.c"].Status)
	assert.Equal(t, models.StatusConflict, got["lib/broken.c"].Status)
	assert.Equal(t, models.StatusModified, got["lib/new.c"].Status)
	assert.Empty(t, got["lib/new.c"].Tag, "metadata of a skipped file must not leak into the next one")

	_, ok := got["lib/stale.c"]
	assert.False(t, ok, "unmapped status is skipped")
	assert.Len(t, got, 6)
}

func TestParseStatusSVNScenario(t *testing.T) {
	got := ParseStatus(models.BackendSVN, []string{"M       src/app.py\n"}, false)
	assert.Equal(t, map[string]models.StatusRecord{
		"src/app.py": {Path: "src/app.py", Status: models.StatusModified},
	}, got)
}

func TestParseStatusSVNCodes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want models.StatusKind
		ok   bool
	}{
		{name: "modified", line: "M       a.txt", want: models.StatusModified, ok: true},
		{name: "space is up to date", line: "        a.txt", want: models.StatusUpToDate, ok: true},
		{name: "added", line: "A       a.txt", want: models.StatusAdded, ok: true},
		{name: "conflict", line: "C       a.txt", want: models.StatusConflict, ok: true},
		{name: "deleted", line: "D       a.txt", want: models.StatusDeleted, ok: true},
		{name: "unversioned skipped", line: "?       a.txt", ok: false},
		{name: "unknown code skipped", line: "Z       a.txt", ok: false},
		{name: "short line skipped", line: "M", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStatus(models.BackendSVN, []string{tt.line}, false)
			if !tt.ok {
				assert.Empty(t, got)
				return
			}
			require.Contains(t, got, "a.txt")
			assert.Equal(t, tt.want, got["a.txt"].Status)
		})
	}
}

func TestParseStatusSVNVerbose(t *testing.T) {
	lines := []string{
		"M               12       10 alice        src/app.py",
		"                12        3 bob          docs/read me.txt",
		"A                -        ? ?            new.go",
		"?                                        scratch.txt",
	}

	got := ParseStatus(models.BackendSVN, lines, true)
	assert.Equal(t, models.StatusRecord{Path: "src/app.py", Status: models.StatusModified, Revision: "12"}, got["src/app.py"])
	assert.Equal(t, models.StatusRecord{Path: "docs/read me.txt", Status: models.StatusUpToDate, Revision: "12"}, got["docs/read me.txt"])
	assert.Equal(t, models.StatusRecord{Path: "new.go", Status: models.StatusAdded}, got["new.go"])
	assert.Len(t, got, 3)
}

func TestParseStatusGit(t *testing.T) {
	lines := []string{
		" M app.go",
		"M  staged.go",
		"A  added.go",
		" D removed.go",
		"R  old.go -> renamed.go",
		"UU both.go",
		"?? untracked.go",
		"!! ignored.go",
		`A  "with space.go"`,
	}

	got := ParseStatus(models.BackendGit, lines, false)
	assert.Equal(t, models.StatusModified, got["app.go"].Status)
	assert.Equal(t, models.StatusModified, got["staged.go"].Status)
	assert.Equal(t, models.StatusAdded, got["added.go"].Status)
	assert.Equal(t, models.StatusDeleted, got["removed.go"].Status)
	assert.Equal(t, models.StatusAdded, got["renamed.go"].Status)
	assert.Equal(t, models.StatusConflict, got["both.go"].Status)
	assert.Equal(t, models.StatusAdded, got["with space.go"].Status)
	assert.NotContains(t, got, "untracked.go")
	assert.NotContains(t, got, "ignored.go")
	assert.NotContains(t, got, "old.go")
}

func TestParseStatusIsDeterministic(t *testing.T) {
	inputs := map[models.BackendKind][]string{
		models.BackendCVS: {
			"cvs server: Examining sub",
			"File: a.c   Status: Locally Modified",
			"   Working revision: 1.2",
			"File: b.c   Status: Up-to-date",
			"   Sticky Options: (none)",
		},
		models.BackendSVN: {"M       a.c", "        b.c", "C       c.c"},
		models.BackendGit: {" M a.c", "A  b.c"},
	}

	for kind, lines := range inputs {
		t.Run(string(kind), func(t *testing.T) {
			first := ParseStatus(kind, lines, false)
			second := ParseStatus(kind, lines, false)
			assert.Equal(t, first, second)
			assert.NotEmpty(t, first)
		})
	}
}

func TestParseStatusUnknownBackend(t *testing.T) {
	assert.Empty(t, ParseStatus("darcs", []string{"M a"}, false))
}

func TestParseHistoryCVS(t *testing.T) {
	lines := []string{
		"",
		"RCS file: /cvsroot/proj/main.c,v",
		"Working file: main.c",
		"head: 1.3",
		"description:",
		"----------------------------",
		"revision 1.3",
		"date: 2007/05/01 10:00:00;  author: alice;  state: Exp;  lines: +2 -1",
		"fix the parser",
		"and its tests",
		"----------------------------",
		"revision 1.2",
		"date: 2007/04/01 09:00:00;  author: bob;  state: Exp;  lines: +1 -0",
		"branches:  1.2.2;",
		"add option",
		"----------------------------",
		"garbage line",
		"date: 2007/03/01 09:00:00;  author: bob;  state: Exp;",
		"lost",
		"----------------------------",
		"revision 1.1",
		"date: 2007/03/01 08:00:00;  author: carol;  state: dead;",
		"initial",
		"=============================================================================",
	}

	got, err := ParseHistory(models.BackendCVS, lines)
	require.NoError(t, err)
	assert.Equal(t, []models.HistoryRecord{
		{Path: "main.c", Revision: "1.3", Date: "2007/05/01 10:00:00", Author: "alice", State: "Exp", Comment: "fix the parser\nand its tests"},
		{Path: "main.c", Revision: "1.2", Date: "2007/04/01 09:00:00", Author: "bob", State: "Exp", Comment: "add option"},
		{Path: "main.c", Revision: "1.1", Date: "2007/03/01 08:00:00", Author: "carol", State: "dead", Comment: "initial"},
	}, got)
}

func TestParseHistoryGit(t *testing.T) {
	lines := []string{
		"commit 3f2a9c1d5e6b7a8c9d0e1f2a3b4c5d6e7f8a9b0c",
		"Author: Alice <alice@example.com>",
		"Date:   Tue May 1 10:00:00 2007 +0200",
		"",
		"    Fix the parser",
		"",
		"    Details here.",
		"",
		"commit 1111111111111111111111111111111111111111",
		"Merge: aaaaaaa bbbbbbb",
		"Author: Bob <bob@example.com>",
		"Date:   Mon Apr 30 09:00:00 2007 +0200",
		"",
		"    Merge branch 'x'",
	}

	got, err := ParseHistory(models.BackendGit, lines)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3f2a9c1d5e6b7a8c9d0e1f2a3b4c5d6e7f8a9b0c", got[0].Revision)
	assert.Equal(t, "Alice <alice@example.com>", got[0].Author)
	assert.Equal(t, "Tue May 1 10:00:00 2007 +0200", got[0].Date)
	assert.Equal(t, "Fix the parser\n\nDetails here.", got[0].Comment)
	assert.Equal(t, "Merge branch 'x'", got[1].Comment)
}

func TestParseHistorySVNIsUnsupported(t *testing.T) {
	got, err := ParseHistory(models.BackendSVN, []string{"r1 | alice | 2007-05-01 | 1 line"})
	require.ErrorIs(t, err, ErrHistoryUnsupported)
	assert.Nil(t, got)
}
