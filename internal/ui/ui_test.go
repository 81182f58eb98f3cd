package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/theme"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(runes(string(r)))
	}
	return m
}

var sampleHistory = []models.HistoryRecord{
	{Revision: "1.3", Author: "alice", Date: "2007/05/01", Comment: "fix the parser\nand its tests"},
	{Revision: "1.2", Author: "bob", Date: "2007/04/01", Comment: "add option"},
	{Revision: "1.1", Author: "carol", Date: "2007/03/01", Comment: "initial import"},
}

func TestFilterHistory(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query keeps all", query: "  ", want: []string{"1.3", "1.2", "1.1"}},
		{name: "author", query: "BOB", want: []string{"1.2"}},
		{name: "revision", query: "1.1", want: []string{"1.1"}},
		{name: "comment body", query: "tests", want: []string{"1.3"}},
		{name: "all terms must match", query: "alice option", want: []string{}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterHistory(sampleHistory, tt.query)
			revs := make([]string, 0, len(got))
			for _, r := range got {
				revs = append(revs, r.Revision)
			}
			assert.Equal(t, tt.want, revs)
		})
	}
}

func TestFilterAndSortStatus(t *testing.T) {
	sorted := SortedStatus(map[string]models.StatusRecord{
		"/wc/b.c":     {Path: "/wc/b.c", Status: models.StatusAdded},
		"/wc/a.c":     {Path: "/wc/a.c", Status: models.StatusModified},
		"/wc/lib/x.h": {Path: "/wc/lib/x.h", Status: models.StatusConflict},
	})
	require.Len(t, sorted, 3)
	assert.Equal(t, "/wc/a.c", sorted[0].Path)
	assert.Equal(t, "/wc/lib/x.h", sorted[2].Path)

	assert.Len(t, FilterStatus(sorted, "LIB"), 1)
	assert.Len(t, FilterStatus(sorted, ""), 3)
}

func TestHistoryModelFilter(t *testing.T) {
	m := NewHistoryModel("main.c", sampleHistory, theme.Nord())
	selected, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "1.3", selected.Revision)

	var model tea.Model = m
	model, _ = model.Update(runes("/"))
	model = typeText(model, "carol")
	h := model.(*HistoryModel)
	require.Len(t, h.Records(), 1)
	assert.Equal(t, "1.1", h.Records()[0].Revision)
	assert.Contains(t, h.detail.View(), "initial import")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	h = model.(*HistoryModel)
	assert.Len(t, h.Records(), 3)
	assert.False(t, h.Quitting())

	_, cmd := model.Update(runes("q"))
	assert.True(t, h.Quitting())
	require.NotNil(t, cmd)
}

func TestHistoryModelNavigationUpdatesDetail(t *testing.T) {
	var model tea.Model = NewHistoryModel("", sampleHistory, nil)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})

	h := model.(*HistoryModel)
	selected, ok := h.Selected()
	require.True(t, ok)
	assert.Equal(t, "1.2", selected.Revision)
	assert.Contains(t, h.detail.View(), "add option")

	view := h.View()
	assert.Contains(t, view, "History")
	assert.Contains(t, view, "3/3 revisions")
}

func TestHistoryModelEmpty(t *testing.T) {
	m := NewHistoryModel("x", nil, nil)
	_, ok := m.Selected()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "No revisions match.")
}

func TestStatusModelLoadsAndFilters(t *testing.T) {
	records := map[string]models.StatusRecord{
		"/wc/a.c":   {Path: "/wc/a.c", Status: models.StatusModified, Revision: "1.2"},
		"/wc/b.txt": {Path: "/wc/b.txt", Status: models.StatusAdded},
	}
	m := NewStatusModel(context.Background(), func(context.Context) (map[string]models.StatusRecord, error) {
		return records, nil
	}, StatusOptions{Base: "/wc"})

	cmd := m.Init()
	require.NotNil(t, cmd)

	var model tea.Model = m
	model, _ = model.Update(statusLoadedMsg{records: records})
	s := model.(*StatusModel)
	require.Len(t, s.Records(), 2)
	assert.Contains(t, s.View(), "a.c")
	assert.Contains(t, s.View(), "1 modified")

	model, _ = model.Update(runes("/"))
	model = typeText(model, "txt")
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	s = model.(*StatusModel)
	require.Len(t, s.Records(), 1)
	selected, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, models.StatusAdded, selected.Status)
}

func TestStatusModelShowsError(t *testing.T) {
	m := NewStatusModel(context.Background(), nil, StatusOptions{Title: "wc"})
	model, _ := m.Update(statusLoadedMsg{err: errors.New("svn: not a working copy")})
	s := model.(*StatusModel)
	require.Error(t, s.Err())
	assert.Contains(t, s.View(), "not a working copy")
}

func TestStatusModelReloadsOnChanges(t *testing.T) {
	changes := make(chan []string, 1)
	calls := 0
	m := NewStatusModel(context.Background(), func(context.Context) (map[string]models.StatusRecord, error) {
		calls++
		return nil, nil
	}, StatusOptions{Changes: changes})

	_, cmd := m.Update(changesMsg{paths: []string{"/wc/a.c"}})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	msg := m.loadCmd()()
	_, ok := msg.(statusLoadedMsg)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)

	changes <- []string{"/wc/b.c"}
	got := m.waitForChanges()()
	assert.Equal(t, changesMsg{paths: []string{"/wc/b.c"}}, got)

	close(changes)
	assert.Nil(t, m.waitForChanges()())
}

func TestStatusModelIcons(t *testing.T) {
	m := NewStatusModel(context.Background(), nil, StatusOptions{ShowIcons: true})
	shown := m.displayPath("/wc/main.go")
	assert.True(t, strings.HasSuffix(shown, "/wc/main.go"))
	assert.NotEqual(t, "/wc/main.go", shown)
}

func TestStatusModelTeatest(t *testing.T) {
	m := NewStatusModel(context.Background(), func(context.Context) (map[string]models.StatusRecord, error) {
		return map[string]models.StatusRecord{
			"/wc/a.c": {Path: "/wc/a.c", Status: models.StatusConflict},
		}, nil
	}, StatusOptions{Title: "working copy"})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "1 conflict")
	}, teatest.WithDuration(2*time.Second))
	tm.Send(runes("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final, ok := tm.FinalModel(t).(*StatusModel)
	require.True(t, ok)
	assert.True(t, final.Quitting())
	assert.Len(t, final.Records(), 1)
}
