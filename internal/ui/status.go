package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/theme"
)

// StatusLoader produces the records shown by the status browser.
type StatusLoader func(ctx context.Context) (map[string]models.StatusRecord, error)

type statusLoadedMsg struct {
	records map[string]models.StatusRecord
	err     error
}

type changesMsg struct {
	paths []string
}

// StatusOptions configures a StatusModel.
type StatusOptions struct {
	Title     string
	Base      string // paths are shown relative to it when set
	ShowIcons bool
	Theme     *theme.Theme
	// Changes, when set, triggers a reload for every batch received.
	Changes <-chan []string
}

// StatusModel is a filterable table of status records.
type StatusModel struct {
	ctx  context.Context
	load StatusLoader
	opts StatusOptions
	thm  *theme.Theme

	records  []models.StatusRecord
	filtered []models.StatusRecord

	table        table.Model
	filterInput  textinput.Model
	filterActive bool

	loading  bool
	err      error
	width    int
	height   int
	quitting bool
}

// NewStatusModel builds the browser; records load on Init.
func NewStatusModel(ctx context.Context, load StatusLoader, opts StatusOptions) *StatusModel {
	thm := opts.Theme
	if thm == nil {
		thm = theme.Dracula()
	}
	if opts.Title == "" {
		opts.Title = "Status"
	}

	t := table.New(
		table.WithColumns(statusColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(thm))

	return &StatusModel{
		ctx:         ctx,
		load:        load,
		opts:        opts,
		thm:         thm,
		table:       t,
		filterInput: newFilterInput(thm, "Filter paths..."),
		loading:     true,
		width:       80,
		height:      24,
	}
}

func statusColumns(width int) []table.Column {
	pathWidth := maxInt(20, width-34)
	return []table.Column{
		{Title: "Path", Width: pathWidth},
		{Title: "Status", Width: 10},
		{Title: "Revision", Width: 12},
	}
}

// Init starts the first load and, when configured, waits for changes.
func (m *StatusModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitForChanges())
}

func (m *StatusModel) loadCmd() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		records, err := load(ctx)
		return statusLoadedMsg{records: records, err: err}
	}
}

func (m *StatusModel) waitForChanges() tea.Cmd {
	if m.opts.Changes == nil {
		return nil
	}
	ch := m.opts.Changes
	return func() tea.Msg {
		paths, ok := <-ch
		if !ok {
			return nil
		}
		return changesMsg{paths: paths}
	}
}

// Update implements tea.Model.
func (m *StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(statusColumns(m.width - 4))
		m.table.SetHeight(maxInt(3, m.height-8))
		m.table.SetWidth(m.width - 4)
		return m, nil

	case statusLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.records = SortedStatus(msg.records)
		m.applyFilter()
		return m, nil

	case changesMsg:
		m.loading = true
		return m, tea.Batch(m.loadCmd(), m.waitForChanges())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *StatusModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterActive {
		switch msg.String() {
		case "esc":
			m.filterActive = false
			m.filterInput.Blur()
			m.filterInput.SetValue("")
			m.applyFilter()
			return m, nil
		case "enter":
			m.filterActive = false
			m.filterInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "/", "f":
		m.filterActive = true
		return m, m.filterInput.Focus()
	case "r":
		m.loading = true
		return m, m.loadCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *StatusModel) applyFilter() {
	m.filtered = FilterStatus(m.records, m.filterInput.Value())
	rows := make([]table.Row, 0, len(m.filtered))
	for _, r := range m.filtered {
		rows = append(rows, table.Row{m.displayPath(r.Path), string(r.Status), r.Revision})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(maxInt(0, len(rows)-1))
	}
}

func (m *StatusModel) displayPath(p string) string {
	shown := p
	if m.opts.Base != "" {
		if rel, err := filepath.Rel(m.opts.Base, p); err == nil && !strings.HasPrefix(rel, "..") {
			shown = rel
		}
	}
	if m.opts.ShowIcons {
		shown = iconWithSpace(deviconForName(filepath.Base(p), false)) + shown
	}
	return shown
}

// Selected returns the record under the cursor.
func (m *StatusModel) Selected() (models.StatusRecord, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.filtered) {
		return models.StatusRecord{}, false
	}
	return m.filtered[idx], true
}

// Records returns the records currently shown.
func (m *StatusModel) Records() []models.StatusRecord {
	return m.filtered
}

// Err returns the last load error.
func (m *StatusModel) Err() error {
	return m.err
}

// Quitting reports whether the user asked to leave.
func (m *StatusModel) Quitting() bool {
	return m.quitting
}

func (m *StatusModel) summary() string {
	counts := map[models.StatusKind]int{}
	for _, r := range m.records {
		counts[r.Status]++
	}
	kinds := []models.StatusKind{
		models.StatusModified, models.StatusAdded, models.StatusDeleted,
		models.StatusConflict, models.StatusUpToDate,
	}
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		if counts[kind] == 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(m.thm.StatusColor(kind))
		parts = append(parts, style.Render(fmt.Sprintf("%d %s", counts[kind], kind)))
	}
	if len(parts) == 0 {
		return mutedStyle(m.thm).Render("clean")
	}
	return strings.Join(parts, "  ")
}

// View implements tea.Model.
func (m *StatusModel) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle(m.thm).Render(m.opts.Title)
	if m.loading {
		header += mutedStyle(m.thm).Render("  loading...")
	}

	var body string
	switch {
	case m.err != nil:
		body = lipgloss.NewStyle().Foreground(m.thm.ErrorFg).Render(ansi.Truncate(m.err.Error(), maxInt(10, m.width-6), "…"))
	case len(m.filtered) == 0 && !m.loading:
		body = mutedStyle(m.thm).Render("No changes.")
	default:
		body = m.table.View()
	}

	footer := m.summary()
	if m.filterActive || m.filterInput.Value() != "" {
		footer = m.filterInput.View() + "  " + footer
	} else {
		footer += mutedStyle(m.thm).Render("  / filter  r refresh  q quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		paneStyle(m.thm).Width(maxInt(20, m.width-2)).Render(body),
		footer,
	)
}
