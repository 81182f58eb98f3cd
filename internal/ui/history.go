package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wrap"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/theme"
)

// HistoryModel lists revisions with a detail pane for the selected one.
// Typing after "/" narrows the list by revision, author and comment.
type HistoryModel struct {
	title string
	thm   *theme.Theme

	records  []models.HistoryRecord
	filtered []models.HistoryRecord

	table        table.Model
	filterInput  textinput.Model
	filterActive bool
	detail       viewport.Model

	width    int
	height   int
	quitting bool
}

// NewHistoryModel builds a history browser over records.
func NewHistoryModel(title string, records []models.HistoryRecord, thm *theme.Theme) *HistoryModel {
	if thm == nil {
		thm = theme.Dracula()
	}
	if title == "" {
		title = "History"
	}

	t := table.New(
		table.WithColumns(historyColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(thm))

	m := &HistoryModel{
		title:       title,
		thm:         thm,
		records:     records,
		table:       t,
		filterInput: newFilterInput(thm, "Filter revision, author, comment..."),
		detail:      viewport.New(76, 6),
		width:       80,
		height:      24,
	}
	m.applyFilter()
	return m
}

func historyColumns(width int) []table.Column {
	commentWidth := maxInt(20, width-12-20-16-8)
	return []table.Column{
		{Title: "Revision", Width: 12},
		{Title: "Date", Width: 20},
		{Title: "Author", Width: 16},
		{Title: "Comment", Width: commentWidth},
	}
}

// Init implements tea.Model.
func (m *HistoryModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		tableHeight := maxInt(3, (m.height-8)*2/3)
		m.table.SetColumns(historyColumns(m.width - 4))
		m.table.SetHeight(tableHeight)
		m.table.SetWidth(m.width - 4)
		m.detail.Width = maxInt(10, m.width-6)
		m.detail.Height = maxInt(3, m.height-8-tableHeight)
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *HistoryModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
	case "ctrl+d", "pgdown":
		m.detail.HalfPageDown()
		return m, nil
	case "ctrl+u", "pgup":
		m.detail.HalfPageUp()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.refreshDetail()
	return m, cmd
}

func (m *HistoryModel) applyFilter() {
	m.filtered = FilterHistory(m.records, m.filterInput.Value())
	rows := make([]table.Row, 0, len(m.filtered))
	for _, r := range m.filtered {
		rows = append(rows, table.Row{r.Revision, r.Date, r.Author, firstLine(r.Comment)})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(maxInt(0, len(rows)-1))
	}
	m.refreshDetail()
}

func (m *HistoryModel) refreshDetail() {
	r, ok := m.Selected()
	if !ok {
		m.detail.SetContent("")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s", r.Revision, r.Author, r.Date)
	if r.State != "" {
		fmt.Fprintf(&b, "  [%s]", r.State)
	}
	if r.Path != "" {
		fmt.Fprintf(&b, "\n%s", r.Path)
	}
	b.WriteString("\n\n")
	b.WriteString(r.Comment)
	m.detail.SetContent(wrap.String(b.String(), maxInt(10, m.detail.Width)))
	m.detail.GotoTop()
}

// Selected returns the record under the cursor.
func (m *HistoryModel) Selected() (models.HistoryRecord, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.filtered) {
		return models.HistoryRecord{}, false
	}
	return m.filtered[idx], true
}

// Records returns the records passing the current filter.
func (m *HistoryModel) Records() []models.HistoryRecord {
	return m.filtered
}

// Quitting reports whether the user asked to leave.
func (m *HistoryModel) Quitting() bool {
	return m.quitting
}

// View implements tea.Model.
func (m *HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle(m.thm).Render(ansi.Truncate(m.title, maxInt(10, m.width-20), "…")) +
		mutedStyle(m.thm).Render(fmt.Sprintf("  %d/%d revisions", len(m.filtered), len(m.records)))

	var list string
	if len(m.filtered) == 0 {
		list = mutedStyle(m.thm).Render("No revisions match.")
	} else {
		list = m.table.View()
	}

	pane := paneStyle(m.thm).Width(maxInt(20, m.width-2))
	footer := mutedStyle(m.thm).Render("/ filter  ctrl+d/ctrl+u scroll  q quit")
	if m.filterActive || m.filterInput.Value() != "" {
		footer = m.filterInput.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		pane.Render(list),
		pane.Render(m.detail.View()),
		footer,
	)
}
