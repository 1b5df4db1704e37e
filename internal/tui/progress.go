package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const tickInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tickMsg time.Time

// Column is one table column. Cells wider than Width are cut with an ellipsis.
type Column struct {
	Header string
	Width  int
}

type tableRow struct {
	key   string
	cells []string
}

// InstallTable is the bubbletea model shown while artifacts are installed:
// one row per artifact, updated by RowUpdateMsg, and a spinner footer until
// the work reports completion.
type InstallTable struct {
	title   string
	columns []Column
	rows    []tableRow
	byKey   map[string]int
	status  int // index of the STATUS column, -1 if absent

	frame   int
	done    bool
	aborted bool
	err     error
}

func NewInstallTable(title string, columns []Column) InstallTable {
	status := -1
	for i, c := range columns {
		if c.Header == ColumnStatus {
			status = i
		}
	}
	return InstallTable{title: title, columns: columns, byKey: make(map[string]int), status: status}
}

// Track adds a row for key before the program starts. Tracking a key again
// overwrites its cells.
func (m *InstallTable) Track(key string, cells []string) {
	row := make([]string, len(m.columns))
	copy(row, cells)
	if i, ok := m.byKey[key]; ok {
		m.rows[i].cells = row
		return
	}
	m.byKey[key] = len(m.rows)
	m.rows = append(m.rows, tableRow{key: key, cells: row})
}

func nextFrame() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m InstallTable) Init() tea.Cmd {
	return nextFrame()
}

func (m InstallTable) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, nextFrame()
	case RowUpdateMsg:
		m.apply(msg)
	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit
	case ErrorMsg:
		m.done, m.err = true, msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done, m.aborted = true, true
			return m, tea.Quit
		}
	}
	return m, nil
}

// apply copies the cells of msg into the row, leaving other columns as they were.
func (m *InstallTable) apply(msg RowUpdateMsg) {
	i, ok := m.byKey[msg.Key]
	if !ok {
		return
	}
	cells := append([]string(nil), m.rows[i].cells...)
	for c, col := range m.columns {
		if v, ok := msg.Fields[col.Header]; ok {
			cells[c] = v
		}
	}
	m.rows[i].cells = cells
}

func (m InstallTable) View() string {
	if m.err != nil {
		return ErrorStyle.Render("error: "+m.err.Error()) + "\n"
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title) + "\n")
	}
	b.WriteString(m.line(nil) + "\n")
	for _, r := range m.rows {
		b.WriteString(m.line(r.cells) + "\n")
	}
	if !m.done {
		finished := m.finished()
		fmt.Fprintf(&b, "\n%s Working %d/%d...\n", spinnerFrames[m.frame%len(spinnerFrames)], finished, len(m.rows))
	}
	return b.String()
}

// line renders one table line. A nil cells slice renders the header.
func (m InstallTable) line(cells []string) string {
	parts := make([]string, len(m.columns))
	for i, col := range m.columns {
		width := max(col.Width, lipgloss.Width(col.Header))
		switch {
		case cells == nil:
			parts[i] = HeaderStyle.Width(width).Render(col.Header)
		case i == m.status:
			v := fit(cells[i], width)
			parts[i] = StatusStyle(v).Width(width).Render(v)
		default:
			parts[i] = lipgloss.NewStyle().Width(width).Render(fit(cells[i], width))
		}
	}
	return strings.Join(parts, "  ")
}

// finished counts rows whose status needs no more work.
func (m InstallTable) finished() int {
	if m.status < 0 {
		return 0
	}
	n := 0
	for _, r := range m.rows {
		if IsFinalStatus(strings.TrimSpace(r.cells[m.status])) {
			n++
		}
	}
	return n
}

// Aborted reports whether the user pressed ctrl+c.
func (m InstallTable) Aborted() bool { return m.aborted }

// Err is the error delivered by ErrorMsg, if any.
func (m InstallTable) Err() error { return m.err }

// fit shortens s to width display cells, ending in "…" when cut.
func fit(s string, width int) string {
	s = strings.TrimSpace(s)
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
