// Package dashboard renders the live source table and a per-kind summary row
// for the como viewer.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/como-monitor/como/internal/client"
	"github.com/como-monitor/como/internal/source"
	"github.com/como-monitor/como/internal/theme"
)

const (
	colKind    = 9
	colUpdates = 8
	colTime    = 26
	minName    = 16
	minValue   = 12
)

// Model holds the dashboard state. Rows follow the order of the states
// passed to SetSources.
type Model struct {
	Width  int
	Height int

	table  table.Model
	states []*client.SourceState
}

func New() Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(theme.ColorBright)
	styles.Selected = theme.StyleSelected
	t.SetStyles(styles)
	return Model{table: t}
}

// columns splits the spare width between the name, type and value columns.
func columns(width int) []table.Column {
	spare := max(width-colKind-colUpdates-colTime-12, 2*minName+minValue)
	name := spare * 3 / 8
	typeName := spare * 3 / 8
	value := spare - name - typeName
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Type", Width: typeName},
		{Title: "Kind", Width: colKind},
		{Title: "Value", Width: value},
		{Title: "Timestamp", Width: colTime},
		{Title: "Updates", Width: colUpdates},
	}
}

// SetSize resizes the table to fit width x height, leaving room for the
// summary row.
func (m *Model) SetSize(width, height int) {
	m.Width = width
	m.Height = height
	m.table.SetColumns(columns(width))
	m.table.SetWidth(max(width, 40))
	m.table.SetHeight(max(height-4, 3))
}

// SetSources replaces the table rows. The cursor is clamped to the new row
// count.
func (m *Model) SetSources(states []*client.SourceState) {
	m.states = states
	rows := make([]table.Row, 0, len(states))
	for _, st := range states {
		snap := st.Snapshot
		ts := ""
		if !snap.Timestamp.IsZero() {
			ts = source.FormatTimestamp(snap.Timestamp)
		}
		rows = append(rows, table.Row{
			snap.Name,
			snap.TypeName,
			snap.Kind().String(),
			source.FormatValue(snap.Value),
			ts,
			fmt.Sprintf("%d", st.Updates),
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) MoveUp(n int)   { m.table.MoveUp(n) }
func (m *Model) MoveDown(n int) { m.table.MoveDown(n) }

// Selected returns the state under the cursor, or nil when the table is
// empty.
func (m Model) Selected() *client.SourceState {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.states) {
		return nil
	}
	return m.states[c]
}

// View renders the summary row above the table.
func (m Model) View() string {
	width := max(m.Width, 40)
	if len(m.states) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderSummary(width),
			theme.StyleDimmed.Render("  No sources registered"),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderSummary(width), m.table.View())
}

// renderSummary counts sources per kind in kind order.
func (m Model) renderSummary(width int) string {
	counts := make(map[source.Kind]int)
	for _, st := range m.states {
		counts[st.Snapshot.Kind()]++
	}

	statStyle := lipgloss.NewStyle().Padding(0, 1)
	parts := []string{
		statStyle.Foreground(theme.ColorBright).Render(fmt.Sprintf("Sources: %d", len(m.states))),
	}
	for k := source.KindString; k <= source.KindTime; k++ {
		if counts[k] == 0 {
			continue
		}
		parts = append(parts, statStyle.Foreground(theme.KindColor(k.String())).
			Render(fmt.Sprintf("%s: %d", k, counts[k])))
	}

	content := strings.Join(parts, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
