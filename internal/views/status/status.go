package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/como-monitor/como/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Addr      string
	Sources   int
	Updates   int // Source frames received since start
	Removed   int // DeinitSource frames received since start
	Width     int
}

func New(addr string) Model {
	return Model{Addr: addr}
}

// View renders the status bar.
func (m Model) View() string {
	width := max(m.Width, 40)

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● " + m.Addr)
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ connecting to " + m.Addr)
	}

	counts := fmt.Sprintf("%d sources  %d updates  %d removed", m.Sources, m.Updates, m.Removed)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(connStr + sep + counts)
}
