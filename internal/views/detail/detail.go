// Package detail renders the source detail overlay.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/como-monitor/como/internal/client"
	"github.com/como-monitor/como/internal/source"
	"github.com/como-monitor/como/internal/theme"
)

const (
	panelWidth = 64
	labelWidth = 14
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model holds the state for the detail overlay.
type Model struct {
	State *client.SourceState
	now   func() time.Time
}

func New(st *client.SourceState) Model {
	return Model{State: st, now: time.Now}
}

// View renders the detail panel. It returns an empty string if no source is
// set.
func (m Model) View() string {
	if m.State == nil {
		return ""
	}
	return stylePanel.Width(panelWidth).Render(m.renderInner(m.State))
}

func (m Model) renderInner(st *client.SourceState) string {
	var b strings.Builder
	snap := st.Snapshot
	kind := snap.Kind().String()

	b.WriteString(styleTitle.Render("Source: "+truncate(snap.Name, panelWidth-12)) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "Type", truncate(snap.TypeName, 44))
	writeRow(&b, "Kind", lipgloss.NewStyle().Foreground(theme.KindColor(kind)).Render(kind))
	writeRow(&b, "Value", truncate(source.FormatValue(snap.Value), 44))
	if snap.Description != "" {
		writeRow(&b, "Description", truncate(snap.Description, 44))
	}

	b.WriteString("\n")

	if !snap.Timestamp.IsZero() {
		writeRow(&b, "Timestamp", source.FormatTimestamp(snap.Timestamp))
	}
	if !st.ReceivedAt.IsZero() {
		writeRow(&b, "Received", formatAge(m.clock().Sub(st.ReceivedAt)))
	}
	writeRow(&b, "Updates", fmt.Sprintf("%d", st.Updates))

	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[esc] close"))
	return b.String()
}

func (m Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds ago", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm ago", int(d.Hours()), int(d.Minutes())%60)
	}
}
