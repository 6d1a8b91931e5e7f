// Package theme provides the Lip Gloss color palette and reusable styles
// for the como viewer. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Kind colors, keyed by source kind name.
var (
	ColorString   = lipgloss.Color("#e5e7eb")
	ColorInteger  = lipgloss.Color("#3b82f6")
	ColorUnsigned = lipgloss.Color("#06b6d4")
	ColorDouble   = lipgloss.Color("#a855f7")
	ColorTime     = lipgloss.Color("#d97706")
	ColorDefault  = lipgloss.Color("#9ca3af")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#7c3aed")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// KindColor returns the Lip Gloss color for a source kind name as produced
// by source.Kind.String.
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "string":
		return ColorString
	case "int", "int64":
		return ColorInteger
	case "uint", "uint64":
		return ColorUnsigned
	case "double":
		return ColorDouble
	case "datetime", "time":
		return ColorTime
	default:
		return ColorDefault
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright).
			Background(ColorAccent)
)
