package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - adaptive so it reads on light and dark terminals.
var (
	// Headers and highlights
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#58A6FF"}

	// Imported tables
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008000", Dark: "#3FB950"}

	// Failed tables and fatal errors
	ColorError = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#F85149"}

	// Dropped rows, skipped statements
	ColorWarning = lipgloss.AdaptiveColor{Light: "#CC6600", Dark: "#D29922"}

	// Secondary information
	ColorMuted = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#8B949E"}

	// Dry runs and in-flight tables
	ColorProgress = lipgloss.AdaptiveColor{Light: "#6639A6", Dark: "#A371F7"}
)

// Status symbols.
const (
	SymbolSuccess  = "✓"
	SymbolError    = "✗"
	SymbolWarning  = "!"
	SymbolProgress = "●"
	SymbolPending  = "○"
)

var (
	StyleSuccess  = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError    = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleWarning  = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted    = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleProgress = lipgloss.NewStyle().Foreground(ColorProgress)
	StyleBold     = lipgloss.NewStyle().Bold(true)
)

// nameWidth is the column width of table names in result lines.
const nameWidth = 20
