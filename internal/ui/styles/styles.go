// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Status bar
	StatusBarBgColor   = lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#2D2D2D"}
	StatusBarTextColor = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#BBBBBB"}

	// Status states
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Overlays
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}

	// Line number gutter
	GutterColor = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#555555"}

	StatusBarStyle = lipgloss.NewStyle().
			Background(StatusBarBgColor).
			Foreground(StatusBarTextColor).
			Padding(0, 1)

	StatusSuccessStyle = lipgloss.NewStyle().
				Foreground(StatusSuccessColor)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(StatusErrorColor).
				Bold(true)

	GutterStyle = lipgloss.NewStyle().
			Foreground(GutterColor).
			PaddingRight(1)
)
