// Package help contains the help overlay component.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/glinthq/glint/internal/keys"
	"github.com/glinthq/glint/internal/ui/styles"
)

// noMarginStyle is a JSON style that removes document margins.
// It inherits from auto (dark/light detection) but overrides margin to 0.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.OverlayBorderColor).
	Padding(0, 2)

// Model holds the help overlay state.
type Model struct {
	keys    keys.KeyMap
	width   int
	visible bool
}

// New creates a help overlay.
func New() Model {
	return Model{keys: keys.DefaultKeyMap(), width: 60}
}

// Visible reports whether the overlay is shown.
func (m Model) Visible() bool {
	return m.visible
}

// Toggle flips overlay visibility.
func (m Model) Toggle() Model {
	m.visible = !m.visible
	return m
}

// Hide closes the overlay.
func (m Model) Hide() Model {
	m.visible = false
	return m
}

// SetWidth adjusts the overlay to the terminal width.
func (m Model) SetWidth(width int) Model {
	if width > 20 {
		m.width = min(width-4, 72)
	}
	return m
}

// View renders the overlay, or an empty string when hidden.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	rendered, err := renderMarkdown(m.markdown(), m.width-6)
	if err != nil {
		// Unstyled fallback keeps help usable on odd terminals.
		rendered = m.markdown()
	}

	return boxStyle.Width(m.width).Render(strings.TrimRight(rendered, "\n"))
}

// markdown builds the help text from the active keymap so the overlay can
// never drift from the real bindings.
func (m Model) markdown() string {
	var sb strings.Builder
	sb.WriteString("# Keybindings\n\n")
	sb.WriteString("## Scrolling\n\n")
	writeBinding(&sb, m.keys.Up)
	writeBinding(&sb, m.keys.Down)
	writeBinding(&sb, m.keys.PageUp)
	writeBinding(&sb, m.keys.PageDown)
	writeBinding(&sb, m.keys.GotoTop)
	writeBinding(&sb, m.keys.GotoBottom)
	sb.WriteString("\n## Display\n\n")
	writeBinding(&sb, m.keys.StatusBar)
	writeBinding(&sb, m.keys.LineNums)
	writeBinding(&sb, m.keys.Wrap)
	writeBinding(&sb, m.keys.Theme)
	sb.WriteString("\n## General\n\n")
	writeBinding(&sb, m.keys.Help)
	writeBinding(&sb, m.keys.Escape)
	writeBinding(&sb, m.keys.Quit)
	return sb.String()
}

func writeBinding(sb *strings.Builder, b key.Binding) {
	h := b.Help()
	fmt.Fprintf(sb, "- `%s` %s\n", h.Key, h.Desc)
}

func renderMarkdown(src string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(src)
}
