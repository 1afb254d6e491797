// Package render turns highlighted lines into styled terminal strings.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/glinthq/glint/internal/highlight"
	"github.com/glinthq/glint/internal/ui/styles"
)

// Options controls document rendering.
type Options struct {
	// Width truncates rendered lines to the given column count.
	// Zero means no truncation.
	Width int

	// ShowLineNums prefixes each line with a right-aligned line number.
	ShowLineNums bool

	// Container paints line backgrounds and default text color.
	Container *highlight.ContainerStyle
}

// Token renders a single token with its style attributes applied.
func Token(tok highlight.Token) string {
	return TokenStyle(tok.Style).Render(tok.Content)
}

// TokenStyle converts style attributes to a lipgloss style.
func TokenStyle(attrs highlight.StyleAttributes) lipgloss.Style {
	style := lipgloss.NewStyle()
	if attrs.Color != "" {
		style = style.Foreground(lipgloss.Color(attrs.Color))
	}
	if attrs.BackgroundColor != "" {
		style = style.Background(lipgloss.Color(attrs.BackgroundColor))
	}
	if attrs.Bold {
		style = style.Bold(true)
	}
	if attrs.Italic {
		style = style.Italic(true)
	}
	if attrs.Underline {
		style = style.Underline(true)
	}
	return style
}

// Line renders one line of tokens. Trailing newlines are stripped since
// line placement is the caller's concern.
func Line(line highlight.Line, base lipgloss.Style) string {
	var sb strings.Builder
	for _, tok := range line {
		content := strings.TrimRight(tok.Content, "\n")
		if content == "" {
			continue
		}
		sb.WriteString(TokenStyle(tok.Style).Inherit(base).Render(content))
	}
	return sb.String()
}

// Document renders every line of the document, one string per terminal row.
func Document(doc highlight.Document, opts Options) []string {
	base := lipgloss.NewStyle()
	if opts.Container != nil {
		if opts.Container.TextColor != "" {
			base = base.Foreground(lipgloss.Color(opts.Container.TextColor))
		}
		if opts.Container.BackgroundColor != "" {
			base = base.Background(lipgloss.Color(opts.Container.BackgroundColor))
		}
	}

	gutterWidth := 0
	if opts.ShowLineNums {
		gutterWidth = runewidth.StringWidth(fmt.Sprintf("%d", len(doc)))
	}

	rows := make([]string, 0, len(doc))
	for i, line := range doc {
		row := Line(line, base)
		if opts.ShowLineNums {
			num := fmt.Sprintf("%*d", gutterWidth, i+1)
			row = styles.GutterStyle.Render(num) + row
		}
		if opts.Width > 0 {
			row = truncate.String(row, uint(opts.Width)) // #nosec G115 -- width checked positive
		}
		rows = append(rows, row)
	}
	return rows
}
