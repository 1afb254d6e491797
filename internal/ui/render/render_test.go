package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glinthq/glint/internal/highlight"
)

func TestLine_ConcatenatesTokenContent(t *testing.T) {
	line := highlight.Line{
		{Content: "func ", Style: highlight.StyleAttributes{Color: "#ff0000", Bold: true}},
		{Content: "main", Style: highlight.StyleAttributes{Color: "#00ff00"}},
	}

	out := Line(line, lipgloss.NewStyle())
	assert.Equal(t, "func main", ansi.Strip(out))
}

func TestLine_StripsTrailingNewline(t *testing.T) {
	line := highlight.Line{{Content: "package main\n"}}

	out := Line(line, lipgloss.NewStyle())
	assert.Equal(t, "package main", ansi.Strip(out))
	assert.NotContains(t, out, "\n")
}

func TestDocument_OneRowPerLine(t *testing.T) {
	doc := highlight.Document{
		{{Content: "a\n"}},
		{{Content: "b\n"}},
		{},
	}

	rows := Document(doc, Options{})
	require.Len(t, rows, 3)
	assert.Equal(t, "a", ansi.Strip(rows[0]))
	assert.Equal(t, "b", ansi.Strip(rows[1]))
	assert.Equal(t, "", ansi.Strip(rows[2]))
}

func TestDocument_LineNumbersAreRightAligned(t *testing.T) {
	doc := make(highlight.Document, 10)
	for i := range doc {
		doc[i] = highlight.Line{{Content: "x\n"}}
	}

	rows := Document(doc, Options{ShowLineNums: true})
	require.Len(t, rows, 10)
	assert.True(t, strings.HasPrefix(ansi.Strip(rows[0]), " 1 "), "got %q", ansi.Strip(rows[0]))
	assert.True(t, strings.HasPrefix(ansi.Strip(rows[9]), "10 "), "got %q", ansi.Strip(rows[9]))
}

func TestDocument_TruncatesToWidth(t *testing.T) {
	doc := highlight.Document{
		{{Content: "abcdefghij"}},
	}

	rows := Document(doc, Options{Width: 4})
	assert.Equal(t, "abcd", ansi.Strip(rows[0]))
}

func TestDocument_EmptyDocument(t *testing.T) {
	assert.Empty(t, Document(nil, Options{}))
}

func TestTokenStyle_MapsAllAttributes(t *testing.T) {
	style := TokenStyle(highlight.StyleAttributes{
		Color:           "#ff0000",
		BackgroundColor: "#000000",
		Bold:            true,
		Italic:          true,
		Underline:       true,
	})

	assert.True(t, style.GetBold())
	assert.True(t, style.GetItalic())
	assert.True(t, style.GetUnderline())
}

