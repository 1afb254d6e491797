// Package highlight defines the token and line data model produced by the
// streaming highlight pipeline, plus the pure transforms that turn a flat
// token stream into renderable lines.
package highlight

import "strings"

// StyleAttributes describes the presentation of a single token.
// Colors are "#rrggbb" hex strings; empty means unset.
type StyleAttributes struct {
	Color           string
	BackgroundColor string
	Bold            bool
	Italic          bool
	Underline       bool
}

// Token is a contiguous run of characters with uniform styling.
type Token struct {
	Content string
	Style   StyleAttributes
}

// Line is an ordered sequence of tokens, rendered left to right.
// A line may be empty, representing a blank source line.
type Line []Token

// Document is an ordered sequence of lines; the index is the physical
// 0-based line number of the source text.
type Document []Line

// Text reconstructs the source text the document was built from, joining
// lines with single newlines.
func (d Document) Text() string {
	var b strings.Builder
	for i, line := range d {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, tok := range line {
			b.WriteString(tok.Content)
		}
	}
	return b.String()
}

// ContainerStyle is the theme-derived presentation for the rendered block
// as a whole. Empty fields mean the theme defines no value.
type ContainerStyle struct {
	BackgroundColor string
	TextColor       string
}
