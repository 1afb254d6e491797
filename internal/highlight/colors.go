package highlight

import "strings"

// ColorReplacements maps a literal color value to its replacement.
// Matching is case-insensitive and exact; non-color style fields are never
// touched.
type ColorReplacements map[string]string

func (r ColorReplacements) lookup(color string) (string, bool) {
	if color == "" {
		return "", false
	}
	for from, to := range r {
		if strings.EqualFold(from, color) {
			return to, true
		}
	}
	return "", false
}

// ApplyReplacements returns a copy of style with its Color and
// BackgroundColor fields substituted through repl. The input is never
// mutated; a nil or empty map is a no-op.
func ApplyReplacements(style StyleAttributes, repl ColorReplacements) StyleAttributes {
	if len(repl) == 0 {
		return style
	}
	if c, ok := repl.lookup(style.Color); ok {
		style.Color = c
	}
	if c, ok := repl.lookup(style.BackgroundColor); ok {
		style.BackgroundColor = c
	}
	return style
}
