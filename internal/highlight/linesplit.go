package highlight

import "strings"

// SplitLines regroups a flat token stream into lines. A token whose content
// is exactly "\n" terminates the current line without emitting anything;
// tokens with embedded newlines are split into per-line tokens that keep the
// original style. Empty-content tokens contribute nothing. The result always
// contains at least one line, so renderers have something to lay out even
// for empty input.
func SplitLines(tokens []Token) Document {
	doc := Document{Line{}}
	for _, tok := range tokens {
		switch {
		case tok.Content == "":
			// input artifact, drop silently
		case tok.Content == "\n":
			doc = append(doc, Line{})
		case !strings.ContainsRune(tok.Content, '\n'):
			doc[len(doc)-1] = append(doc[len(doc)-1], tok)
		default:
			segments := strings.Split(tok.Content, "\n")
			for i, seg := range segments {
				if seg != "" {
					doc[len(doc)-1] = append(doc[len(doc)-1], Token{Content: seg, Style: tok.Style})
				}
				if i < len(segments)-1 {
					doc = append(doc, Line{})
				}
			}
		}
	}
	return doc
}
