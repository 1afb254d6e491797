package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSplitLines_EmptyInput(t *testing.T) {
	doc := SplitLines(nil)

	require.Len(t, doc, 1, "empty input should yield exactly one line")
	require.Empty(t, doc[0], "the single line should be empty")
}

func TestSplitLines_SingleTokenWithEmbeddedNewline(t *testing.T) {
	style := StyleAttributes{Color: "#ff0000"}
	doc := SplitLines([]Token{{Content: "ab\ncd", Style: style}})

	require.Len(t, doc, 2)
	require.Equal(t, Line{{Content: "ab", Style: style}}, doc[0])
	require.Equal(t, Line{{Content: "cd", Style: style}}, doc[1])
}

func TestSplitLines_NewlineOnlyTokenTerminatesLine(t *testing.T) {
	doc := SplitLines([]Token{
		{Content: "ab"},
		{Content: "\n"},
		{Content: "cd"},
	})

	require.Len(t, doc, 2)
	require.Equal(t, Line{{Content: "ab"}}, doc[0])
	require.Equal(t, Line{{Content: "cd"}}, doc[1])
}

func TestSplitLines_TrailingNewlineYieldsEmptyLastLine(t *testing.T) {
	doc := SplitLines([]Token{{Content: "ab\n"}})

	require.Len(t, doc, 2)
	require.Equal(t, Line{{Content: "ab"}}, doc[0])
	require.Empty(t, doc[1])
}

func TestSplitLines_ConsecutiveNewlinesYieldBlankLines(t *testing.T) {
	doc := SplitLines([]Token{{Content: "a\n\n\nb"}})

	require.Len(t, doc, 4)
	require.Equal(t, Line{{Content: "a"}}, doc[0])
	require.Empty(t, doc[1])
	require.Empty(t, doc[2])
	require.Equal(t, Line{{Content: "b"}}, doc[3])
}

func TestSplitLines_EmptyContentTokensDropped(t *testing.T) {
	doc := SplitLines([]Token{
		{Content: ""},
		{Content: "ab"},
		{Content: ""},
	})

	require.Len(t, doc, 1)
	require.Equal(t, Line{{Content: "ab"}}, doc[0])
}

func TestSplitLines_StylePreservedAcrossSplit(t *testing.T) {
	style := StyleAttributes{Color: "#00ff00", Bold: true}
	doc := SplitLines([]Token{{Content: "one\ntwo\nthree", Style: style}})

	require.Len(t, doc, 3)
	for i, want := range []string{"one", "two", "three"} {
		require.Len(t, doc[i], 1)
		require.Equal(t, want, doc[i][0].Content)
		require.Equal(t, style, doc[i][0].Style, "style must carry over to every segment")
	}
}

// tokenContents draws a slice of token contents over a small alphabet that
// includes newlines, so newline placement relative to token boundaries is
// fully exercised.
func tokenContents(rt *rapid.T) []string {
	gen := rapid.StringOfN(rapid.RuneFrom([]rune("ab \n")), 0, 6, -1)
	return rapid.SliceOfN(gen, 0, 12).Draw(rt, "contents")
}

func TestProperty_LineCountIsNewlinesPlusOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		contents := tokenContents(rt)

		var tokens []Token
		var text strings.Builder
		for _, c := range contents {
			tokens = append(tokens, Token{Content: c})
			text.WriteString(c)
		}

		doc := SplitLines(tokens)
		newlines := strings.Count(text.String(), "\n")
		require.Len(t, doc, newlines+1,
			"k newlines must yield k+1 lines regardless of token boundaries")
	})
}

func TestProperty_TextReconstructsExactly(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		contents := tokenContents(rt)

		var tokens []Token
		var text strings.Builder
		for _, c := range contents {
			tokens = append(tokens, Token{Content: c})
			text.WriteString(c)
		}

		doc := SplitLines(tokens)
		require.Equal(t, text.String(), doc.Text(),
			"joining lines with newlines must reproduce the input text")
	})
}
