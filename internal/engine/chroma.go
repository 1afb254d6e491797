package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	gocache "github.com/patrickmn/go-cache"

	"github.com/glinthq/glint/internal/highlight"
	"github.com/glinthq/glint/internal/log"
)

// chromaEngine adapts the chroma lexer and style registries to the Engine
// contract. Coalesced lexers and resolved styles are cached: Coalesce wraps
// the lexer on every call, and sessions re-resolve the same (language,
// theme) pair on each reconfiguration.
type chromaEngine struct {
	lexerCache *gocache.Cache // language -> chroma.Lexer (coalesced)
	styleCache *gocache.Cache // theme -> *chroma.Style
}

func newChromaEngine() (*chromaEngine, error) {
	if len(lexers.Names(false)) == 0 {
		return nil, fmt.Errorf("no lexers registered")
	}
	if len(chromastyles.Registry) == 0 {
		return nil, fmt.Errorf("no styles registered")
	}
	return &chromaEngine{
		lexerCache: gocache.New(gocache.NoExpiration, 0),
		styleCache: gocache.New(gocache.NoExpiration, 0),
	}, nil
}

// DetectLanguage returns the lexer name matching a file name, or empty
// when no lexer claims it.
func DetectLanguage(filename string) string {
	lx := lexers.Match(filename)
	if lx == nil {
		return ""
	}
	return lx.Config().Name
}

// Languages returns the names of all registered lexers, sorted.
func Languages() []string {
	return lexers.Names(false)
}

// Themes returns the names of all registered color themes, sorted.
func Themes() []string {
	return chromastyles.Names()
}

// lexer resolves a language name to a coalesced lexer. An empty name maps
// to the plaintext fallback so unconfigured sessions still produce output.
func (e *chromaEngine) lexer(language string) (chroma.Lexer, error) {
	key := strings.ToLower(language)
	if v, ok := e.lexerCache.Get(key); ok {
		log.Debug(log.CatCache, "lexer cache hit", "language", key)
		return v.(chroma.Lexer), nil
	}

	var lx chroma.Lexer
	if language == "" {
		lx = lexers.Fallback
	} else {
		lx = lexers.Get(language)
	}
	if lx == nil {
		return nil, fmt.Errorf("%w: unknown language %q", ErrUnsupportedConfig, language)
	}
	lx = chroma.Coalesce(lx)
	e.lexerCache.Set(key, lx, gocache.NoExpiration)
	return lx, nil
}

func (e *chromaEngine) style(theme string) (*chroma.Style, error) {
	key := strings.ToLower(theme)
	if v, ok := e.styleCache.Get(key); ok {
		log.Debug(log.CatCache, "style cache hit", "theme", key)
		return v.(*chroma.Style), nil
	}

	st, ok := chromastyles.Registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown theme %q", ErrUnsupportedConfig, theme)
	}
	e.styleCache.Set(key, st, gocache.NoExpiration)
	return st, nil
}

func (e *chromaEngine) NewTokenizer(language, theme string) (Tokenizer, error) {
	lx, err := e.lexer(language)
	if err != nil {
		return nil, err
	}
	st, err := e.style(theme)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatEngine, "tokenizer created", "language", language, "theme", theme)
	return &chromaTokenizer{lexer: lx, style: st}, nil
}

func (e *chromaEngine) ThemeStyle(theme string) (*highlight.ContainerStyle, error) {
	st, err := e.style(theme)
	if err != nil {
		return nil, err
	}
	entry := st.Get(chroma.Background)
	cs := &highlight.ContainerStyle{}
	if entry.Background.IsSet() {
		cs.BackgroundColor = strings.ToLower(entry.Background.String())
	}
	if entry.Colour.IsSet() {
		cs.TextColor = strings.ToLower(entry.Colour.String())
	}
	if cs.BackgroundColor == "" && cs.TextColor == "" {
		return nil, nil
	}
	return cs, nil
}

// chromaTokenizer buffers incoming text and splits its output at line
// boundaries: everything up to the last seen newline is tokenized once and
// frozen, the trailing partial line is retokenized on every Enqueue. Lexer
// state does not cross the frozen boundary, so a construct spanning it (an
// unterminated block comment, say) may restyle once the boundary moves;
// that flicker is the accepted cost of not re-lexing the whole buffer per
// chunk.
type chromaTokenizer struct {
	lexer chroma.Lexer
	style *chroma.Style

	tail     string // text after the last frozen newline
	stable   []highlight.Token
	unstable []highlight.Token
}

func (t *chromaTokenizer) Enqueue(ctx context.Context, chunk string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenizeFailed, err)
	}

	t.tail += chunk
	if idx := strings.LastIndexByte(t.tail, '\n'); idx >= 0 {
		settled := t.tail[:idx+1]
		rest := t.tail[idx+1:]
		toks, err := t.tokenize(settled)
		if err != nil {
			return err
		}
		t.stable = append(t.stable, toks...)
		t.tail = rest
	}

	if t.tail == "" {
		t.unstable = nil
		return nil
	}
	toks, err := t.tokenize(t.tail)
	if err != nil {
		return err
	}
	t.unstable = trimArtificialNewline(toks)
	return nil
}

func (t *chromaTokenizer) Stable() []highlight.Token {
	return t.stable
}

func (t *chromaTokenizer) Unstable() []highlight.Token {
	return t.unstable
}

func (t *chromaTokenizer) Clear() {
	t.tail = ""
	t.stable = nil
	t.unstable = nil
}

func (t *chromaTokenizer) tokenize(text string) ([]highlight.Token, error) {
	it, err := t.lexer.Tokenise(nil, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenizeFailed, err)
	}
	var out []highlight.Token
	for tok := it(); tok != chroma.EOF; tok = it() {
		out = append(out, highlight.Token{
			Content: tok.Value,
			Style:   styleFor(t.style, tok.Type),
		})
	}
	return out, nil
}

// trimArtificialNewline undoes the EnsureNL behavior of many lexers, which
// append a newline to input that lacks one. The unstable set is tokenized
// from a partial line by construction, so a trailing newline in its output
// is always an artifact.
func trimArtificialNewline(tokens []highlight.Token) []highlight.Token {
	if len(tokens) == 0 {
		return tokens
	}
	last := &tokens[len(tokens)-1]
	if !strings.HasSuffix(last.Content, "\n") {
		return tokens
	}
	last.Content = strings.TrimSuffix(last.Content, "\n")
	if last.Content == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// styleFor resolves a token type against the theme, with the parent-type
// inheritance chroma formatters apply.
func styleFor(style *chroma.Style, tt chroma.TokenType) highlight.StyleAttributes {
	entry := style.Get(tt)
	attrs := highlight.StyleAttributes{
		Bold:      entry.Bold == chroma.Yes,
		Italic:    entry.Italic == chroma.Yes,
		Underline: entry.Underline == chroma.Yes,
	}
	if entry.Colour.IsSet() {
		attrs.Color = strings.ToLower(entry.Colour.String())
	}
	if entry.Background.IsSet() {
		attrs.BackgroundColor = strings.ToLower(entry.Background.String())
	}
	return attrs
}
