// Package engine provides the tokenization capability consumed by the
// streaming highlight pipeline. The engine is loaded once per process and
// shared across sessions; each session owns its tokenizer instances.
package engine

import (
	"context"
	"errors"

	"github.com/glinthq/glint/internal/highlight"
)

// Sentinel errors classifying engine failures. Wrapped values carry detail;
// callers classify with errors.Is.
var (
	// ErrLoadFailed means the engine itself could not be constructed.
	ErrLoadFailed = errors.New("engine: load failed")
	// ErrUnsupportedConfig means the requested language or theme is not
	// recognized by the engine.
	ErrUnsupportedConfig = errors.New("engine: unsupported language or theme")
	// ErrTokenizeFailed means an Enqueue call failed mid-stream.
	ErrTokenizeFailed = errors.New("engine: tokenize failed")
)

// Engine is the shared, process-wide tokenization capability: a grammar and
// theme database from which per-(language, theme) tokenizers are created.
type Engine interface {
	// NewTokenizer creates a stateful incremental tokenizer bound to a
	// language and theme. Unknown names report ErrUnsupportedConfig.
	NewTokenizer(language, theme string) (Tokenizer, error)

	// ThemeStyle reports the theme's default block background and
	// foreground. Returns nil when the theme defines neither, so callers
	// can skip container styling entirely.
	ThemeStyle(theme string) (*highlight.ContainerStyle, error)
}

// Tokenizer accepts incremental text chunks and exposes the accumulated
// stable and provisional token sets. Implementations are not safe for
// concurrent use; the stream controller serializes access.
type Tokenizer interface {
	// Enqueue feeds the next chunk of source text.
	Enqueue(ctx context.Context, chunk string) error

	// Stable returns tokens guaranteed not to change as more text
	// arrives. The returned slice is a snapshot; callers must not
	// mutate it.
	Stable() []highlight.Token

	// Unstable returns provisional tokens for the trailing partial line;
	// they may be re-split or re-styled by later Enqueue calls.
	Unstable() []highlight.Token

	// Clear drops all buffered text and tokens.
	Clear()
}
