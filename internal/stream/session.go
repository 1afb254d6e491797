package stream

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/glinthq/glint/internal/engine"
	"github.com/glinthq/glint/internal/highlight"
	"github.com/glinthq/glint/internal/log"
)

// ErrNoTokenizer is reported when an update arrives before the session holds
// a live tokenizer.
var ErrNoTokenizer = errors.New("stream: no tokenizer configured")

// Config selects the tokenizer and presentation for a session. The
// tokenizer's identity is keyed by (Language, Theme); Replacements apply at
// line-build time and never require a tokenizer rebuild.
type Config struct {
	Enabled      bool
	Language     string
	Theme        string
	Replacements highlight.ColorReplacements
}

// Session owns the tokenizer for one (language, theme) configuration plus
// the diff state that feeds it. It is not safe for concurrent use; the
// controller serializes access.
type Session struct {
	id        string
	eng       engine.Engine
	language  string
	theme     string
	tokenizer engine.Tokenizer
	container *highlight.ContainerStyle
	planner   *planner
}

// NewSession creates an inert session. A nil engine means the shared
// process-wide engine is loaded lazily on the first Ensure; tests inject a
// fake here.
func NewSession(eng engine.Engine) *Session {
	return &Session{
		id:      uuid.NewString(),
		eng:     eng,
		planner: newPlanner(),
	}
}

// ID returns the session identifier used for log and trace correlation.
func (s *Session) ID() string {
	return s.id
}

// Ensure makes the held tokenizer match cfg, creating or replacing it as
// needed. A (language, theme) change releases the old tokenizer and resets
// the diff state, so the next update retokenizes from scratch. Disabled
// configs release everything and leave the session inert.
func (s *Session) Ensure(ctx context.Context, cfg Config) error {
	if !cfg.Enabled {
		s.Release()
		return nil
	}
	if s.tokenizer != nil && s.language == cfg.Language && s.theme == cfg.Theme {
		return nil
	}

	if s.eng == nil {
		eng, err := engine.Load(ctx)
		if err != nil {
			return err
		}
		s.eng = eng
	}

	s.Release()

	tok, err := s.eng.NewTokenizer(cfg.Language, cfg.Theme)
	if err != nil {
		return err
	}
	container, err := s.eng.ThemeStyle(cfg.Theme)
	if err != nil {
		return err
	}

	s.tokenizer = tok
	s.language = cfg.Language
	s.theme = cfg.Theme
	s.container = container
	log.Debug(log.CatStream, "tokenizer ready",
		"session", s.id, "language", cfg.Language, "theme", cfg.Theme)
	return nil
}

// Release clears and drops the tokenizer. Idempotent; must be called on
// configuration teardown and session shutdown so engine-held buffers are
// freed.
func (s *Session) Release() {
	if s.tokenizer != nil {
		s.tokenizer.Clear()
		s.tokenizer = nil
		log.Debug(log.CatStream, "tokenizer released", "session", s.id)
	}
	s.language = ""
	s.theme = ""
	s.container = nil
	s.planner.reset()
}

// Active reports whether the session holds a live tokenizer.
func (s *Session) Active() bool {
	return s.tokenizer != nil
}

// Apply plans and executes one text update against the tokenizer. The new
// text is committed as processed even when the engine rejects the chunk,
// so a poisoned chunk cannot cause a retry storm.
func (s *Session) Apply(ctx context.Context, text string, force bool) (Plan, error) {
	if s.tokenizer == nil {
		return Plan{}, ErrNoTokenizer
	}

	pl := s.planner.plan(text, force)
	var err error
	switch pl.Kind {
	case PlanNoOp:
		// current tokens are simply republished
	case PlanAppend:
		err = s.tokenizer.Enqueue(ctx, pl.Chunk)
	case PlanReset:
		s.tokenizer.Clear()
		err = s.tokenizer.Enqueue(ctx, pl.Chunk)
	}
	s.planner.commit(text)
	return pl, err
}

// Tokens returns the stable and unstable sets concatenated in order, as a
// fresh slice safe for the caller to keep.
func (s *Session) Tokens() []highlight.Token {
	if s.tokenizer == nil {
		return nil
	}
	stable := s.tokenizer.Stable()
	unstable := s.tokenizer.Unstable()
	out := make([]highlight.Token, 0, len(stable)+len(unstable))
	out = append(out, stable...)
	return append(out, unstable...)
}

// Container returns the theme container style computed when the tokenizer
// was created, or nil when the theme defines none.
func (s *Session) Container() *highlight.ContainerStyle {
	return s.container
}
