package stream

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/glinthq/glint/internal/engine"
	"github.com/glinthq/glint/internal/highlight"
	"github.com/glinthq/glint/internal/log"
	"github.com/glinthq/glint/internal/pubsub"
)

// ErrDisposed is reported for calls arriving after Dispose.
var ErrDisposed = errors.New("stream: controller disposed")

// State names the controller's lifecycle phase.
type State string

const (
	// StateIdle means streaming is disabled or not yet configured.
	StateIdle State = "idle"
	// StateInitializing means the engine or tokenizer is being set up.
	StateInitializing State = "initializing"
	// StateReady means updates are accepted and highlighted.
	StateReady State = "ready"
	// StateErrored means setup failed; terminal until reconfigured.
	StateErrored State = "errored"
	// StateDisposed means the controller was torn down for good.
	StateDisposed State = "disposed"
)

// Snapshot is the published view of a session: renderable lines plus
// loading and error state. Lines keep their last good value while Err is
// set, so callers never blank the view on a transient failure.
type Snapshot struct {
	State     State
	Lines     highlight.Document
	Container *highlight.ContainerStyle
	Loading   bool
	Err       error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithTracer sets the tracer used for configure/update spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

// Controller orchestrates the streaming highlight pipeline for one logical
// session. Updates are serialized and coalesced: while one engine call is
// in flight, only the newest pending text is kept; intermediate snapshots
// are discarded. This bounds work under rapid-fire updates without
// cancelling the underlying engine call.
type Controller struct {
	mu   sync.Mutex
	cond *sync.Cond

	session *Session
	broker  *pubsub.Broker[Snapshot]
	tracer  trace.Tracer

	cfg      Config
	state    State
	snap     Snapshot
	lastText string

	pending   *string
	forceNext bool
	inFlight  bool
}

// New creates an idle controller. A nil engine defers to the lazily-loaded
// process-wide engine.
func New(eng engine.Engine, opts ...Option) *Controller {
	c := &Controller{
		session: NewSession(eng),
		broker:  pubsub.NewBroker[Snapshot](),
		tracer:  otel.Tracer("glint/stream"),
		state:   StateIdle,
		snap:    Snapshot{State: StateIdle, Lines: highlight.Document{}},
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configure applies a new engine configuration. Enabling, or changing
// language or theme, tears down the previous tokenizer and retokenizes the
// current text from scratch; disabling releases everything and clears the
// output. Changing only the color replacements republishes the current
// tokens without touching the tokenizer.
func (c *Controller) Configure(ctx context.Context, cfg Config) error {
	ctx, span := c.tracer.Start(ctx, "stream.configure", trace.WithAttributes(
		attribute.String("session.id", c.session.ID()),
		attribute.Bool("enabled", cfg.Enabled),
		attribute.String("language", cfg.Language),
		attribute.String("theme", cfg.Theme),
	))
	defer span.End()

	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.waitQuiescentLocked()

	// Presentation-only change: same tokenizer identity, new replacements.
	if cfg.Enabled && c.state == StateReady &&
		cfg.Language == c.cfg.Language && cfg.Theme == c.cfg.Theme {
		c.cfg = cfg
		c.setSnapshotLocked(Snapshot{
			State:     StateReady,
			Lines:     buildLines(c.session.Tokens(), cfg.Replacements),
			Container: c.session.Container(),
		})
		c.mu.Unlock()
		return nil
	}

	c.cfg = cfg

	if !cfg.Enabled {
		c.session.Release()
		c.state = StateIdle
		c.pending = nil
		c.setSnapshotLocked(Snapshot{State: StateIdle, Lines: highlight.Document{}})
		c.mu.Unlock()
		log.Info(log.CatStream, "streaming disabled", "session", c.session.ID())
		return nil
	}

	c.state = StateInitializing
	c.setSnapshotLocked(Snapshot{
		State:     StateInitializing,
		Loading:   true,
		Lines:     c.snap.Lines,
		Container: c.snap.Container,
	})
	// Hold the pipeline while the tokenizer is built; updates arriving in
	// the meantime park in the pending slot.
	c.inFlight = true
	c.mu.Unlock()

	err := c.session.Ensure(ctx, cfg)

	c.mu.Lock()
	c.inFlight = false
	c.cond.Broadcast()
	if c.state == StateDisposed {
		c.session.Release()
		c.mu.Unlock()
		return ErrDisposed
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup failed")
		c.state = StateErrored
		c.setSnapshotLocked(Snapshot{
			State:     StateErrored,
			Lines:     c.snap.Lines,
			Container: c.snap.Container,
			Err:       err,
		})
		c.mu.Unlock()
		log.ErrorErr(log.CatStream, "configure failed", err, "session", c.session.ID())
		return err
	}

	c.state = StateReady
	if c.pending == nil && c.lastText != "" {
		text := c.lastText
		c.pending = &text
	}
	if c.pending != nil {
		// First pass under a fresh tokenizer is a forced reset.
		c.forceNext = true
		c.startDrainLocked(ctx)
	} else {
		c.setSnapshotLocked(Snapshot{
			State:     StateReady,
			Lines:     highlight.SplitLines(nil),
			Container: c.session.Container(),
		})
	}
	c.mu.Unlock()
	return nil
}

// SetTheme reconfigures the session under a new theme, keeping the current
// language and replacements. The tokenizer is rebuilt and the current text
// retokenized from scratch.
func (c *Controller) SetTheme(ctx context.Context, theme string) error {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()
	cfg.Theme = theme
	return c.Configure(ctx, cfg)
}

// Update submits a new text snapshot. It never blocks on the engine: while
// one update is in flight the newest text parks in a one-slot buffer and
// intermediate snapshots are discarded. Updates are ignored while idle,
// errored, or disposed.
func (c *Controller) Update(ctx context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisposed {
		return
	}
	c.lastText = text

	switch c.state {
	case StateReady:
		c.pending = &text
		c.startDrainLocked(ctx)
	case StateInitializing:
		// Parked; Configure drains it once the tokenizer is up.
		c.pending = &text
	default:
		// Idle and errored sessions are inert until reconfigured, but
		// lastText is kept so reconfiguration picks up the current text.
	}
}

// Dispose tears the session down. Idempotent. Any in-flight engine call
// finishes first; then the tokenizer is released and the snapshot stream
// closed. Only this session's tokenizer is released, never the shared
// engine.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisposed {
		return
	}
	c.state = StateDisposed
	c.pending = nil
	c.waitQuiescentLocked()
	c.session.Release()
	c.broker.Close()
	log.Info(log.CatStream, "session disposed", "session", c.session.ID())
}

// Snapshot returns the most recently published snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Broker exposes the snapshot broker for observers; the TUI attaches a
// continuous listener to it.
func (c *Controller) Broker() *pubsub.Broker[Snapshot] {
	return c.broker
}

// Subscribe returns a channel of snapshot events scoped to ctx.
func (c *Controller) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return c.broker.Subscribe(ctx)
}

func (c *Controller) waitQuiescentLocked() {
	for c.inFlight {
		c.cond.Wait()
	}
}

func (c *Controller) startDrainLocked(ctx context.Context) {
	if c.inFlight {
		return
	}
	c.inFlight = true
	go c.drain(context.WithoutCancel(ctx))
}

// drain processes pending texts one at a time until the slot is empty,
// publishing a snapshot after each. It is the only goroutine that touches
// the tokenizer while running.
func (c *Controller) drain(ctx context.Context) {
	for {
		c.mu.Lock()
		if c.state != StateReady || c.pending == nil {
			c.inFlight = false
			c.cond.Broadcast()
			c.mu.Unlock()
			return
		}
		text := *c.pending
		c.pending = nil
		force := c.forceNext
		c.forceNext = false
		repl := c.cfg.Replacements
		session := c.session
		c.mu.Unlock()

		spanCtx, span := c.tracer.Start(ctx, "stream.update", trace.WithAttributes(
			attribute.String("session.id", session.ID()),
			attribute.Int("text_bytes", len(text)),
		))
		pl, err := session.Apply(spanCtx, text, force)
		span.SetAttributes(
			attribute.String("plan.kind", pl.Kind.String()),
			attribute.Int("plan.chunk_bytes", len(pl.Chunk)),
			attribute.Int("plan.edit_at", pl.EditAt),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "enqueue failed")
		}
		span.End()

		c.mu.Lock()
		if c.state != StateReady {
			c.inFlight = false
			c.cond.Broadcast()
			c.mu.Unlock()
			return
		}
		snap := Snapshot{State: StateReady, Container: session.Container()}
		if err != nil {
			// Tokenize failures are local: keep the last known-good
			// lines, surface the error, accept subsequent updates.
			snap.Err = err
			snap.Lines = c.snap.Lines
			log.ErrorErr(log.CatStream, "update failed", err,
				"session", session.ID(), "plan", pl.Kind)
		} else {
			snap.Lines = buildLines(session.Tokens(), repl)
		}
		c.setSnapshotLocked(snap)
		c.mu.Unlock()
	}
}

func (c *Controller) setSnapshotLocked(snap Snapshot) {
	if snap.State != c.snap.State {
		c.broker.Publish(pubsub.StateEvent, snap)
	}
	c.snap = snap
	c.broker.Publish(pubsub.SnapshotEvent, snap)
}

// buildLines turns a token stream into renderable lines, applying color
// replacements per token without touching the originals.
func buildLines(tokens []highlight.Token, repl highlight.ColorReplacements) highlight.Document {
	if len(repl) > 0 {
		replaced := make([]highlight.Token, len(tokens))
		for i, tok := range tokens {
			tok.Style = highlight.ApplyReplacements(tok.Style, repl)
			replaced[i] = tok
		}
		tokens = replaced
	}
	return highlight.SplitLines(tokens)
}
