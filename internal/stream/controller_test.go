package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glinthq/glint/internal/engine"
	"github.com/glinthq/glint/internal/highlight"
	"github.com/glinthq/glint/internal/pubsub"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func enabledConfig() Config {
	return Config{Enabled: true, Language: "go", Theme: "monokai"}
}

func waitForText(t *testing.T, c *Controller, want string) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return snap.State == StateReady && snap.Err == nil && snap.Lines.Text() == want
	}, waitFor, tick, "timed out waiting for snapshot text %q (last: %q)", want, c.Snapshot().Lines.Text())
	return c.Snapshot()
}

func TestController_StartsIdle(t *testing.T) {
	c := New(newFakeEngine())
	defer c.Dispose()

	snap := c.Snapshot()
	require.Equal(t, StateIdle, snap.State)
	require.Empty(t, snap.Lines)
	require.False(t, snap.Loading)
}

func TestController_ConfigureDisabledStaysIdle(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	defer c.Dispose()

	require.NoError(t, c.Configure(context.Background(), Config{Enabled: false}))

	require.Equal(t, StateIdle, c.State())
	require.Zero(t, eng.createdCount(), "no tokenizer may be held while disabled")
}

func TestController_ConfigureWithEmptyTextPublishesEmptyLine(t *testing.T) {
	c := New(newFakeEngine())
	defer c.Dispose()

	require.NoError(t, c.Configure(context.Background(), enabledConfig()))

	snap := c.Snapshot()
	require.Equal(t, StateReady, snap.State)
	require.Len(t, snap.Lines, 1, "renderers always get at least one line")
	require.Empty(t, snap.Lines[0])
	require.NotNil(t, snap.Container)
	require.Equal(t, "#101010", snap.Container.BackgroundColor)
}

func TestController_AppendOnlyUpdates(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, enabledConfig()))

	c.Update(ctx, "func f")
	waitForText(t, c, "func f")

	c.Update(ctx, "func foo")
	waitForText(t, c, "func foo")

	require.Equal(t, []string{"func f", "oo"}, eng.tokenizer().enqueuedChunks(),
		"only the appended suffix is fed to the tokenizer")
}

func TestController_NoOpRepublishesWithoutEnqueue(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, enabledConfig()))
	c.Update(ctx, "same text")
	waitForText(t, c, "same text")
	before := len(eng.tokenizer().enqueuedChunks())

	events := c.Subscribe(ctx)
	c.Update(ctx, "same text")

	select {
	case event := <-events:
		require.Equal(t, pubsub.SnapshotEvent, event.Type)
		require.Equal(t, "same text", event.Payload.Lines.Text())
	case <-time.After(waitFor):
		require.Fail(t, "expected a republished snapshot for identical text")
	}
	require.Len(t, eng.tokenizer().enqueuedChunks(), before,
		"identical text must not reach the tokenizer")
}

func TestController_CoalescesBurstsToNewestText(t *testing.T) {
	eng := newFakeEngine()
	eng.enqueueGate = make(chan struct{})
	eng.enqueueBegan = make(chan string, 16)
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, enabledConfig()))

	c.Update(ctx, "one")
	select {
	case <-eng.enqueueBegan:
	case <-time.After(waitFor):
		require.Fail(t, "first enqueue never started")
	}

	// These arrive while the first enqueue is blocked; only the newest
	// survives.
	c.Update(ctx, "two")
	c.Update(ctx, "three")
	c.Update(ctx, "four")
	close(eng.enqueueGate)

	waitForText(t, c, "four")
	require.Equal(t, []string{"one", "four"}, eng.tokenizer().enqueuedChunks(),
		"intermediate snapshots must be discarded")
}

func TestController_ConfigureFailureIsTerminal(t *testing.T) {
	eng := newFakeEngine()
	eng.newErr = engine.ErrUnsupportedConfig
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	err := c.Configure(ctx, enabledConfig())
	require.ErrorIs(t, err, engine.ErrUnsupportedConfig)
	require.Equal(t, StateErrored, c.State())
	require.ErrorIs(t, c.Snapshot().Err, engine.ErrUnsupportedConfig)

	// Errored is inert: updates are not attempted.
	c.Update(ctx, "ignored")
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, eng.createdCount())

	// Explicit reconfiguration recovers.
	eng.newErr = nil
	require.NoError(t, c.Configure(ctx, enabledConfig()))
	waitForText(t, c, "ignored")
}

func TestController_TokenizeFailureKeepsStaleLines(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, enabledConfig()))
	c.Update(ctx, "good\n")
	waitForText(t, c, "good\n")

	eng.tokenizer().setFailNext(engine.ErrTokenizeFailed)
	c.Update(ctx, "good\nbad")

	require.Eventually(t, func() bool {
		return c.Snapshot().Err != nil
	}, waitFor, tick)

	snap := c.Snapshot()
	require.Equal(t, StateReady, snap.State, "tokenize failures are not terminal")
	require.ErrorIs(t, snap.Err, engine.ErrTokenizeFailed)
	require.Equal(t, "good\n", snap.Lines.Text(), "last known-good lines are kept")

	// The failed text was committed; only the new suffix is fed next.
	c.Update(ctx, "good\nbadx")
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return snap.Err == nil && snap.Lines.Text() == "good\nx"
	}, waitFor, tick)
	chunks := eng.tokenizer().enqueuedChunks()
	require.Equal(t, "x", chunks[len(chunks)-1])
}

func TestController_DisableReleasesAndClearsLines(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, enabledConfig()))
	c.Update(ctx, "func main()")
	waitForText(t, c, "func main()")

	require.NoError(t, c.Configure(ctx, Config{Enabled: false}))

	snap := c.Snapshot()
	require.Equal(t, StateIdle, snap.State)
	require.Empty(t, snap.Lines)
	require.GreaterOrEqual(t, eng.tokenizer().clearCount(), 1, "tokenizer buffers released")
}

func TestController_ThemeChangeRetokenizesFromScratch(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, enabledConfig()))
	c.Update(ctx, "package main")
	waitForText(t, c, "package main")

	cfg := enabledConfig()
	cfg.Theme = "dracula"
	require.NoError(t, c.Configure(ctx, cfg))

	waitForText(t, c, "package main")
	require.Equal(t, 2, eng.createdCount(), "theme change needs a fresh tokenizer")
	require.Equal(t, []string{"package main"}, eng.tokenizer().enqueuedChunks(),
		"the full current text is replayed into the new tokenizer")
}

func TestController_SetThemeKeepsLanguageAndReplacements(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	cfg := enabledConfig()
	cfg.Replacements = highlight.ColorReplacements{unstableStyle.Color: "#ff00ff"}
	require.NoError(t, c.Configure(ctx, cfg))
	c.Update(ctx, "abc")
	waitForText(t, c, "abc")

	require.NoError(t, c.SetTheme(ctx, "dracula"))

	waitForText(t, c, "abc")
	require.Equal(t, []string{"go/monokai", "go/dracula"}, eng.createdConfigs())
	require.Equal(t, "#ff00ff", c.Snapshot().Lines[0][0].Style.Color,
		"replacements survive the theme switch")
}

func TestController_ReplacementChangeSkipsTokenizer(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	defer c.Dispose()
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, enabledConfig()))
	c.Update(ctx, "abc")
	waitForText(t, c, "abc")
	require.Equal(t, unstableStyle.Color, c.Snapshot().Lines[0][0].Style.Color)

	cfg := enabledConfig()
	cfg.Replacements = highlight.ColorReplacements{unstableStyle.Color: "#ff00ff"}
	require.NoError(t, c.Configure(ctx, cfg))

	snap := c.Snapshot()
	require.Equal(t, "#ff00ff", snap.Lines[0][0].Style.Color)
	require.Equal(t, 1, eng.createdCount(), "presentation change must not rebuild the tokenizer")
	require.Equal(t, []string{"abc"}, eng.tokenizer().enqueuedChunks())
}

func TestController_DisposeIsIdempotentAndTerminal(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng)
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, enabledConfig()))
	c.Update(ctx, "text")
	waitForText(t, c, "text")

	c.Dispose()
	c.Dispose()

	require.Equal(t, StateDisposed, c.State())
	require.ErrorIs(t, c.Configure(ctx, enabledConfig()), ErrDisposed)

	before := len(eng.tokenizer().enqueuedChunks())
	c.Update(ctx, "after dispose")
	time.Sleep(20 * time.Millisecond)
	require.Len(t, eng.tokenizer().enqueuedChunks(), before)
}
