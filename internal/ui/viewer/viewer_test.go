package viewer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glinthq/glint/internal/engine"
	"github.com/glinthq/glint/internal/highlight"
	"github.com/glinthq/glint/internal/pubsub"
	"github.com/glinthq/glint/internal/stream"
)

// stubEngine satisfies engine.Engine for viewer tests. The viewer never
// drives the engine directly, so plain tokens are enough.
type stubEngine struct{}

func (stubEngine) NewTokenizer(language, theme string) (engine.Tokenizer, error) {
	return stubTokenizer{}, nil
}

func (stubEngine) ThemeStyle(theme string) (*highlight.ContainerStyle, error) {
	return &highlight.ContainerStyle{BackgroundColor: "#101010"}, nil
}

type stubTokenizer struct{}

func (stubTokenizer) Enqueue(context.Context, string) error { return nil }
func (stubTokenizer) Stable() []highlight.Token             { return nil }
func (stubTokenizer) Unstable() []highlight.Token           { return nil }
func (stubTokenizer) Clear()                                {}

func snapshotEvent(snap stream.Snapshot) pubsub.Event[stream.Snapshot] {
	return pubsub.Event[stream.Snapshot]{Type: pubsub.SnapshotEvent, Payload: snap}
}

func readySnapshot(text string) stream.Snapshot {
	return stream.Snapshot{
		State: stream.StateReady,
		Lines: highlight.Document{{{Content: text}}},
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	ctrl := stream.New(stubEngine{})
	t.Cleanup(ctrl.Dispose)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return New(ctx, ctrl, Options{
		FileName:      "main.go",
		Language:      "go",
		Theme:         "monokai",
		ShowStatusBar: true,
	})
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestModel_ViewEmptyBeforeSize(t *testing.T) {
	m := newTestModel(t)
	assert.Empty(t, m.View(), "no rendering before the terminal size is known")
}

func TestModel_SnapshotRendersLines(t *testing.T) {
	m := sized(t, newTestModel(t))

	updated, cmd := m.Update(snapshotEvent(readySnapshot("package main")))
	m = updated.(Model)
	require.NotNil(t, cmd, "listener must be re-armed after every snapshot")

	out := ansi.Strip(m.View())
	assert.Contains(t, out, "package main")
	assert.Contains(t, out, "main.go", "status bar shows the file name")
	assert.Contains(t, out, "go/monokai", "status bar shows language and theme")
	assert.Contains(t, out, "✓", "ready state is marked in the status bar")
}

func TestModel_ErrorShownInStatusBar(t *testing.T) {
	m := sized(t, newTestModel(t))

	snap := readySnapshot("stale")
	snap.Err = errors.New("tokenize failed: boom")
	updated, _ := m.Update(snapshotEvent(snap))
	m = updated.(Model)

	out := ansi.Strip(m.View())
	assert.Contains(t, out, "stale", "stale lines stay visible")
	assert.Contains(t, out, "tokenize failed: boom")
}

func TestModel_HelpToggle(t *testing.T) {
	m := sized(t, newTestModel(t))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	m = updated.(Model)
	assert.Contains(t, ansi.Strip(m.View()), "Keybindings")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.NotContains(t, ansi.Strip(m.View()), "Keybindings")
}

func TestModel_QuitKey(t *testing.T) {
	m := sized(t, newTestModel(t))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_LineNumberToggle(t *testing.T) {
	m := sized(t, newTestModel(t))
	updated, _ := m.Update(snapshotEvent(readySnapshot("x")))
	m = updated.(Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	m = updated.(Model)
	assert.Contains(t, ansi.Strip(m.View()), "1 x")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	m = updated.(Model)
	assert.NotContains(t, ansi.Strip(m.View()), "1 x")
}

func TestModel_ThemeKeyCyclesAndPersists(t *testing.T) {
	ctrl := stream.New(stubEngine{})
	t.Cleanup(ctrl.Dispose)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, ctrl.Configure(ctx, stream.Config{
		Enabled: true, Language: "go", Theme: "monokai",
	}))

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	m := New(ctx, ctrl, Options{
		FileName:      "main.go",
		Language:      "go",
		Theme:         "monokai",
		ShowStatusBar: true,
		ConfigPath:    cfgPath,
	})
	m = sized(t, m)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	m = updated.(Model)
	require.NotNil(t, cmd, "theme switch runs as a command")
	require.NotEqual(t, "monokai", m.opts.Theme)
	assert.Contains(t, ansi.Strip(m.View()), "go/"+m.opts.Theme,
		"status bar reflects the new theme immediately")

	cmd()

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "theme: "+m.opts.Theme,
		"the chosen theme survives restarts")
}

func TestModel_StatusBarToggleGrowsViewport(t *testing.T) {
	m := sized(t, newTestModel(t))
	require.Equal(t, 23, m.viewport.Height)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m = updated.(Model)
	assert.Equal(t, 24, m.viewport.Height)
}

// End-to-end smoke test: snapshots published by the controller reach the
// screen through the real program loop.
func TestModel_ProgramRendersPublishedSnapshots(t *testing.T) {
	ctrl := stream.New(stubEngine{})
	defer ctrl.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := New(ctx, ctrl, Options{FileName: "demo.go", ShowStatusBar: true})
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	tm.Send(snapshotEvent(readySnapshot("hello from the stream")))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return containsStripped(bts, "hello from the stream")
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}

func containsStripped(bts []byte, want string) bool {
	return strings.Contains(ansi.Strip(string(bts)), want)
}
