// Package viewer contains the root Bubble Tea model: a scrollable view of
// the highlighted document with a status bar and help overlay.
package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/glinthq/glint/internal/config"
	"github.com/glinthq/glint/internal/engine"
	"github.com/glinthq/glint/internal/keys"
	"github.com/glinthq/glint/internal/log"
	"github.com/glinthq/glint/internal/pubsub"
	"github.com/glinthq/glint/internal/stream"
	"github.com/glinthq/glint/internal/ui/help"
	"github.com/glinthq/glint/internal/ui/render"
	"github.com/glinthq/glint/internal/ui/styles"
)

// Options configures the viewer.
type Options struct {
	FileName      string
	Language      string
	Theme         string
	ShowStatusBar bool
	ShowLineNums  bool
	// ConfigPath is where theme changes are persisted; empty disables
	// persistence.
	ConfigPath string
}

// Model is the root viewer state.
type Model struct {
	ctx      context.Context
	ctrl     *stream.Controller
	listener *pubsub.ContinuousListener[stream.Snapshot]

	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keys.KeyMap

	snapshot stream.Snapshot
	opts     Options
	wrap     bool

	width  int
	height int
	ready  bool
}

// New creates a viewer bound to the controller. The subscription lives
// until ctx is cancelled.
func New(ctx context.Context, ctrl *stream.Controller, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		listener: pubsub.NewContinuousListener(ctx, ctrl.Broker()),
		spinner:  sp,
		help:     help.New(),
		keys:     keys.DefaultKeyMap(),
		snapshot: ctrl.Snapshot(),
		opts:     opts,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listener.Listen(), m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[stream.Snapshot]:
		m.snapshot = msg.Payload
		m.refreshContent()
		if m.snapshot.Loading {
			return m, tea.Batch(m.listener.Listen(), m.spinner.Tick)
		}
		return m, m.listener.Listen()

	case spinner.TickMsg:
		if !m.snapshot.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help = m.help.SetWidth(msg.Width)
		vpHeight := msg.Height
		if m.opts.ShowStatusBar {
			vpHeight--
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(vpHeight, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(vpHeight, 1)
		}
		m.refreshContent()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.help.Visible() {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help):
			m.help = m.help.Hide()
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help = m.help.Toggle()
	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.GotoTop):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.GotoBottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keys.StatusBar):
		m.opts.ShowStatusBar = !m.opts.ShowStatusBar
		vpHeight := m.height
		if m.opts.ShowStatusBar {
			vpHeight--
		}
		m.viewport.Height = max(vpHeight, 1)
	case key.Matches(msg, m.keys.LineNums):
		m.opts.ShowLineNums = !m.opts.ShowLineNums
		m.refreshContent()
	case key.Matches(msg, m.keys.Wrap):
		m.wrap = !m.wrap
		m.refreshContent()
	case key.Matches(msg, m.keys.Theme):
		m.opts.Theme = nextTheme(m.opts.Theme)
		return m, m.applyTheme(m.opts.Theme)
	}
	return m, nil
}

// nextTheme returns the theme after current in the engine's registry,
// wrapping around.
func nextTheme(current string) string {
	themes := engine.Themes()
	if len(themes) == 0 {
		return current
	}
	for i, name := range themes {
		if name == current {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

// applyTheme retokenizes under the new theme off the update loop and
// persists the choice so the next run starts with it.
func (m Model) applyTheme(theme string) tea.Cmd {
	ctx, ctrl, path := m.ctx, m.ctrl, m.opts.ConfigPath
	return func() tea.Msg {
		if err := ctrl.SetTheme(ctx, theme); err != nil {
			log.ErrorErr(log.CatUI, "theme switch failed", err, "theme", theme)
			return nil
		}
		if path == "" {
			return nil
		}
		if err := config.SaveTheme(path, theme); err != nil {
			log.ErrorErr(log.CatConfig, "persisting theme failed", err, "path", path)
		}
		return nil
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.viewport.View())
	if m.opts.ShowStatusBar {
		sb.WriteString("\n")
		sb.WriteString(m.statusBar())
	}

	if m.help.Visible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.help.View())
	}
	return sb.String()
}

// refreshContent re-renders the snapshot into the viewport. When the view
// was pinned to the bottom it stays pinned, so streaming input tails.
func (m *Model) refreshContent() {
	if !m.ready {
		return
	}

	atBottom := m.viewport.AtBottom()

	width := m.viewport.Width
	truncWidth := width
	if m.wrap {
		// Wrapping happens below instead of truncating.
		truncWidth = 0
	}
	rows := render.Document(m.snapshot.Lines, render.Options{
		Width:        truncWidth,
		ShowLineNums: m.opts.ShowLineNums,
		Container:    m.snapshot.Container,
	})

	content := strings.Join(rows, "\n")
	if m.wrap && width > 0 {
		content = wordwrap.String(content, width)
	}
	m.viewport.SetContent(content)

	if atBottom {
		m.viewport.GotoBottom()
	}
}

// statusBar renders one row: file and config on the left, highlight state
// and scroll position on the right.
func (m Model) statusBar() string {
	left := m.opts.FileName
	if left == "" {
		left = "(stdin)"
	}
	if m.opts.Language != "" {
		left += "  " + m.opts.Language
	}
	if m.opts.Theme != "" {
		left += "/" + m.opts.Theme
	}

	var state string
	switch {
	case m.snapshot.Err != nil:
		state = styles.StatusErrorStyle.Render("✗ " + shortError(m.snapshot.Err))
	case m.snapshot.Loading:
		state = m.spinner.View() + " highlighting"
	case m.snapshot.State == stream.StateReady:
		state = styles.StatusSuccessStyle.Render("✓")
	default:
		state = string(m.snapshot.State)
	}

	right := fmt.Sprintf("%s  %d lines  %3.0f%%",
		state, len(m.snapshot.Lines), m.viewport.ScrollPercent()*100)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return styles.StatusBarStyle.Width(m.width).Render(bar)
}

// shortError keeps the status bar single-line even for wrapped errors.
func shortError(err error) string {
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	if len(msg) > 60 {
		msg = msg[:57] + "..."
	}
	return msg
}
