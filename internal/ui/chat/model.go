// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/ui/components"
	"github.com/jeranaias/agenthub/internal/ui/styles"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs queries for the chat screen. *coordinator.Coordinator
// satisfies it.
type Controller interface {
	Submit(ctx context.Context, query string) coordinator.Result
	Stop()
}

// Options configures the chat screen.
type Options struct {
	// Connect builds the controller that reports to obs. Called once by Run.
	Connect func(obs coordinator.Observer) Controller

	BaseURL     string
	TopK        int
	Markdown    bool
	ShowSources bool

	// OnResult is called with every finished submit.
	OnResult func(coordinator.Result)

	Logger *slog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat screen: one question, its streamed answer and the
// passages it was grounded on.
type Model struct {
	ctx  context.Context
	ctrl Controller
	opts Options
	buf  *answerBuffer

	theme     *styles.Theme
	keys      KeyMap
	help      help.Model
	header    *components.Header
	statusBar *components.StatusBar
	sources   *components.SourcesPanel

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	status   coordinator.Status
	question string
	answer   string
	latency  time.Duration
	result   *coordinator.Result // last finished submit

	showSources bool
	ticking     bool
	width       int
	height      int

	md      *glamour.TermRenderer
	mdWidth int
}

// newModel creates a chat model driving ctrl. buf must be the buffer the
// controller's observer writes answers into.
func newModel(ctx context.Context, ctrl Controller, buf *answerBuffer, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	theme := styles.NewTheme()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = styles.DotsSpinner.Bubble()
	sp.Style = theme.Spinner

	header := components.NewHeader(theme)
	header.SetBackend(opts.BaseURL, opts.TopK)

	m := Model{
		ctx:         ctx,
		ctrl:        ctrl,
		opts:        opts,
		buf:         buf,
		theme:       theme,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		header:      header,
		statusBar:   components.NewStatusBar(theme),
		sources:     components.NewSourcesPanel(theme),
		viewport:    viewport.New(80, 20),
		input:       ti,
		spinner:     sp,
		status:      coordinator.Idle,
		showSources: opts.ShowSources,
	}
	m.setSize(80, 24)
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Status returns the status last reported by the controller.
func (m Model) Status() coordinator.Status {
	return m.status
}

// Answer returns the answer as currently displayed.
func (m Model) Answer() string {
	return m.answer
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) submitCmd(query string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return SubmitDoneMsg{Result: ctrl.Submit(ctx, query)}
	}
}

func (m Model) stopCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Stop()
		return stopDoneMsg{}
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight    = 1
	inputHeight     = 2 // top border + line
	statusBarHeight = 1
	helpHeight      = 1
)

func (m *Model) setSize(width, height int) {
	m.width = max(width, 20)
	m.height = max(height, 8)
	m.theme.SetSize(m.width, m.height)

	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.sources.SetWidth(m.width)
	m.help.Width = m.width

	m.input.Width = max(m.width-4-len(m.input.Prompt), 10)
	m.viewport.Width = m.width
	m.layoutViewport()
}

// layoutViewport sizes the answer pane to the space the other panes leave.
func (m *Model) layoutViewport() {
	reserved := headerHeight + inputHeight + statusBarHeight
	if m.help.ShowAll {
		reserved += len(m.keys.FullHelp()) + 1
	} else {
		reserved += helpHeight
	}
	if m.showSources {
		reserved += m.sources.Height()
	}
	m.viewport.Height = max(m.height-reserved, 1)
}

// markdown returns a glamour renderer for the current width, or nil when
// markdown is off or the renderer could not be built.
func (m *Model) markdown() *glamour.TermRenderer {
	if !m.opts.Markdown {
		return nil
	}
	width := max(m.width-4, 20)
	if m.md != nil && m.mdWidth == width {
		return m.md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.opts.Logger.Debug("markdown_unavailable", "error", err)
		return nil
	}
	m.md, m.mdWidth = r, width
	return r
}
