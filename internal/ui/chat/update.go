// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StatusMsg:
		return m.handleStatus(msg)

	case SourcesMsg:
		m.sources.SetSources(msg.Hits, msg.Loading)
		m.layoutViewport()
		return m, nil

	case LatencyMsg:
		m.latency = msg.Latency
		m.refresh()
		return m, nil

	case StreamTickMsg:
		if text, ok := m.buf.Flush(); ok {
			m.answer = text
			m.refresh()
		}
		if m.status == coordinator.Idle {
			m.ticking = false
			return m, nil
		}
		return m, streamTickCmd()

	case SubmitDoneMsg:
		return m.handleSubmitDone(msg)

	case stopDoneMsg:
		return m, nil

	case spinner.TickMsg:
		if m.status == coordinator.Idle {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.Spinner = m.spinner.View()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.status != coordinator.Idle {
			return m, tea.Sequence(m.stopCmd(), tea.Quit)
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Stop):
		if m.status == coordinator.Idle {
			return m, nil
		}
		return m, m.stopCmd()

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Sources):
		m.showSources = !m.showSources
		m.layoutViewport()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layoutViewport()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a query. Enter does nothing while a query is running or
// when the input is blank.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.status != coordinator.Idle {
		return m, nil
	}
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil
	}

	m.input.Reset()
	m.question = query
	m.answer = ""
	m.latency = 0
	m.result = nil
	m.buf.Reset()
	m.setStatus(coordinator.Retrieving)
	m.sources.SetSources(nil, true)
	m.layoutViewport()
	m.refresh()

	cmds := []tea.Cmd{m.submitCmd(query), m.spinner.Tick}
	if !m.ticking {
		m.ticking = true
		cmds = append(cmds, streamTickCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleStatus(msg StatusMsg) (tea.Model, tea.Cmd) {
	// The answer that led to this status must be on screen before it.
	if text, ok := m.buf.ForceFlush(); ok {
		m.answer = text
	}
	wasIdle := m.status == coordinator.Idle
	m.setStatus(msg.Status)
	m.refresh()

	if msg.Status == coordinator.Idle || !wasIdle {
		return m, nil
	}
	cmds := []tea.Cmd{m.spinner.Tick}
	if !m.ticking {
		m.ticking = true
		cmds = append(cmds, streamTickCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleSubmitDone(msg SubmitDoneMsg) (tea.Model, tea.Cmd) {
	res := msg.Result
	if m.opts.OnResult != nil {
		m.opts.OnResult(res)
	}
	// A superseded or ignored submit says nothing about what is on screen.
	if res.Outcome == coordinator.OutcomeSuperseded || res.Outcome == coordinator.OutcomeIgnored {
		return m, nil
	}
	if text, ok := m.buf.ForceFlush(); ok {
		m.answer = text
	}
	m.result = &res
	m.statusBar.SetResult(res)
	if m.status != coordinator.Idle {
		m.setStatus(coordinator.Idle)
	}
	m.refresh()
	return m, nil
}

func (m *Model) setStatus(s coordinator.Status) {
	m.status = s
	m.statusBar.Status = s
	switch s {
	case coordinator.Retrieving:
		m.spinner.Spinner = styles.DotsSpinner.Bubble()
	case coordinator.Streaming:
		m.spinner.Spinner = styles.LineSpinner.Bubble()
	}
	if s == coordinator.Idle {
		m.input.Placeholder = "Ask a question..."
	} else {
		m.input.Placeholder = "Esc to stop"
	}
}
