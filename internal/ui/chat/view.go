// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/ui/components"
)

const (
	emptyPrompt   = "Ask a question to get started."
	workingMarker = "…"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	parts := []string{m.header.View(), m.viewport.View()}
	if m.showSources {
		parts = append(parts, m.sources.View())
	}
	parts = append(parts,
		m.renderInput(),
		m.statusBar.View(),
		m.help.View(m.keys),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// refresh re-renders the answer pane content, following the bottom while
// a query is running.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	if m.status != coordinator.Idle {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderConversation() string {
	width := max(m.width-2, 10)

	if m.question == "" {
		return m.theme.Placeholder.Render(emptyPrompt)
	}

	var b strings.Builder
	b.WriteString(m.theme.Question.Width(width).Render(m.question))
	b.WriteString("\n\n")
	b.WriteString(m.renderAnswer(width))

	if footer := m.renderFooter(); footer != "" {
		b.WriteString("\n\n")
		b.WriteString(footer)
	}
	return b.String()
}

func (m *Model) renderAnswer(width int) string {
	if m.answer == "" {
		if m.status != coordinator.Idle {
			return m.theme.Working.Render(workingMarker)
		}
		return m.theme.Placeholder.Render(emptyPrompt)
	}

	// Markdown is only rendered once the answer stops changing.
	if m.status == coordinator.Idle {
		if r := m.markdown(); r != nil {
			if out, err := r.Render(m.answer); err == nil {
				return strings.TrimRight(out, "\n")
			}
		}
	}
	return m.theme.Answer.Width(width).Render(m.answer)
}

// renderFooter shows the latency pill after a normal completion, or how
// the last answer ended otherwise.
func (m *Model) renderFooter() string {
	if m.status != coordinator.Idle {
		return ""
	}
	if m.result == nil {
		if m.latency > 0 {
			return m.theme.LatencyPill.Render(components.FormatLatency(m.latency))
		}
		return ""
	}
	switch m.result.Outcome {
	case coordinator.OutcomeCompleted:
		return m.theme.LatencyPill.Render(components.FormatLatency(m.result.Latency))
	case coordinator.OutcomeFailed:
		return m.theme.Failed.Render("stream failed")
	case coordinator.OutcomeCancelled:
		return m.theme.Stopped.Render("stopped")
	}
	return ""
}

func (m Model) renderInput() string {
	input := m.input.View()
	if m.status != coordinator.Idle {
		input = m.theme.InputDisabled.Render(input)
	}
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(input)
}
