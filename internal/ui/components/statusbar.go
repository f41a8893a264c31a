// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom bar: request status, the outcome of the last
// answer and key hints.
type StatusBar struct {
	Status  coordinator.Status
	Spinner string // current spinner frame, shown while busy

	// Last finished answer.
	Outcome  coordinator.Outcome
	Finished bool
	Tokens   int
	Latency  time.Duration

	Width         int
	ShowShortcuts bool
	theme         *styles.Theme
}

// NewStatusBar creates a status bar in the idle state.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:        coordinator.Idle,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetResult records the outcome of a finished answer.
func (s *StatusBar) SetResult(res coordinator.Result) {
	s.Outcome = res.Outcome
	s.Tokens = res.Tokens
	s.Latency = res.Latency
	s.Finished = res.Outcome != coordinator.OutcomeIgnored
}

// View renders the status bar.
func (s *StatusBar) View() string {
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	parts := []string{s.renderStatus()}
	if s.Status == coordinator.Idle && s.Finished {
		parts = append(parts, s.renderOutcome())
		if s.Width >= 60 {
			parts = append(parts, fmtNumber(s.Tokens)+" tokens")
		}
	}
	left := strings.Join(parts, sep)

	if !s.ShowShortcuts || s.Width < 60 {
		return s.theme.StatusBar.Width(s.Width).Render(left)
	}

	right := s.renderShortcuts()
	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return s.theme.StatusBar.Width(s.Width).Render(left)
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderStatus renders the status with a shape indicator.
func (s *StatusBar) renderStatus() string {
	switch s.Status {
	case coordinator.Retrieving:
		return s.theme.StatusRetrieve.Render(s.Spinner + " Retrieving")
	case coordinator.Streaming:
		return s.theme.StatusStreaming.Render(s.Spinner + " Streaming")
	default:
		return s.theme.StatusIdle.Render(styles.StatusIndicators.Success + " Ready")
	}
}

func (s *StatusBar) renderOutcome() string {
	switch s.Outcome {
	case coordinator.OutcomeCompleted:
		return s.theme.LatencyPill.Render(FormatLatency(s.Latency))
	case coordinator.OutcomeFailed:
		return s.theme.Failed.Render(styles.StatusIndicators.Error + " stream failed")
	default:
		return s.theme.Stopped.Render(styles.StatusIndicators.Warning + " stopped")
	}
}

func (s *StatusBar) renderShortcuts() string {
	hint := func(key, desc string) string {
		return s.theme.ShortcutKey.Render(key) + " " + s.theme.ShortcutDesc.Render(desc)
	}
	if s.Status == coordinator.Idle {
		return strings.Join([]string{hint("enter", "ask"), hint("tab", "sources"), hint("^c", "quit")}, "  ")
	}
	return strings.Join([]string{hint("esc", "stop"), hint("^c", "quit")}, "  ")
}
