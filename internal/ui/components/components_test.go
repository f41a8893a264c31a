// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

func TestFmtNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, fmtNumber(tc.in), "fmtNumber(%d)", tc.in)
	}
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "412 ms", FormatLatency(412*time.Millisecond))
	assert.Equal(t, "1,500 ms", FormatLatency(1500*time.Millisecond))
}

// =============================================================================
// HEADER
// =============================================================================

func TestHeader_View(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetBackend("http://localhost:8000", 4)

	h.SetWidth(100)
	view := h.View()
	assert.Contains(t, view, "agenthub")
	assert.Contains(t, view, "http://localhost:8000")
	assert.Contains(t, view, "top 4")

	h.SetWidth(40)
	view = h.View()
	assert.Contains(t, view, "agenthub")
	assert.NotContains(t, view, "localhost")
}

// =============================================================================
// STATUS BAR
// =============================================================================

func TestStatusBar_Statuses(t *testing.T) {
	s := NewStatusBar(styles.NewTheme())
	s.SetWidth(100)

	assert.Contains(t, s.View(), "Ready")
	assert.Contains(t, s.View(), "ask")

	s.Status = coordinator.Retrieving
	s.Spinner = "*"
	assert.Contains(t, s.View(), "* Retrieving")
	assert.Contains(t, s.View(), "stop")

	s.Status = coordinator.Streaming
	assert.Contains(t, s.View(), "* Streaming")
}

func TestStatusBar_Outcomes(t *testing.T) {
	s := NewStatusBar(styles.NewTheme())
	s.SetWidth(100)

	s.SetResult(coordinator.Result{Outcome: coordinator.OutcomeCompleted, Tokens: 12, Latency: 250 * time.Millisecond})
	view := s.View()
	assert.Contains(t, view, "250 ms")
	assert.Contains(t, view, "12 tokens")

	s.SetResult(coordinator.Result{Outcome: coordinator.OutcomeFailed, Err: errors.New("boom")})
	assert.Contains(t, s.View(), "stream failed")

	s.SetResult(coordinator.Result{Outcome: coordinator.OutcomeCancelled})
	assert.Contains(t, s.View(), "stopped")

	s.SetResult(coordinator.Result{Outcome: coordinator.OutcomeIgnored})
	assert.NotContains(t, s.View(), "stopped")
}

func TestStatusBar_NarrowHidesShortcuts(t *testing.T) {
	s := NewStatusBar(styles.NewTheme())
	s.SetWidth(40)
	assert.Contains(t, s.View(), "Ready")
	assert.NotContains(t, s.View(), "quit")
}

// =============================================================================
// SOURCES PANEL
// =============================================================================

func TestSourcesPanel_States(t *testing.T) {
	p := NewSourcesPanel(styles.NewTheme())
	p.SetWidth(80)
	assert.Contains(t, p.View(), "after you ask")

	p.SetSources([]agenthub.SourceHit{}, true)
	assert.Contains(t, p.View(), "Retrieving")

	p.SetSources([]agenthub.SourceHit{}, false)
	assert.Contains(t, p.View(), "No sources.")
}

func TestSourcesPanel_Hits(t *testing.T) {
	p := NewSourcesPanel(styles.NewTheme())
	p.SetWidth(80)
	p.SetSources([]agenthub.SourceHit{
		{Text: "Sixteen   kinds\nof widget", Score: 0.91, Source: "docs/widgets.md"},
		{Text: "untitled", Score: 0.4},
	}, false)

	view := p.View()
	assert.Contains(t, view, "[1] docs/widgets.md (0.910)")
	assert.Contains(t, view, "Sixteen kinds of widget")
	assert.Contains(t, view, "[2] passage (0.400)")
	assert.Equal(t, lipgloss.Height(view), p.Height())
	assert.Equal(t, 5+2, len(strings.Split(view, "\n")))
}
