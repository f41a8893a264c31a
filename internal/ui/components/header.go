// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agenthub/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the one-line title bar: brand, backend and passage count.
type Header struct {
	Title   string
	Backend string
	TopK    int
	Width   int
	theme   *styles.Theme
}

// NewHeader creates a header with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "agenthub",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetBackend updates the backend shown in the subtitle.
func (h *Header) SetBackend(baseURL string, topK int) {
	h.Backend = baseURL
	h.TopK = topK
}

// View renders the header. Narrow terminals get the title only.
func (h *Header) View() string {
	width := max(h.Width, 20)

	title := h.theme.HeaderTitle.Render("< " + h.Title + " >")
	if width < 60 || h.Backend == "" {
		return h.theme.Header.Width(width).Render(title)
	}

	parts := []string{h.Backend}
	if h.TopK > 0 {
		parts = append(parts, "top "+strconv.Itoa(h.TopK))
	}
	subtitle := h.theme.HeaderSubtitle.Render(strings.Join(parts, " | "))

	gap := width - lipgloss.Width(title) - lipgloss.Width(subtitle) - 2
	if gap < 1 {
		return h.theme.Header.Width(width).Render(title)
	}
	return h.theme.Header.Width(width).Render(title + strings.Repeat(" ", gap) + subtitle)
}
