// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/ui/styles"
	"github.com/jeranaias/agenthub/internal/util"
)

// =============================================================================
// SOURCES PANEL COMPONENT
// =============================================================================

// SourcesPanel lists the passages retrieved for the current question.
type SourcesPanel struct {
	Hits    []agenthub.SourceHit
	Loading bool

	// Asked is false until the first question; the panel is empty until then.
	Asked bool

	Width int
	theme *styles.Theme
}

// NewSourcesPanel creates an empty panel.
func NewSourcesPanel(theme *styles.Theme) *SourcesPanel {
	return &SourcesPanel{Width: 80, theme: theme}
}

// SetWidth updates the panel width.
func (p *SourcesPanel) SetWidth(width int) {
	p.Width = width
}

// SetSources replaces the hit list and loading flag.
func (p *SourcesPanel) SetSources(hits []agenthub.SourceHit, loading bool) {
	p.Hits = hits
	p.Loading = loading
	p.Asked = true
}

// Height returns the number of lines View renders.
func (p *SourcesPanel) Height() int {
	return lipgloss.Height(p.View())
}

// View renders the panel.
func (p *SourcesPanel) View() string {
	inner := max(p.Width-2, 10)
	return p.theme.SourcesPanel.Width(inner).Render(strings.Join(p.lines(), "\n"))
}

func (p *SourcesPanel) lines() []string {
	title := p.theme.SourcesTitle.Render("Sources")
	switch {
	case !p.Asked:
		return []string{title, p.theme.Placeholder.Render("Passages appear here after you ask.")}
	case p.Loading:
		return []string{title, p.theme.Placeholder.Render("Retrieving…")}
	case len(p.Hits) == 0:
		return []string{title, p.theme.Placeholder.Render("No sources.")}
	}

	textWidth := max(p.Width-12, 20)
	lines := []string{title}
	for i, h := range p.Hits {
		name := "passage"
		if h.HasSource() {
			name = util.TruncateWidth(h.Source, textWidth-10)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			p.theme.SourceRank.Render(fmt.Sprintf("[%d]", i+1)),
			p.theme.SourceName.Render(name),
			p.theme.SourceScore.Render(fmt.Sprintf("(%.3f)", h.Score)),
		))
		if preview := util.Preview(h.Text, textWidth); preview != "" {
			lines = append(lines, "    "+p.theme.SourceText.Render(preview))
		}
	}
	return lines
}
