// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Output helpers shared by ask and chat.
package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/util"
)

// =============================================================================
// FORMATTING
// =============================================================================

// formatLatency formats a latency in whole milliseconds.
func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%d ms", d.Milliseconds())
}

// formatDurationShort formats a duration compactly ("850ms", "2.5s", "3m4s").
func formatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}

// =============================================================================
// SOURCES
// =============================================================================

// sourcePreviewWidth bounds passage previews in the sources list.
const sourcePreviewWidth = 72

// printSources writes a ranked list of hits.
func printSources(w io.Writer, hits []agenthub.SourceHit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No sources."))
		return
	}
	fmt.Fprintln(w, TitleStyle.Render("Sources"))
	for i, h := range hits {
		name := "passage"
		if h.HasSource() {
			name = h.Source
		}
		fmt.Fprintf(w, "%s %s %s\n",
			sourceRankStyle.Render(fmt.Sprintf("[%d]", i+1)),
			sourceNameStyle.Render(name),
			scoreStyle.Render(fmt.Sprintf("(%.3f)", h.Score)),
		)
		if preview := util.Preview(h.Text, sourcePreviewWidth); preview != "" {
			fmt.Fprintf(w, "    %s\n", DimStyle.Render(preview))
		}
	}
}

// printSummary writes the one-line outcome of a submit.
func printSummary(w io.Writer, res coordinator.Result) {
	var parts []string
	switch res.Outcome {
	case coordinator.OutcomeCompleted:
		parts = append(parts, latencyStyle.Render(formatLatency(res.Latency)))
	case coordinator.OutcomeCancelled, coordinator.OutcomeSuperseded:
		parts = append(parts, WarningStyle.Render("stopped"))
	case coordinator.OutcomeFailed:
		parts = append(parts, ErrorStyle.Render("stream failed"))
	}
	parts = append(parts,
		fmt.Sprintf("%d sources", len(res.Hits)),
		fmt.Sprintf("%d tokens", res.Tokens),
	)
	fmt.Fprintln(w, DimStyle.Render(strings.Join(parts, " · ")))
}

// =============================================================================
// MARKDOWN
// =============================================================================

var (
	mdOnce     sync.Once
	mdRenderer *glamour.TermRenderer
)

// renderMarkdown renders content for the terminal, or returns it unchanged
// if the renderer is unavailable.
func renderMarkdown(content string, width int) string {
	mdOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			mdRenderer = r
		}
	})
	if mdRenderer == nil {
		return content
	}
	out, err := mdRenderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

// =============================================================================
// ANSWER PRINTER
// =============================================================================

// answerPrinter is a coordinator.Observer that writes the growing answer
// to w as it streams. Only the new suffix of each update is written.
type answerPrinter struct {
	coordinator.NopObserver

	mu      sync.Mutex
	w       io.Writer
	live    bool
	printed string
}

func newAnswerPrinter(w io.Writer, live bool) *answerPrinter {
	return &answerPrinter{w: w, live: live}
}

func (p *answerPrinter) OnAnswer(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.live {
		return
	}
	switch {
	case text == "":
		p.printed = ""
		return
	case strings.HasPrefix(text, p.printed):
		io.WriteString(p.w, text[len(p.printed):])
	default:
		io.WriteString(p.w, "\n"+text)
	}
	p.printed = text
}

// reset forgets what was printed, for the next question.
func (p *answerPrinter) reset() {
	p.mu.Lock()
	p.printed = ""
	p.mu.Unlock()
}

// finish terminates the streamed line.
func (p *answerPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live && p.printed != "" && !strings.HasSuffix(p.printed, "\n") {
		io.WriteString(p.w, "\n")
	}
}

// =============================================================================
// INTERRUPTS
// =============================================================================

// stopOnInterrupt calls onSignal for every one of sigs (SIGINT and SIGTERM
// when none are given) until the returned function is called.
func stopOnInterrupt(onSignal func(), sigs ...os.Signal) (release func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sigs...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigCh:
				onSignal()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
