// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stats.go - Local usage statistics.
//
// Command: stats [--days N]
// Aliases: usage
//
// Statistics are kept per session in ~/.agenthub/usage and never leave
// the machine.
package cli

import (
	"fmt"
	"sort"

	"github.com/jeranaias/agenthub/internal/telemetry"
)

const defaultStatsDays = 7

// HandleStats summarizes stored sessions over the last N days.
func HandleStats(app *App, args Args) error {
	if app.Usage == nil {
		return NewCommandError("stats", "load", "usage tracking is unavailable", nil)
	}

	p := NewArgParser(args.Raw)
	days := defaultStatsDays
	if v := p.Flag("days"); v != "" {
		n, err := ParseIntWithValidation(v, "days")
		if err != nil {
			return &ValidationError{Field: "days", Value: v, Reason: "must be a positive integer", Example: "agenthub stats --days 30"}
		}
		days = n
	}

	trends := app.Usage.Trends(days)
	if args.JSON {
		return NewJSONResponse("stats", trends).Fprint(app.Stdout)
	}
	printTrends(app, trends)
	return nil
}

func printTrends(app *App, t *telemetry.UsageTrends) {
	w := app.Stdout
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Usage, last %d days", t.Days)))
	if t.Queries == 0 {
		fmt.Fprintln(w, DimStyle.Render("No questions recorded."))
		return
	}

	fmt.Fprintf(w, "%s %d\n", RenderLabel("Sessions"), t.Sessions)
	fmt.Fprintf(w, "%s %d\n", RenderLabel("Questions"), t.Queries)
	fmt.Fprintf(w, "%s %d\n", RenderLabel("Tokens"), t.Tokens)
	if t.AverageLatency > 0 {
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Avg latency"), latencyStyle.Render(formatLatency(t.AverageLatency)))
	}

	outcomes := make([]string, 0, len(t.Outcomes))
	for k := range t.Outcomes {
		outcomes = append(outcomes, k)
	}
	sort.Strings(outcomes)
	for _, k := range outcomes {
		fmt.Fprintf(w, "%s %d\n", RenderLabel("  "+k), t.Outcomes[k])
	}

	fmt.Fprintln(w)
	for _, d := range t.Daily {
		fmt.Fprintf(w, "  %s  %4d questions  %6d tokens\n", d.Date.Format("2006-01-02"), d.Queries, d.Tokens)
	}
}
