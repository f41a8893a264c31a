// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask <question>
//
// Examples:
//
//	agenthub ask "What is retrieval-augmented generation?"
//	agenthub ask --top-k 8 "Summarize the onboarding doc"
//	agenthub ask --json "Which services use Postgres?"
//
// The answer streams to stdout as tokens arrive. On a terminal with
// [ui].markdown enabled, it is rendered with glamour once complete
// instead. Ctrl+C stops the stream and keeps the partial answer.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/agenthub/internal/coordinator"
)

// HandleAsk runs one query through a coordinator.
func HandleAsk(ctx context.Context, app *App, args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return ErrMissingArgument("question", `agenthub ask "What is RAG?"`)
	}

	useMarkdown := app.Markdown && !args.JSON
	printer := newAnswerPrinter(app.Stdout, !args.JSON && !useMarkdown)
	coord := app.Coordinator(printer)

	release := stopOnInterrupt(coord.Stop)
	res := coord.Submit(ctx, query)
	release()
	app.Record(res)

	if args.JSON {
		return printAskJSON(app, res)
	}

	if useMarkdown {
		fmt.Fprint(app.Stdout, renderMarkdown(res.Answer, GetTerminalWidth()-4))
	} else {
		printer.finish()
	}

	if !args.Quiet {
		fmt.Fprintln(app.Stdout)
		if app.Config.UI.ShowSources {
			printSources(app.Stdout, res.Hits)
		}
		printSummary(app.Stdout, res)
	}

	switch res.Outcome {
	case coordinator.OutcomeFailed:
		return &ReportedError{Code: ExitNetworkError, Err: res.Err}
	case coordinator.OutcomeCancelled, coordinator.OutcomeSuperseded:
		return &ReportedError{Code: ExitInterrupted, Err: context.Canceled}
	}
	return nil
}

func askData(res coordinator.Result) AskData {
	return AskData{
		RequestID: res.RequestID,
		Query:     res.Query,
		Answer:    res.Answer,
		Outcome:   res.Outcome.String(),
		Sources:   sourcesData(res.Hits),
		Tokens:    res.Tokens,
		LatencyMs: res.Latency.Milliseconds(),
	}
}

func printAskJSON(app *App, res coordinator.Result) error {
	data := askData(res)
	if res.Outcome == coordinator.OutcomeFailed {
		if err := NewJSONErrorResponse("ask", res.Err, data).Fprint(app.Stdout); err != nil {
			return err
		}
		return &ReportedError{Code: ExitNetworkError, Err: res.Err}
	}
	return NewJSONResponse("ask", data).Fprint(app.Stdout)
}
