// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// retrieve.go - Show retrieved passages without generating an answer.
//
// Command: retrieve <query>
// Aliases: search, r
package cli

import (
	"context"
	"fmt"
	"strings"
)

// HandleRetrieve prints the passages the backend retrieves for a query.
func HandleRetrieve(ctx context.Context, app *App, args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return ErrMissingArgument("query", `agenthub retrieve "deployment checklist"`)
	}
	topK := app.Config.API.TopK

	hits, err := app.Client.Retrieve(ctx, query, topK)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("retrieve", RetrieveData{
			Query:   query,
			TopK:    topK,
			Sources: sourcesData(hits),
		}).Fprint(app.Stdout)
	}

	printSources(app.Stdout, hits)
	if !args.Quiet {
		fmt.Fprintln(app.Stdout, DimStyle.Render(fmt.Sprintf("%d of %d requested", len(hits), topK)))
	}
	return nil
}
