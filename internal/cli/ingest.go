// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ingest.go - Ask the backend to index a document.
//
// Command: ingest [--path P] [--url U] [--collection C]
//
// Examples:
//
//	agenthub ingest --path /data/handbook.pdf
//	agenthub ingest docs/ --collection onboarding
//	agenthub ingest --url https://example.com/faq.html
package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/ui/styles"
)

// HandleIngest sends an ingest request. The path may be given as the
// first positional argument.
func HandleIngest(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw)
	req := agenthub.IngestRequest{
		Path:       p.FlagOrDefault("path", p.Positional(0)),
		URL:        p.Flag("url"),
		Collection: p.Flag("collection"),
	}
	if req.Path == "" && req.URL == "" {
		return ErrMissingArgument("path or url", "agenthub ingest --path docs/handbook.md")
	}

	res, err := app.Client.Ingest(ctx, req)
	if err != nil {
		return err
	}

	data := IngestData{
		Path:       req.Path,
		URL:        req.URL,
		Collection: req.Collection,
		Ingested:   res.Ingested,
		Detail:     res.Detail,
	}
	if args.JSON {
		return NewJSONResponse("ingest", data).Fprint(app.Stdout)
	}

	target := req.Path
	if target == "" {
		target = req.URL
	}
	fmt.Fprintln(app.Stdout, styles.RenderSuccess(fmt.Sprintf("Ingested %d from %s", res.Ingested, target)))
	if res.Detail != "" && !args.Quiet {
		fmt.Fprintln(app.Stdout, DimStyle.Render(res.Detail))
	}
	return nil
}
