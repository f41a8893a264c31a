// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// health.go - Backend health check.
//
// Command: health
// Aliases: status
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// errUnhealthy is returned when the backend answers but reports not ok.
var errUnhealthy = errors.New("backend reports unhealthy")

// HandleHealth queries the backend's /health endpoint.
func HandleHealth(ctx context.Context, app *App, args Args) error {
	start := time.Now()
	h, err := app.Client.Health(ctx)
	latency := time.Since(start)

	data := HealthData{BaseURL: app.Client.BaseURL(), LatencyMs: latency.Milliseconds()}
	if err == nil {
		data.OK = h.OK
		data.Model = h.Model
		if !h.OK {
			err = errUnhealthy
		}
	}

	if args.JSON {
		if err != nil {
			if perr := NewJSONErrorResponse("health", err, data).Fprint(app.Stdout); perr != nil {
				return perr
			}
			return &ReportedError{Code: ExitNetworkError, Err: err}
		}
		return NewJSONResponse("health", data).Fprint(app.Stdout)
	}

	w := app.Stdout
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Backend"), ValueStyle.Render(data.BaseURL))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Status"), RenderStatus(err == nil))
	if data.Model != "" {
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Model"), ValueStyle.Render(data.Model))
	}
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Latency"), latencyStyle.Render(formatLatency(latency)))

	if err != nil {
		if errors.Is(err, errUnhealthy) {
			return &ReportedError{Code: ExitNetworkError, Err: err}
		}
		return err
	}
	return nil
}
