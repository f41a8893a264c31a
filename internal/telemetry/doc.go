// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry wires OpenTelemetry export and local usage tracking.
//
// Setup installs SDK tracer and logger providers that export over OTLP/HTTP.
// When telemetry is disabled it installs nothing and the global no-op
// providers stay in place.
//
// UsageTracker keeps per-session query statistics (outcomes, tokens,
// latency) and persists them under ~/.agenthub/usage. Query text is kept
// only as a short preview.
//
// # Usage
//
//	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
//
//	tracker, _ := telemetry.NewUsageTracker("")
//	tracker.Record(telemetry.QueryRecord{Outcome: "completed", Tokens: 42})
//	defer tracker.EndSession()
package telemetry
