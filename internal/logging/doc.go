// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the process-wide slog logger.
//
// Records go to stderr or a log file as text or JSON. When telemetry is
// enabled they are also forwarded to the OpenTelemetry log bridge, so log
// lines emitted inside a span carry its trace and span IDs.
//
// # Usage
//
//	logger, closer, err := logging.New(cfg.Log, cfg.Telemetry.Enabled)
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	slog.SetDefault(logger)
package logging
