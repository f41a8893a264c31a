// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for command handlers.
package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/config"
	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/telemetry"
)

// App bundles what every command handler needs.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Client *agenthub.Client

	// Usage records finished queries. Nil disables recording.
	Usage *telemetry.UsageTracker

	// Markdown renders finished answers with glamour instead of streaming
	// raw tokens. Only sensible on a terminal.
	Markdown bool

	Stdout io.Writer
	Stderr io.Writer
}

// NewApp creates the client for cfg. The caller owns Close.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Config:   cfg,
		Logger:   logger,
		Client:   agenthub.NewClientWithConfig(ClientConfig(cfg, logger)),
		Markdown: cfg.UI.Markdown && IsStdoutTTY(),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// ClientConfig maps the [api] section onto client options.
func ClientConfig(cfg *config.Config, logger *slog.Logger) *agenthub.ClientConfig {
	return &agenthub.ClientConfig{
		BaseURL:            cfg.API.BaseURL,
		Timeout:            cfg.Timeout(),
		Transport:          cfg.API.Transport,
		RequestsPerSecond:  cfg.API.RequestsPerSecond,
		UserAgent:          cfg.API.UserAgent + "/" + Version,
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
		Logger:             logger,
	}
}

// ApplyOverrides copies command-line overrides onto cfg and revalidates it.
func ApplyOverrides(cfg *config.Config, args Args) error {
	if args.BaseURL != "" {
		cfg.API.BaseURL = strings.TrimSpace(args.BaseURL)
	}
	if args.Transport != "" {
		cfg.API.Transport = strings.ToLower(args.Transport)
	}
	if args.TopK != 0 {
		if args.TopK < 0 {
			return &ValidationError{Field: "top-k", Reason: "must be a positive integer", Example: "--top-k 4"}
		}
		cfg.API.TopK = args.TopK
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg.Validate()
}

// Coordinator creates a request coordinator reporting to obs.
func (a *App) Coordinator(obs coordinator.Observer) *coordinator.Coordinator {
	return coordinator.NewForClient(a.Client, coordinator.Config{
		TopK:     a.Config.API.TopK,
		Observer: obs,
		Logger:   a.Logger,
	})
}

// Record adds a finished submit to the usage statistics.
func (a *App) Record(res coordinator.Result) {
	if a.Usage == nil || res.Outcome == coordinator.OutcomeIgnored {
		return
	}
	a.Usage.Record(telemetry.QueryRecord{
		RequestID: res.RequestID,
		Query:     res.Query,
		Outcome:   res.Outcome.String(),
		Tokens:    res.Tokens,
		Hits:      len(res.Hits),
		Latency:   res.Latency,
	})
}

// Close releases the client and persists usage.
func (a *App) Close() {
	if a.Usage != nil {
		if err := a.Usage.EndSession(); err != nil {
			a.Logger.Warn("usage_save_failed", "error", err)
		}
	}
	_ = a.Client.Close()
}
