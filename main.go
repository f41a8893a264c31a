// agenthub - terminal client for a retrieval-augmented question answering service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/agenthub/internal/cli"
	"github.com/jeranaias/agenthub/internal/config"
	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/logging"
	"github.com/jeranaias/agenthub/internal/telemetry"
	"github.com/jeranaias/agenthub/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()
	err := run(cmd, args)
	if err != nil {
		cli.DisplayError(err, args.JSON)
	}
	os.Exit(cli.GetExitCode(err))
}

func run(cmd cli.Command, args cli.Args) error {
	// Commands that need neither configuration nor a backend.
	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage()
		return nil
	case cli.CmdVersion:
		if args.JSON {
			return cli.NewJSONResponse("version", cli.VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
			}).Print()
		}
		cli.PrintVersion()
		return nil
	case cli.CmdUnknown:
		msg := fmt.Sprintf("unknown command %q", args.Name)
		if s := cli.SuggestCommand(args.Name); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return &cli.ValidationError{Field: "command", Reason: msg, Example: "agenthub help"}
	}

	cfg, err := config.Load()
	if err != nil {
		// The config command is how a broken file gets fixed.
		if cmd != cli.CmdConfig {
			return fmt.Errorf("load config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "warning: %v; showing defaults\n", err)
		cfg = config.Default()
	}
	if cmd == cli.CmdConfig {
		return cli.HandleConfig(cfg, args)
	}
	if err := cli.ApplyOverrides(cfg, args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: telemetry disabled: %v\n", err)
		cfg.Telemetry.Enabled = false
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = shutdown(sctx)
	}()

	logger, logCloser, err := logging.New(cfg.Log, cfg.Telemetry.Enabled)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	// The TUI owns the terminal, so it only logs to a file.
	if cmd == cli.CmdTUI && cfg.Log.File == "" {
		logger = logging.Discard()
	}
	slog.SetDefault(logger)

	app := cli.NewApp(cfg, logger)
	defer app.Close()
	if usage, err := telemetry.NewUsageTracker(""); err != nil {
		logger.Warn("usage_tracking_disabled", "error", err)
	} else {
		app.Usage = usage
	}

	switch cmd {
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, app, args)
	case cli.CmdChat:
		return cli.HandleChat(ctx, app, args)
	case cli.CmdRetrieve:
		return cli.HandleRetrieve(ctx, app, args)
	case cli.CmdHealth:
		return cli.HandleHealth(ctx, app, args)
	case cli.CmdIngest:
		return cli.HandleIngest(ctx, app, args)
	case cli.CmdStats:
		return cli.HandleStats(app, args)
	default:
		return runTUI(ctx, app)
	}
}

// runTUI starts the interactive screen.
func runTUI(ctx context.Context, app *cli.App) error {
	if err := cli.RequiresTTY("the interactive UI"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	return chat.Run(ctx, chat.Options{
		Connect: func(obs coordinator.Observer) chat.Controller {
			return app.Coordinator(obs)
		},
		BaseURL:     app.Config.API.BaseURL,
		TopK:        app.Config.API.TopK,
		Markdown:    app.Config.UI.Markdown,
		ShowSources: app.Config.UI.ShowSources,
		OnResult:    app.Record,
		Logger:      app.Logger,
	})
}
