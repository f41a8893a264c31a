// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the agenthub command line.
//
// ParseArgs turns argv into a Command and Args; main builds an App (config,
// logger, backend client and usage tracker) and dispatches to a handler:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, app, args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, app, args)
//	}
//	os.Exit(cli.GetExitCode(err))
//
// Commands that talk to the backend (ask, chat, retrieve, health, ingest)
// accept --json and then write a single JSONResponse envelope to stdout.
// Handlers return errors rather than printing them; DisplayError and
// GetExitCode decide presentation and exit status.
package cli
