// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive agenthub screen.

The screen is a Bubble Tea program that observes a request coordinator.
It never talks to the backend itself: Enter hands the question to the
coordinator, and the coordinator's notifications flow back as messages.

# Layout

From top to bottom:
  - Header with the backend address and passage count
  - Answer pane (viewport) with the question, the streamed answer and a
    latency pill once the answer completes
  - Sources panel, toggled with Tab
  - Input line, inactive while a query runs
  - Status bar and key help

# Streaming

The coordinator reports the full answer on every token. Those updates go
into a buffer that the render loop drains at most 30 times a second, so a
fast stream does not redraw the screen once per token. Status changes
drain the buffer first.

# Usage

	err := chat.Run(ctx, chat.Options{
		Connect: func(obs coordinator.Observer) chat.Controller {
			return app.Coordinator(obs)
		},
		BaseURL:  cfg.API.BaseURL,
		TopK:     cfg.API.TopK,
		Markdown: cfg.UI.Markdown,
	})
*/
package chat
