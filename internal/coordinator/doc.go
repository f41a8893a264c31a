// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package coordinator sequences retrieval and answer streaming for one query
// at a time.
//
// A Coordinator runs each Submit as retrieval (best effort) followed by one
// /chat stream, accumulating tokens into an answer and reporting progress to
// an Observer. At most one attempt is active per Coordinator: a new Submit
// cancels the previous attempt before taking over, and Stop cancels the
// active attempt and returns to Idle immediately.
//
// # Key Types
//
//   - Coordinator: the request state machine
//   - Status: Idle, Retrieving or Streaming
//   - Observer: receives sources, answer, status and latency updates
//   - Result: what one Submit produced and how it ended
//
// # Usage
//
//	coord := coordinator.NewForClient(client, coordinator.Config{
//	    TopK:     4,
//	    Observer: myView,
//	})
//	res := coord.Submit(ctx, "what is RAG?")
//	fmt.Println(res.Answer, res.Latency)
//
// Observer callbacks are serialized and delivered in order. They run on the
// goroutine calling Submit or Stop and must not call Submit or Stop
// themselves.
package coordinator
