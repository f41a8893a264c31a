// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agenthub provides the HTTP client for the agenthub RAG backend.
//
// The backend exposes a fast passage-retrieval endpoint and a token-streaming
// chat endpoint framed as Server-Sent Events:
//
//   - POST /retrieve  {"q", "top_k"} -> {"hits": [{"text", "score", "source"?}]}
//   - POST /chat      {"q", "top_k"} -> text/event-stream of {"token"?, "done"?}
//   - GET  /health    -> {"ok", "model"}
//   - POST /ingest    {"path"?, "url"?, "collection"?} -> {"ingested", "detail"?}
//
// # Key Types
//
//   - Client: HTTP client with pacing and optional HTTP/3 transport
//   - SourceHit: one retrieved passage
//   - TokenStream: cancellable, pull-based token sequence of one /chat call
//   - NetworkError, StreamOpenError, StreamError: typed failures
//
// # Usage
//
//	client := agenthub.NewClient()
//	hits, err := client.Retrieve(ctx, "what is RAG?", 4)
//
//	stream, err := client.StreamChat(ctx, "what is RAG?", 4)
//	if err != nil {
//	    return err // *StreamOpenError, before any token
//	}
//	defer stream.Close()
//	for {
//	    tok, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err // *StreamError
//	    }
//	    fmt.Print(tok)
//	}
//
// Cancelling the stream (Cancel, or cancelling the context given to
// StreamChat) aborts the connection and makes the next Next return io.EOF.
package agenthub
