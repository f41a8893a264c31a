// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the agenthub chat event stream into tokens.
//
// The backend frames its /chat response as repeated events of the form
//
//	data: {"token":"Hel"}\n\n
//	data: {"token":"lo","done":true}\n\n
//
// Network deliveries are not aligned with frames: a read may end in the
// middle of a frame, in the middle of the JSON payload, or in the middle of a
// multi-byte UTF-8 character. The Parser buffers the unconsumed tail between
// reads and only interprets frames once their delimiter has arrived.
//
// # Key Types
//
//   - Parser: push-style incremental decoder (Feed / Flush)
//   - Reader: pull-style token sequence over an io.Reader (Next)
//   - ChatChunk: decoded payload of one frame
//   - FrameResult: outcome of decoding one frame (skip, token, done)
//
// # Usage
//
//	r := sse.NewReader(resp.Body)
//	for {
//	    tok, err := r.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(tok)
//	}
//
// Malformed frames are dropped silently and never end the sequence. A frame
// carrying done=true ends the sequence immediately, even when further frames
// were already received in the same read.
package sse
