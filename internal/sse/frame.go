// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// WIRE CONSTANTS
// =============================================================================

const (
	// FrameDelimiter separates events in the stream.
	FrameDelimiter = "\n\n"

	// DataPrefix marks the line carrying an event's payload.
	DataPrefix = "data:"
)

// =============================================================================
// PAYLOAD
// =============================================================================

// ChatChunk is the JSON payload of one chat event.
// A nil Token means there is no text in this chunk. Done=true is terminal
// whether or not a token is present.
type ChatChunk struct {
	Token *string `json:"token,omitempty"`
	Done  *bool   `json:"done,omitempty"`
}

// Text returns the chunk token, or "" when absent.
func (c ChatChunk) Text() string {
	if c.Token == nil {
		return ""
	}
	return *c.Token
}

// IsDone reports whether the chunk terminates the stream.
func (c ChatChunk) IsDone() bool {
	return c.Done != nil && *c.Done
}

// =============================================================================
// FRAME RESULTS
// =============================================================================

// Outcome classifies what a single frame contributes to the token sequence.
type Outcome int

const (
	// OutcomeSkip means the frame yields nothing; parsing continues.
	OutcomeSkip Outcome = iota
	// OutcomeToken means the frame yields one token; parsing continues.
	OutcomeToken
	// OutcomeDone means parsing must stop. Token may still carry text.
	OutcomeDone
)

// String returns a short name for logs and test failures.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkip:
		return "skip"
	case OutcomeToken:
		return "token"
	case OutcomeDone:
		return "done"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// FrameResult is the decoded form of one frame.
// Err is set only for skipped frames that were malformed; it is
// informational and never fatal to the stream.
type FrameResult struct {
	Outcome Outcome
	Token   string
	Err     error
}

// HasToken reports whether the result carries text to emit.
func (r FrameResult) HasToken() bool {
	return r.Token != "" && r.Outcome != OutcomeSkip
}

// FrameDecodeError describes a frame that was dropped.
type FrameDecodeError struct {
	Frame string
	Err   error
}

// Error implements the error interface.
func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("decode frame %q: %v", truncateFrame(e.Frame), e.Err)
}

// Unwrap returns the underlying error.
func (e *FrameDecodeError) Unwrap() error {
	return e.Err
}

// =============================================================================
// FRAME DECODING
// =============================================================================

// DecodeFrame interprets one delimiter-bounded frame.
//
// Only the first line starting with "data:" is considered. Frames without a
// data line, with an empty payload, or with a payload that is not a valid
// ChatChunk are skipped. Only the last case sets Err.
func DecodeFrame(frame string) FrameResult {
	payload, ok := dataPayload(frame)
	if !ok || payload == "" {
		return FrameResult{Outcome: OutcomeSkip}
	}

	var chunk ChatChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return FrameResult{Outcome: OutcomeSkip, Err: &FrameDecodeError{Frame: frame, Err: err}}
	}

	switch {
	case chunk.IsDone():
		return FrameResult{Outcome: OutcomeDone, Token: chunk.Text()}
	case chunk.Text() != "":
		return FrameResult{Outcome: OutcomeToken, Token: chunk.Text()}
	default:
		return FrameResult{Outcome: OutcomeSkip}
	}
}

// dataPayload returns the trimmed payload of the first data: line.
func dataPayload(frame string) (string, bool) {
	for _, line := range strings.Split(frame, "\n") {
		if strings.HasPrefix(line, DataPrefix) {
			return strings.TrimSpace(line[len(DataPrefix):]), true
		}
	}
	return "", false
}

func truncateFrame(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
