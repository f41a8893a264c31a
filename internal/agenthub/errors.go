// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agenthub

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Sentinel errors for request validation.
var (
	ErrInvalidTopK  = errors.New("top_k must be positive")
	ErrEmptyQuery   = errors.New("query is empty")
	ErrNoIngestPath = errors.New("provide path or url")
)

// NetworkError is a failed request/response call (/retrieve, /health,
// /ingest). Status is the HTTP status, or 0 if no response arrived.
type NetworkError struct {
	Op     string
	Status int
	Cause  error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("/%s failed: %d", e.Op, e.Status)
	}
	return fmt.Sprintf("/%s failed: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// StreamOpenError means /chat could not be opened. It is always returned
// before any token was produced.
type StreamOpenError struct {
	Status int
	Cause  error
}

func (e *StreamOpenError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("/chat failed: %d", e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("/chat failed: %v", e.Cause)
	}
	return "/chat failed: no response body"
}

func (e *StreamOpenError) Unwrap() error {
	return e.Cause
}

// StreamError is a failure after the stream was open, such as the
// connection dropping before the done frame.
type StreamError struct {
	Tokens int // tokens delivered before the failure
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream interrupted after %d tokens: %v", e.Tokens, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a request/response failure and
// returns its status.
func IsNetworkError(err error) (int, bool) {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Status, true
	}
	return 0, false
}

// IsStreamOpenError reports whether err is a stream-open failure.
func IsStreamOpenError(err error) bool {
	var openErr *StreamOpenError
	return errors.As(err, &openErr)
}

// IsRetrievalError reports whether err is a failed /retrieve call.
func IsRetrievalError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Op == "retrieve"
}
