// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"context"
	"sync"
)

// =============================================================================
// CANCELLATION HANDLE
// =============================================================================

// handle represents one in-flight attempt. Cancelling it cancels the
// attempt's context and the attached stream, if any. Safe to cancel
// multiple times; the first reason sticks.
type handle struct {
	gen    uint64
	cancel context.CancelFunc

	mu     sync.Mutex
	stream TokenSource
	reason Outcome
	done   bool
}

func newHandle(gen uint64, cancel context.CancelFunc) *handle {
	return &handle{gen: gen, cancel: cancel}
}

// attach binds the attempt's stream. It returns false if the handle was
// already cancelled, in which case the caller owns closing the stream.
func (h *handle) attach(s TokenSource) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.stream = s
	return true
}

// abort cancels the attempt with the given reason.
func (h *handle) abort(reason Outcome) {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return
	}
	h.done = true
	h.reason = reason
	s := h.stream
	h.mu.Unlock()

	h.cancel()
	if s != nil {
		s.Cancel()
	}
}

// aborted reports whether the handle was cancelled and why.
func (h *handle) aborted() (Outcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason, h.done
}
