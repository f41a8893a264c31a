// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/coordinator"
)

// =============================================================================
// COORDINATOR EVENTS
// =============================================================================

// StatusMsg reports a coordinator status change.
type StatusMsg struct {
	Status coordinator.Status
}

// SourcesMsg carries the current hit list and whether retrieval is pending.
type SourcesMsg struct {
	Hits    []agenthub.SourceHit
	Loading bool
}

// LatencyMsg reports the latency of a completed answer.
type LatencyMsg struct {
	Latency time.Duration
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// StreamTickMsg triggers a flush of the answer buffer.
type StreamTickMsg struct{}

// SubmitDoneMsg is sent when a Submit call returns.
type SubmitDoneMsg struct {
	Result coordinator.Result
}

// stopDoneMsg is sent after a Stop call returns.
type stopDoneMsg struct{}
