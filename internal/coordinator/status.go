// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"time"

	"github.com/jeranaias/agenthub/internal/agenthub"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the coordinator's request state.
type Status int

const (
	Idle Status = iota
	Retrieving
	Streaming
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Retrieving:
		return "retrieving"
	case Streaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome describes how one Submit ended.
type Outcome int

const (
	// OutcomeCompleted: the stream ended normally; latency was recorded.
	OutcomeCompleted Outcome = iota
	// OutcomeFailed: the stream could not be opened or broke mid-stream.
	OutcomeFailed
	// OutcomeCancelled: Stop was called or the caller's context ended.
	OutcomeCancelled
	// OutcomeSuperseded: a newer Submit took over.
	OutcomeSuperseded
	// OutcomeIgnored: the query was blank; nothing happened.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// =============================================================================
// RESULT & SNAPSHOT
// =============================================================================

// Result is what one Submit produced. Answer is the attempt's own answer,
// including the failure marker or message on OutcomeFailed. Latency is set
// only on OutcomeCompleted.
type Result struct {
	RequestID string
	Query     string
	Answer    string
	Hits      []agenthub.SourceHit
	Tokens    int
	Latency   time.Duration
	Outcome   Outcome
	Err       error
}

// Snapshot is a point-in-time copy of the coordinator's observable state.
type Snapshot struct {
	Status         Status
	Answer         string
	Hits           []agenthub.SourceHit
	LoadingSources bool
	Latency        time.Duration
	RequestID      string
}
