// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"time"

	"github.com/jeranaias/agenthub/internal/agenthub"
)

// Observer receives the coordinator's observable outputs.
type Observer interface {
	// OnSources reports the hit list and whether retrieval is still loading.
	OnSources(hits []agenthub.SourceHit, loading bool)
	// OnAnswer reports the full accumulated answer after each change.
	OnAnswer(answer string)
	// OnStatus reports a status transition.
	OnStatus(status Status)
	// OnLatency reports elapsed time after a stream completed normally.
	OnLatency(latency time.Duration)
}

// NopObserver ignores every notification. Embed it to implement only the
// callbacks you need.
type NopObserver struct{}

func (NopObserver) OnSources([]agenthub.SourceHit, bool) {}
func (NopObserver) OnAnswer(string)                      {}
func (NopObserver) OnStatus(Status)                      {}
func (NopObserver) OnLatency(time.Duration)              {}
