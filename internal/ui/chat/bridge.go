// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/coordinator"
)

// bridge forwards coordinator notifications into a running program.
// Answer updates go through the buffer so token bursts are coalesced;
// everything else becomes a tea.Msg. Events arriving while no program is
// attached are dropped.
//
// The coordinator calls the observer while holding its emit lock, so the
// model must never call Submit or Stop from Update directly.
type bridge struct {
	buf *answerBuffer

	mu   sync.Mutex
	send func(tea.Msg)
}

var _ coordinator.Observer = (*bridge)(nil)

func newBridge(buf *answerBuffer) *bridge {
	return &bridge{buf: buf}
}

// attach starts forwarding to send. A nil send detaches.
func (b *bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *bridge) post(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (b *bridge) OnSources(hits []agenthub.SourceHit, loading bool) {
	b.post(SourcesMsg{Hits: hits, Loading: loading})
}

func (b *bridge) OnAnswer(answer string) {
	b.buf.Set(answer)
}

func (b *bridge) OnStatus(status coordinator.Status) {
	b.post(StatusMsg{Status: status})
}

func (b *bridge) OnLatency(d time.Duration) {
	b.post(LatencyMsg{Latency: d})
}
