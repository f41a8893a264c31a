// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// ANSWER BUFFER
// =============================================================================

// streamFPS caps how often the answer pane is redrawn while streaming.
const streamFPS = 30

// answerBuffer holds the latest answer text reported by the coordinator
// until the render loop picks it up. The coordinator reports the whole
// answer on every token, so only the newest value is kept.
//
// Set is called from the coordinator's goroutine while Flush runs in the
// Bubble Tea loop, so all access is under mu.
type answerBuffer struct {
	mu        sync.Mutex
	text      string
	dirty     bool
	lastFlush time.Time
	minFlush  time.Duration
	now       func() time.Time
}

func newAnswerBuffer() *answerBuffer {
	return &answerBuffer{
		minFlush: time.Second / streamFPS,
		now:      time.Now,
	}
}

// Set replaces the pending answer.
func (b *answerBuffer) Set(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.dirty = true
}

// Flush returns the pending answer if it changed and the frame interval
// has passed since the last flush.
func (b *answerBuffer) Flush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty || b.now().Sub(b.lastFlush) < b.minFlush {
		return "", false
	}
	return b.takeLocked(), true
}

// ForceFlush returns the pending answer regardless of timing. Used on
// status changes so the final text is never held back.
func (b *answerBuffer) ForceFlush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return "", false
	}
	return b.takeLocked(), true
}

// Reset drops any pending update.
func (b *answerBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
	b.dirty = false
}

func (b *answerBuffer) takeLocked() string {
	b.dirty = false
	b.lastFlush = b.now()
	return b.text
}

// streamTickCmd schedules the next buffer flush.
func streamTickCmd() tea.Cmd {
	return tea.Tick(time.Second/streamFPS, func(time.Time) tea.Msg {
		return StreamTickMsg{}
	})
}
