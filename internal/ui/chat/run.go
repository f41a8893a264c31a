// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the chat screen until the user quits or ctx ends. Any query
// still running on exit is stopped.
func Run(ctx context.Context, opts Options) error {
	if opts.Connect == nil {
		return fmt.Errorf("chat: no controller")
	}

	buf := newAnswerBuffer()
	br := newBridge(buf)
	ctrl := opts.Connect(br)

	m := newModel(ctx, ctrl, buf, opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	br.attach(p.Send)
	defer func() {
		br.attach(nil)
		ctrl.Stop()
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}
