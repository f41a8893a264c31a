// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the agenthub
// TUI: the header, the sources panel and the status bar. Components hold
// plain state set by the chat model and render it with a styles.Theme.
package components
