// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and text helpers shared across agenthub.
//
// # File Operations
//
//   - AtomicWriteFile: crash-safe writes (temp file, fsync, rename)
//
// # Text
//
//   - TruncateWidth, StringWidth, PadRight: terminal-width aware, via go-runewidth
//   - Preview: one-line, width-bounded passage previews
package util
