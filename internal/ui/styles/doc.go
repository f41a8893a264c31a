// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the agenthub TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Theme groups the styles by screen region:

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	pill := theme.LatencyPill.Render("412 ms")

Status indicators pair every color with an ASCII shape ([OK], [X], [!])
so that states stay distinguishable without color.
*/
package styles
