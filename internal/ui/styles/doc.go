// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the velaris TUI.

All colors use Lip Gloss AdaptiveColor, so the same palette works on light
and dark terminals. The background can also be forced through the ui.theme
setting.

# Color System (colors.go)

  - Purple: brand accent, header, assistant bubbles
  - Blue: user bubbles
  - Rose: error messages and the error banner
  - Amber: system notices and raw-reply tags
  - Emerald: success notices

# Theme (theme.go)

Theme bundles every lipgloss.Style the views use:

	theme := styles.NewTheme(cfg.UI.Theme)
	bubble := theme.UserBubble.Render(text)

# Animations (animations.go)

TypingSpinner drives the "Digitando" indicator shown while a reply is
awaited.
*/
package styles
