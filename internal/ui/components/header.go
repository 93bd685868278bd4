// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/uandersonal11/viralfy-v3/internal/ui/styles"
	"github.com/uandersonal11/viralfy-v3/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: product name on the first line, tagline below.
type Header struct {
	Title   string
	Tagline string
	Width   int
	theme   *styles.Theme
}

// NewHeader creates a header with the given title and tagline.
func NewHeader(theme *styles.Theme, title, tagline string) *Header {
	return &Header{
		Title:   title,
		Tagline: tagline,
		Width:   80,
		theme:   theme,
	}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// Height is the number of lines View produces.
func (h *Header) Height() int {
	return lipgloss.Height(h.View())
}

// View renders the header. The tagline is dropped when empty and truncated
// to the available width otherwise.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}
	inner := width - h.theme.Header.GetHorizontalFrameSize()

	lines := []string{
		h.theme.HeaderTitle.Render(util.TruncateWidth(h.Title, inner)),
	}
	if h.Tagline != "" {
		lines = append(lines, h.theme.HeaderTagline.Render(util.TruncateWidth(h.Tagline, inner)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return h.theme.Header.Width(width).Render(content)
}
