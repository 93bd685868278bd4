// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// MarkdownRenderer renders assistant replies with glamour. The underlying
// renderer is rebuilt lazily when the wrap width changes. A nil
// *MarkdownRenderer renders content unchanged.
type MarkdownRenderer struct {
	mu       sync.Mutex
	style    string
	width    int
	renderer *glamour.TermRenderer
	failed   bool
}

// NewMarkdownRenderer creates a renderer for a glamour standard style
// ("dark", "light", "notty") wrapping at width.
func NewMarkdownRenderer(style string, width int) *MarkdownRenderer {
	return &MarkdownRenderer{style: style, width: width}
}

// SetWidth changes the wrap width.
func (r *MarkdownRenderer) SetWidth(width int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if width != r.width {
		r.width = width
		r.renderer = nil
		r.failed = false
	}
}

// Width returns the current wrap width.
func (r *MarkdownRenderer) Width() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

// Render returns content as styled terminal text, or content itself if
// glamour cannot be initialized or fails on this input.
func (r *MarkdownRenderer) Render(content string) string {
	if r == nil {
		return content
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.renderer == nil && !r.failed {
		width := r.width
		if width <= 0 {
			width = 80
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			r.failed = true
		} else {
			r.renderer = renderer
		}
	}
	if r.renderer == nil {
		return content
	}

	rendered, err := r.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}
