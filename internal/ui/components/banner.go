// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/uandersonal11/viralfy-v3/internal/ui/styles"
)

// RetryHint tells the user how to resubmit after a failure.
const RetryHint = "ctrl+r ou /retry para tentar novamente"

// =============================================================================
// ERROR BANNER COMPONENT
// =============================================================================

// ErrorBanner shows the session's last error above the input. It renders
// nothing when Text is empty.
type ErrorBanner struct {
	Text  string
	Width int
	theme *styles.Theme
}

// NewErrorBanner creates an empty banner.
func NewErrorBanner(theme *styles.Theme) *ErrorBanner {
	return &ErrorBanner{Width: 80, theme: theme}
}

// Visible reports whether the banner has anything to show.
func (e *ErrorBanner) Visible() bool {
	return e.Text != ""
}

// View renders the banner.
func (e *ErrorBanner) View() string {
	if !e.Visible() {
		return ""
	}
	width := e.Width
	if width < 20 {
		width = 20
	}
	inner := width - e.theme.ErrorBanner.GetHorizontalFrameSize()

	content := lipgloss.JoinVertical(lipgloss.Left,
		e.theme.ErrorBannerText.Width(inner).Render(styles.StatusIndicators.Error+" "+e.Text),
		e.theme.ErrorBannerHint.Render(RetryHint),
	)
	return e.theme.ErrorBanner.Width(width - e.theme.ErrorBanner.GetHorizontalBorderSize()).Render(content)
}
