// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/uandersonal11/viralfy-v3/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line: endpoint host and counters on the left,
// a transient notice or the key hints on the right.
type StatusBar struct {
	Host     string
	Messages int
	Retries  int
	Busy     bool
	Notice   string
	Width    int
	theme    *styles.Theme
}

// NewStatusBar creates a status bar for host.
func NewStatusBar(theme *styles.Theme, host string) *StatusBar {
	return &StatusBar{Host: host, Width: 80, theme: theme}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := s.theme
	sep := t.StatusKey.Render(" | ")

	left := []string{t.StatusValue.Render(s.Host)}
	left = append(left, t.StatusKey.Render("msgs ")+t.StatusValue.Render(fmt.Sprint(s.Messages)))
	if s.Retries > 0 {
		left = append(left, t.StatusKey.Render("falhas ")+t.StatusBusy.Render(fmt.Sprint(s.Retries)))
	}
	if s.Busy {
		left = append(left, t.StatusBusy.Render("aguardando"))
	}
	leftText := strings.Join(left, sep)

	right := t.StatusKey.Render("enter enviar · ctrl+r repetir · f1 ajuda · ctrl+c sair")
	if s.Notice != "" {
		right = t.Notice.Render(s.Notice)
	}

	inner := s.Width - t.StatusBar.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}
	gap := inner - lipgloss.Width(leftText) - lipgloss.Width(right)
	if gap < 1 {
		// Narrow terminal: the right side goes first.
		right = ""
		gap = inner - lipgloss.Width(leftText)
		if gap < 0 {
			gap = 0
		}
	}
	return t.StatusBar.Width(s.Width).MaxHeight(1).Render(leftText + strings.Repeat(" ", gap) + right)
}
