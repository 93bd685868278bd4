// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/uandersonal11/viralfy-v3/internal/session"
	"github.com/uandersonal11/viralfy-v3/internal/ui/components"
)

// =============================================================================
// LAYOUT
// =============================================================================

// refresh syncs every component with the controller snapshot and resizes
// the viewport to whatever height is left over. It scrolls to the bottom
// when the transcript length changed since the last call.
func (m *Model) refresh() {
	snap := m.ctrl.Snapshot()

	m.header.SetWidth(m.width)
	m.banner.Text = snap.LastError
	m.banner.Width = m.width
	m.status.SetWidth(m.width)
	m.status.Messages = len(snap.Messages)
	m.status.Retries = snap.RetryCount
	m.status.Busy = snap.AwaitingReply
	m.status.Notice = m.notice

	reserved := lipgloss.Height(m.header.View()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.status.View())
	if m.banner.Visible() {
		reserved += lipgloss.Height(m.banner.View())
	}
	if snap.AwaitingReply {
		reserved++
	}

	height := m.height - reserved
	if height < 1 {
		height = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
	m.viewport.SetContent(m.renderTranscript(snap))

	if len(snap.Messages) != m.renderedCount {
		m.viewport.GotoBottom()
		m.renderedCount = len(snap.Messages)
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// render assembles the screen top to bottom.
func (m Model) render() string {
	sections := []string{m.header.View()}

	if m.showHelp {
		sections = append(sections, lipgloss.NewStyle().
			Height(m.viewport.Height).
			MaxHeight(m.viewport.Height).
			Render(m.renderHelp()))
	} else {
		sections = append(sections, m.viewport.View())
	}

	if m.ctrl.Busy() {
		sections = append(sections, components.TypingIndicator(m.theme, m.spinner.View()))
	}
	if m.banner.Visible() {
		sections = append(sections, m.banner.View())
	}
	sections = append(sections, m.renderInput(), m.status.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTranscript renders one bubble per message, or the empty state.
func (m Model) renderTranscript(snap session.Snapshot) string {
	if len(snap.Messages) == 0 {
		return "\n" + components.EmptyState(m.theme, m.width)
	}

	parts := make([]string, 0, len(snap.Messages))
	for _, msg := range snap.Messages {
		bubble := components.NewMessageBubble(msg, m.theme)
		bubble.Width = m.width
		bubble.ShowTimestamp = m.cfg.UI.ShowTimestamps
		bubble.Markdown = m.markdown
		parts = append(parts, bubble.View())
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

// renderHelp shows key bindings and slash commands.
func (m Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(m.theme.HelpKey.Render("Atalhos"))
	sb.WriteString("\n")
	sb.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.HelpKey.Render("Comandos"))
	sb.WriteString("\n")
	for _, c := range CommandHelp {
		sb.WriteString(m.theme.HelpKey.Render(c[0]))
		sb.WriteString("  ")
		sb.WriteString(m.theme.HelpDesc.Render(c[1]))
		sb.WriteString("\n")
	}
	return m.theme.HelpBox.Render(strings.TrimRight(sb.String(), "\n"))
}
