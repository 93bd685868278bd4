// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/uandersonal11/viralfy-v3/internal/model"
	"github.com/uandersonal11/viralfy-v3/internal/ui/styles"
)

// RawReplyTag marks assistant replies that are the serialized response body.
const RawReplyTag = "resposta bruta"

// EmptyStateText is shown when the transcript has no messages.
const EmptyStateText = "Como posso ajudar você hoje?"

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry.
type MessageBubble struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool
	Markdown      *MarkdownRenderer
	theme         *styles.Theme
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message: msg,
		Width:   80,
		theme:   theme,
	}
}

// View renders the bubble: a label line, then the content in the role's
// style. User bubbles are right-aligned within Width.
func (b *MessageBubble) View() string {
	maxWidth := b.theme.BubbleWidth()
	if b.Width > 0 && maxWidth > b.Width {
		maxWidth = b.Width
	}

	label := b.label()

	var body string
	switch b.Message.Role {
	case model.RoleUser:
		body = b.theme.UserBubble.MaxWidth(maxWidth).Render(b.wrap(b.Message.Content, maxWidth))
		block := lipgloss.JoinVertical(lipgloss.Right, label, body)
		return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
	case model.RoleAssistant:
		body = b.theme.AssistantBubble.MaxWidth(maxWidth).Render(b.assistantContent(maxWidth))
	case model.RoleError:
		body = b.theme.ErrorBubble.MaxWidth(maxWidth).Render(b.wrap(b.Message.Content, maxWidth))
	default:
		body = b.theme.SystemBubble.MaxWidth(maxWidth).Render(b.wrap(b.Message.Content, maxWidth))
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, body)
}

func (b *MessageBubble) label() string {
	parts := []string{b.theme.RoleLabel.Render(b.Message.Role.DisplayName())}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		parts = append(parts, b.theme.Timestamp.Render(b.Message.Timestamp.Format("15:04")))
	}
	if b.isRaw() {
		parts = append(parts, b.theme.RawTag.Render("("+RawReplyTag+")"))
	}
	return strings.Join(parts, " ")
}

func (b *MessageBubble) isRaw() bool {
	return b.Message.Role == model.RoleAssistant && b.Message.Raw
}

func (b *MessageBubble) assistantContent(maxWidth int) string {
	if b.isRaw() {
		if LooksLikeJSON(b.Message.Content) {
			return HighlightJSON(b.Message.Content, b.theme.IsDark)
		}
		return b.wrap(b.Message.Content, maxWidth)
	}
	if b.Markdown != nil {
		return b.Markdown.Render(b.Message.Content)
	}
	return b.wrap(b.Message.Content, maxWidth)
}

// wrap breaks text to fit inside a bubble of maxWidth including its frame.
func (b *MessageBubble) wrap(text string, maxWidth int) string {
	inner := maxWidth - 4
	if inner < 10 {
		inner = 10
	}
	return lipgloss.NewStyle().Width(inner).Render(text)
}

// =============================================================================
// TYPING INDICATOR AND EMPTY STATE
// =============================================================================

// TypingIndicator renders the spinner frame next to the typing label.
func TypingIndicator(theme *styles.Theme, frame string) string {
	return theme.Spinner.Render(frame) + " " + theme.TypingText.Render(styles.TypingLabel)
}

// EmptyState renders the placeholder centered in width.
func EmptyState(theme *styles.Theme, width int) string {
	if width <= 0 {
		width = 80
	}
	return theme.EmptyState.Width(width).Render(EmptyStateText)
}
