// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/uandersonal11/viralfy-v3/internal/model"
	"github.com/uandersonal11/viralfy-v3/internal/session"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontmatter is marshalled with yaml.v3 so titles with colons or quotes
// stay valid YAML.
type frontmatter struct {
	Title     string `yaml:"title"`
	Session   string `yaml:"session"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	Date      string `yaml:"date"`
	Messages  int    `yaml:"messages"`
	Failures  int    `yaml:"failures"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(snap session.Snapshot) ([]byte, error) {
	if snap.IsEmpty() {
		return nil, ErrEmptyConversation
	}

	transcript := snap.Transcript()
	now := e.options.now()
	title := e.options.Title
	if title == "" {
		title = "Conversa"
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		fm, err := yaml.Marshal(frontmatter{
			Title:     title,
			Session:   snap.SessionID,
			Endpoint:  e.options.Endpoint,
			Date:      snap.StartedAt.Format(time.RFC3339),
			Messages:  transcript.Len(),
			Failures:  transcript.CountByRole(model.RoleError),
			Exported:  now.Format(time.RFC3339),
			Generator: "velaris",
		})
		if err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))

	if e.options.IncludeMetadata {
		sb.WriteString("## Informações da sessão\n\n")
		sb.WriteString(fmt.Sprintf("- **Início**: %s\n", formatTimestamp(snap.StartedAt)))
		sb.WriteString(fmt.Sprintf("- **Mensagens**: %d\n", transcript.Len()))
		if e.options.Endpoint != "" {
			sb.WriteString(fmt.Sprintf("- **Endpoint**: %s\n", e.options.Endpoint))
		}
		if snap.LastError != "" {
			sb.WriteString(fmt.Sprintf("- **Último erro**: %s\n", snap.LastError))
		}
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversa\n\n")

	msgs := snap.Messages
	for i, msg := range msgs {
		label := formatRoleLabel(msg.Role)
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(formatMessageContent(msg))
		sb.WriteString("\n\n")

		if i < len(msgs)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exportado do velaris em %s*\n", now.Format("02/01/2006 15:04")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func formatRoleLabel(role model.Role) string {
	if role == "" {
		return "Desconhecido"
	}
	return role.DisplayName()
}

// formatMessageContent keeps assistant Markdown as is and quotes error
// diagnostics so they stand out from replies.
func formatMessageContent(msg model.Message) string {
	content := strings.TrimSpace(msg.Content)
	if msg.Role != model.RoleError {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
