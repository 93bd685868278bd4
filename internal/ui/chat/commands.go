// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/uandersonal11/viralfy-v3/internal/export"
	"github.com/uandersonal11/viralfy-v3/internal/ui/styles"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handlers. Text starting with
// "/" that names no command here is sent as a normal message.
var commandHandlers = map[string]CommandHandler{
	"retry":  handleRetryCommand,
	"export": handleExportCommand,
	"help":   handleHelpCommand,
	"ajuda":  handleHelpCommand,
	"quit":   handleQuitCommand,
	"sair":   handleQuitCommand,
}

// CommandHelp lists the slash commands for the help overlay.
var CommandHelp = [][2]string{
	{"/retry", "reenviar a última mensagem"},
	{"/export [md|json]", "exportar a conversa"},
	{"/help", "mostrar esta ajuda"},
	{"/quit", "sair"},
}

// parseCommand splits "/name arg..." into its parts. The name is
// lowercased.
func parseCommand(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleRetryCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return m.retry()
}

func handleHelpCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.showHelp = true
	m.refresh()
	return *m, nil
}

func handleQuitCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return *m, tea.Quit
}

// handleExportCommand writes the transcript in the background and reports
// through exportDoneMsg.
func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	format := ""
	if len(args) > 0 {
		format = args[0]
	}
	if _, err := export.ForFormat(format, nil); err != nil {
		cmd := m.setNotice(styles.StatusIndicators.Error + " " + err.Error())
		return *m, cmd
	}

	snap := m.ctrl.Snapshot()
	if snap.IsEmpty() {
		cmd := m.setNotice(styles.StatusIndicators.Info + " " + export.ErrEmptyConversation.Error())
		return *m, cmd
	}

	cfg := m.cfg
	m.logger.Debug("export_start", zap.String("format", format), zap.Int("messages", len(snap.Messages)))
	return *m, func() tea.Msg {
		path, err := export.Run(snap, format, cfg)
		return exportDoneMsg{path: path, err: err}
	}
}
