// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uandersonal11/viralfy-v3/internal/config"
	"github.com/uandersonal11/viralfy-v3/internal/export"
	"github.com/uandersonal11/viralfy-v3/internal/model"
	"github.com/uandersonal11/viralfy-v3/internal/session"
	"github.com/uandersonal11/viralfy-v3/internal/ui/components"
	"github.com/uandersonal11/viralfy-v3/internal/ui/styles"
	"github.com/uandersonal11/viralfy-v3/internal/util"
)

const replPrompt = "você> "

var (
	titleStyle = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(styles.TextMuted)
	labelStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Conversa linha a linha, sem tela cheia",
		Long: `Abre uma conversa no modo linha a linha, com histórico de entrada
(setas para cima/baixo). Comandos: /retry, /export [md|json], /help, /quit.
Ctrl+C ou Ctrl+D encerram.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.runChat(cmd.Context())
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is the part of liner.State the REPL needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// historyLiner wraps liner with a history file.
type historyLiner struct {
	*liner.State
	path string
}

func newHistoryLiner(path string) *historyLiner {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	h := &historyLiner{State: line, path: path}
	if path != "" {
		if f, err := os.Open(path); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return h
}

// Close saves history and restores the terminal.
func (h *historyLiner) Close() error {
	if h.path != "" {
		var buf bytes.Buffer
		if _, err := h.State.WriteHistory(&buf); err == nil {
			_ = util.AtomicWriteFile(h.path, buf.Bytes(), 0600)
		}
	}
	return h.State.Close()
}

// =============================================================================
// REPL
// =============================================================================

func (a *app) runChat(ctx context.Context) error {
	historyPath, err := config.HistoryPath()
	if err != nil {
		a.logger.Warn("history_unavailable", zap.Error(err))
		historyPath = ""
	}
	line := newHistoryLiner(historyPath)
	defer line.Close()

	_, ctrl := a.newSession()
	r := &repl{
		ctrl:   ctrl,
		cfg:    a.cfg,
		in:     line,
		out:    a.stdout,
		errOut: a.stderr,
		render: replyRenderer(a.cfg, IsStdoutTTY()),
		logger: a.logger.Named("repl"),
	}
	r.printWelcome()
	return r.run(ctx)
}

// repl is the line-oriented renderer for one session.
type repl struct {
	ctrl   *session.Controller
	cfg    *config.Config
	in     lineReader
	out    io.Writer
	errOut io.Writer
	render func(model.Message) string
	logger *zap.Logger
}

// run reads lines until /quit, Ctrl+C or end of input.
func (r *repl) run(ctx context.Context) error {
	for {
		input, err := r.in.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		r.in.AppendHistory(input)

		if !r.handleLine(ctx, input) {
			return nil
		}
	}
}

// handleLine runs one line and reports whether the loop should continue.
func (r *repl) handleLine(ctx context.Context, input string) bool {
	if name, args, ok := parseSlash(input); ok {
		switch name {
		case "quit", "sair", "exit":
			return false
		case "help", "ajuda":
			r.printHelp()
			return true
		case "retry":
			out, err := r.ctrl.Retry(ctx)
			r.report(out, err)
			return true
		case "export":
			r.export(args)
			return true
		}
	}

	out, err := r.ctrl.Submit(ctx, input)
	r.report(out, err)
	return true
}

// report prints the outcome of a turn: the reply on stdout, or the error
// message and the retry banner on stderr.
func (r *repl) report(out session.Outcome, err error) {
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return
	case errors.Is(err, session.ErrNothingToRetry):
		fmt.Fprintln(r.errOut, styles.RenderInfo("Nenhuma mensagem para repetir."))
		return
	case err != nil:
		fmt.Fprintln(r.errOut, styles.RenderError(err.Error()))
		return
	}

	if out.OK() {
		label := labelStyle.Render(out.Message.Role.DisplayName() + ":")
		if out.Message.Raw {
			label += " " + dimStyle.Render("("+components.RawReplyTag+")")
		}
		fmt.Fprintln(r.out, label)
		fmt.Fprintln(r.out, r.render(out.Message))
		fmt.Fprintln(r.out)
		return
	}

	snap := r.ctrl.Snapshot()
	fmt.Fprintln(r.errOut, styles.RenderError(out.Message.Content))
	fmt.Fprintln(r.errOut, styles.RenderWarning(snap.LastError+" Use /retry para tentar novamente."))
}

func (r *repl) export(args []string) {
	format := ""
	if len(args) > 0 {
		format = args[0]
	}
	path, err := export.Run(r.ctrl.Snapshot(), format, r.cfg)
	if err != nil {
		r.logger.Warn("export_failed", zap.Error(err))
		fmt.Fprintln(r.errOut, styles.RenderError("Falha ao exportar: "+err.Error()))
		return
	}
	fmt.Fprintln(r.out, styles.RenderSuccess("Conversa exportada: "+path))
}

func (r *repl) printWelcome() {
	fmt.Fprintln(r.out, titleStyle.Render(r.cfg.UI.Title))
	if r.cfg.UI.Tagline != "" {
		fmt.Fprintln(r.out, dimStyle.Render(r.cfg.UI.Tagline))
	}
	fmt.Fprintln(r.out, dimStyle.Render("Digite /help para ver os comandos."))
	fmt.Fprintln(r.out)
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, titleStyle.Render("Comandos"))
	for _, c := range replCommands {
		fmt.Fprintf(r.out, "  %-20s %s\n", c[0], dimStyle.Render(c[1]))
	}
	fmt.Fprintln(r.out)
}

var replCommands = [][2]string{
	{"/retry", "reenviar a última mensagem"},
	{"/export [md|json]", "exportar a conversa"},
	{"/help", "mostrar esta ajuda"},
	{"/quit", "sair (ou Ctrl+D)"},
}

// parseSlash splits "/name arg..." into its parts, lowercasing the name.
func parseSlash(input string) (string, []string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", nil, false
	}
	fields := strings.Fields(input[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// replyRenderer returns how assistant replies are printed. Markdown and
// JSON highlighting only apply when writing to a terminal. Raw fallback
// replies are highlighted, never rendered as markdown.
func replyRenderer(cfg *config.Config, tty bool) func(model.Message) string {
	if !tty {
		return func(msg model.Message) string { return msg.Content }
	}
	theme := styles.NewTheme(cfg.UI.Theme)
	var md *components.MarkdownRenderer
	if cfg.UI.Markdown {
		md = components.NewMarkdownRenderer(theme.GlamourStyle(), GetTerminalWidth()-4)
	}
	return func(msg model.Message) string {
		if msg.Raw {
			if components.LooksLikeJSON(msg.Content) {
				return components.HighlightJSON(msg.Content, theme.IsDark)
			}
			return msg.Content
		}
		return md.Render(msg.Content)
	}
}
