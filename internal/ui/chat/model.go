// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/uandersonal11/viralfy-v3/internal/config"
	"github.com/uandersonal11/viralfy-v3/internal/session"
	"github.com/uandersonal11/viralfy-v3/internal/ui/components"
	"github.com/uandersonal11/viralfy-v3/internal/ui/styles"
	"github.com/uandersonal11/viralfy-v3/internal/webhook"
)

const (
	// InputPlaceholder is shown in the empty input field.
	InputPlaceholder = "Digite sua mensagem..."

	// inputCharLimit bounds a single message typed in the TUI.
	inputCharLimit = 4096

	// noticeTTL is how long a status bar notice stays up.
	noticeTTL = 4 * time.Second
)

// =============================================================================
// MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Controller is the session to render. Required.
	Controller *session.Controller
	// Config supplies UI settings. Defaults to config.Default().
	Config *config.Config
	// Client receives endpoint changes from ConfigReloadedMsg. Optional.
	Client *webhook.Client
	// Theme defaults to the one named in Config.UI.Theme.
	Theme *styles.Theme
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctrl   *session.Controller
	cfg    *config.Config
	client *webhook.Client
	logger *zap.Logger
	theme  *styles.Theme
	keys   KeyMap

	// Components
	header   *components.Header
	banner   *components.ErrorBanner
	status   *components.StatusBar
	markdown *components.MarkdownRenderer

	// Widgets
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model

	// Dimensions
	width  int
	height int

	showHelp  bool
	notice    string
	noticeSeq int

	// renderedCount is the transcript length at the last viewport refresh;
	// a change scrolls to the bottom.
	renderedCount int
}

// New creates the chat model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = InputPlaceholder
	ti.CharLimit = inputCharLimit
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = styles.TypingSpinner
	if theme.ColorProfile == termenv.Ascii {
		sp.Spinner = styles.LineSpinner
	}

	m := Model{
		ctrl:     opts.Controller,
		cfg:      cfg,
		client:   opts.Client,
		logger:   logger.Named("tui"),
		theme:    theme,
		keys:     DefaultKeyMap(),
		header:   components.NewHeader(theme, cfg.UI.Title, cfg.UI.Tagline),
		banner:   components.NewErrorBanner(theme),
		status:   components.NewStatusBar(theme, cfg.Host()),
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
		help:     help.New(),
		width:    80,
		height:   24,
		// Forces the first refresh to scroll.
		renderedCount: -1,
	}
	if cfg.UI.Markdown {
		m.markdown = components.NewMarkdownRenderer(theme.GlamourStyle(), theme.BubbleWidth()-4)
	}
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case replyMsg:
		return m.handleReply(msg)

	case spinner.TickMsg:
		if !m.ctrl.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case exportDoneMsg:
		if msg.err != nil {
			m.logger.Warn("export_failed", zap.Error(msg.err))
			cmd := m.setNotice(styles.StatusIndicators.Error + " Falha ao exportar: " + msg.err.Error())
			return m, cmd
		}
		m.logger.Info("export_done", zap.String("path", msg.path))
		cmd := m.setNotice(styles.StatusIndicators.Success + " Conversa exportada: " + msg.path)
		return m, cmd

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.refresh()
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case ConfigErrorMsg:
		m.logger.Warn("config_reload_failed", zap.Error(msg.Err))
		cmd := m.setNotice(styles.StatusIndicators.Warning + " Configuração inválida, mantendo a anterior")
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat screen.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)
	m.markdown.SetWidth(m.theme.BubbleWidth() - 4)

	const promptLen = 2
	inputWidth := m.width - 2 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
	m.help.Width = m.width

	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Close):
		if m.showHelp {
			m.showHelp = false
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitInput()

	case key.Matches(msg, m.keys.Retry):
		return m.retry()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	// Typing stays enabled while a reply is awaited.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetInput(m.input.Value())
	return m, cmd
}

// submitInput handles Enter: slash commands run locally, anything else is
// a submit intent.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if name, args, ok := parseCommand(text); ok {
		if handler, found := commandHandlers[name]; found {
			m.input.Reset()
			m.ctrl.SetInput("")
			return handler(&m, args)
		}
	}

	turn, err := m.ctrl.Begin(text)
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return m, nil
	case errors.Is(err, session.ErrBusy):
		cmd := m.setNotice(styles.StatusIndicators.Warning + " Aguarde a resposta atual")
		return m, cmd
	case err != nil:
		m.logger.Error("submit_failed", zap.Error(err))
		return m, nil
	}

	m.input.Reset()
	return m.startTurn(turn)
}

// retry handles ctrl+r and /retry.
func (m Model) retry() (tea.Model, tea.Cmd) {
	turn, err := m.ctrl.BeginRetry()
	switch {
	case errors.Is(err, session.ErrBusy):
		cmd := m.setNotice(styles.StatusIndicators.Warning + " Aguarde a resposta atual")
		return m, cmd
	case errors.Is(err, session.ErrNothingToRetry):
		cmd := m.setNotice(styles.StatusIndicators.Info + " Nenhuma mensagem para repetir")
		return m, cmd
	case err != nil:
		m.logger.Error("retry_failed", zap.Error(err))
		return m, nil
	}
	return m.startTurn(turn)
}

func (m Model) startTurn(turn session.Turn) (tea.Model, tea.Cmd) {
	m.refresh()
	return m, tea.Batch(sendCmd(turn), m.spinner.Tick)
}

// sendCmd performs the turn's request off the event loop.
func sendCmd(turn session.Turn) tea.Cmd {
	return func() tea.Msg {
		reply, err := turn.Send(context.Background())
		return replyMsg{turn: turn, reply: reply, err: err}
	}
}

func (m Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	if _, err := m.ctrl.Complete(msg.turn, msg.reply, msg.err); err != nil {
		m.logger.Debug("reply_dropped", zap.String("turn_id", msg.turn.ID), zap.Error(err))
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Config == nil {
		return m, nil
	}
	m.cfg = msg.Config
	if m.client != nil {
		m.client.SetConfig(m.cfg.Webhook())
	}
	m.header.Title = m.cfg.UI.Title
	m.header.Tagline = m.cfg.UI.Tagline
	m.status.Host = m.cfg.Host()
	if m.cfg.UI.Markdown && m.markdown == nil {
		m.markdown = components.NewMarkdownRenderer(m.theme.GlamourStyle(), m.theme.BubbleWidth()-4)
	} else if !m.cfg.UI.Markdown {
		m.markdown = nil
	}

	m.logger.Info("config_reloaded", zap.String("host", m.cfg.Host()))
	cmd := m.setNotice(styles.StatusIndicators.Success + " Configuração recarregada")
	return m, cmd
}

// setNotice shows text in the status bar and schedules its removal.
func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.refresh()
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Controller returns the session being rendered.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Notice returns the current status bar notice.
func (m Model) Notice() string {
	return m.notice
}

// HelpVisible reports whether the help overlay is shown.
func (m Model) HelpVisible() bool {
	return m.showHelp
}

// InputValue returns the text in the input field.
func (m Model) InputValue() string {
	return m.input.Value()
}
