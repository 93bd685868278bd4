// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uandersonal11/viralfy-v3/internal/config"
	"github.com/uandersonal11/viralfy-v3/internal/logging"
	"github.com/uandersonal11/viralfy-v3/internal/session"
	"github.com/uandersonal11/viralfy-v3/internal/ui/chat"
	"github.com/uandersonal11/viralfy-v3/internal/webhook"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// exitError carries a process exit code for a failure that has already
// been reported to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// app holds the flags and everything built from them for one invocation.
type app struct {
	url        string
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger

	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the velaris command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "velaris",
		Short: "Velaris 👑 - chat no terminal com o agente de conteúdo",
		Long: `Velaris conversa com o agente de criação de conteúdo pelo webhook.

Sem subcomando, abre a interface em tela cheia. Use "velaris chat" para o
modo linha a linha e "velaris ask" para uma única pergunta.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync(a.logger)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.runTUI(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.url, "url", "", "endpoint do agente (sobrepõe a configuração)")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "arquivo de configuração")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log em nível debug")

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		fmt.Fprintln(os.Stderr, "velaris:", err)
		return 1
	}
	return 0
}

// =============================================================================
// SETUP
// =============================================================================

// loadConfig reads --config or the default locations and applies --url.
func (a *app) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (a *app) applyFlags(cfg *config.Config) {
	if a.url != "" {
		cfg.Endpoint.URL = a.url
	}
}

// setup loads the configuration and opens the log file.
func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	config.SetGlobal(cfg)
	lipgloss.SetColorProfile(GetColorProfile())

	a.logger.Debug("startup",
		zap.String("version", Version),
		zap.String("endpoint", cfg.Endpoint.URL),
		zap.Duration("timeout", cfg.Timeout()))
	return nil
}

// newSession builds the webhook client and a fresh controller.
func (a *app) newSession() (*webhook.Client, *session.Controller) {
	client := webhook.NewClient(a.cfg.Webhook(), webhook.WithLogger(a.logger))
	ctrl := session.New(client, session.WithLogger(a.logger))
	return client, ctrl
}

// watchedConfigPath is the file the TUI reloads on change, if any.
func (a *app) watchedConfigPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	path, err := config.FindConfigFile()
	if err != nil {
		return ""
	}
	return path
}

// =============================================================================
// TUI
// =============================================================================

func (a *app) runTUI(ctx context.Context) error {
	client, ctrl := a.newSession()
	m := chat.New(chat.Options{
		Controller: ctrl,
		Config:     a.cfg,
		Client:     client,
		Logger:     a.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if path := a.watchedConfigPath(); path != "" {
		w := &config.Watcher{
			Path: path,
			OnChange: func(cfg *config.Config) {
				a.applyFlags(cfg)
				p.Send(chat.ConfigReloadedMsg{Config: cfg})
			},
			OnError: func(err error) {
				p.Send(chat.ConfigErrorMsg{Err: err})
			},
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				a.logger.Warn("config_watch_failed", zap.String("path", path), zap.Error(err))
			}
		}()
	}

	a.logger.Info("tui_start", zap.String("session_id", ctrl.ID()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
