// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/uandersonal11/viralfy-v3/internal/session"
)

// maxStdinBytes bounds a question read from standard input.
const maxStdinBytes = 1 << 20

func newAskCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [texto...]",
		Short: "Envia uma única mensagem e imprime a resposta",
		Long: `Envia uma única mensagem ao agente e imprime a resposta.

Sem argumentos, o texto é lido da entrada padrão. Em caso de falha o
diagnóstico vai para stderr e o código de saída é 1.`,
		Example: `  velaris ask "Ideias de vídeo sobre café"
  echo "Roteiro de 30 segundos" | velaris ask
  velaris ask --json "Olá"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if text == "" {
				stdinText, err := readStdin(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = stdinText
			}

			_, ctrl := a.newSession()
			out, err := ctrl.Submit(cmd.Context(), text)
			if errors.Is(err, session.ErrEmptyInput) {
				return errors.New("nada para enviar: passe o texto como argumento ou pela entrada padrão")
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				if err := enc.Encode(ctrl.Snapshot()); err != nil {
					return fmt.Errorf("encode snapshot: %w", err)
				}
			} else if out.OK() {
				fmt.Fprintln(a.stdout, replyRenderer(a.cfg, IsStdoutTTY())(out.Message))
			}

			if !out.OK() {
				fmt.Fprintln(a.stderr, out.Message.Content)
				fmt.Fprintln(a.stderr, ctrl.Snapshot().LastError)
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "imprime o estado da sessão em JSON")
	return cmd
}

// readStdin reads the question from r unless r is an interactive terminal.
func readStdin(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxStdinBytes))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
