// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uandersonal11/viralfy-v3/internal/config"
	"github.com/uandersonal11/viralfy-v3/internal/ui/styles"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Mostra, cria e valida a configuração",
	}
	cmd.AddCommand(
		newConfigShowCmd(a),
		newConfigPathCmd(a),
		newConfigInitCmd(a),
		newConfigValidateCmd(a),
	)
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Imprime a configuração efetiva (cabeçalhos ocultos)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, cfg.String())
			return nil
		},
	}
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Mostra qual arquivo de configuração é usado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(path); statErr != nil {
				fmt.Fprintf(a.stdout, "%s (não existe, usando padrões)\n", path)
				return nil
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		force  bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Cria um arquivo de configuração com os valores padrão",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				ext, err := configExt(format)
				if err != nil {
					return err
				}
				path = filepath.Join(dir, "config"+ext)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s já existe (use --force para sobrescrever)", path)
			}

			cfg := config.Default()
			a.applyFlags(cfg)
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, styles.RenderSuccess("Configuração criada em "+path))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "sobrescreve um arquivo existente")
	cmd.Flags().StringVar(&format, "format", "toml", "formato do arquivo: toml, yaml ou json")
	return cmd
}

func newConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Valida o arquivo de configuração",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.loadConfig(); err != nil {
				fmt.Fprintln(a.stderr, styles.RenderError(err.Error()))
				return &exitError{code: 1}
			}
			path, err := a.configFile()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, styles.RenderSuccess("Configuração válida: "+path))
			return nil
		},
	}
}

// configFile is --config, else the first existing default file, else the
// TOML default location.
func (a *app) configFile() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	path, err := config.FindConfigFile()
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}
	paths, err := config.ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

func configExt(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "toml":
		return ".toml", nil
	case "yaml", "yml":
		return ".yaml", nil
	case "json":
		return ".json", nil
	default:
		return "", fmt.Errorf("formato desconhecido %q (use toml, yaml ou json)", format)
	}
}
