// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for velaris.
//
// Supports TOML, YAML and JSON configuration files, with defaults,
// environment variable overrides, validation and live reload.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (VELARIS_*)
//   - --config <path>, when given
//   - ~/.velaris/config.toml
//   - ~/.velaris/config.yaml
//   - ~/.velaris/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := webhook.NewClient(cfg.Webhook())
//
// Watch a file and swap endpoint settings on change:
//
//	w := &config.Watcher{
//	    Path:     path,
//	    OnChange: func(cfg *config.Config) { client.SetConfig(cfg.Webhook()) },
//	}
//	go w.Run(ctx)
package config
