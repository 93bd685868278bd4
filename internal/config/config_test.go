// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uandersonal11/viralfy-v3/internal/webhook"
)

// isolate points HOME at a temp dir and clears VELARIS_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, name := range []string{
		"VELARIS_URL", "VELARIS_TIMEOUT", "VELARIS_LOG_LEVEL",
		"VELARIS_LOG_FILE", "VELARIS_THEME", "VELARIS_EXPORT_DIR",
	} {
		t.Setenv(name, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	home := isolate(t)
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, webhook.DefaultURL, cfg.Endpoint.URL)
	assert.Equal(t, 60, cfg.Endpoint.TimeoutSecs)
	assert.Equal(t, DefaultTitle, cfg.UI.Title)
	assert.True(t, cfg.UI.Markdown)
	assert.Equal(t, filepath.Join(home, ".velaris", "velaris.log"), cfg.Logging.File)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, webhook.DefaultURL, cfg.Endpoint.URL)
}

func TestLoad_PrefersTOMLOverYAML(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".velaris", "config.toml"), "[endpoint]\nurl = \"https://toml.example/hook\"\n")
	writeFile(t, filepath.Join(home, ".velaris", "config.yaml"), "endpoint:\n  url: https://yaml.example/hook\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://toml.example/hook", cfg.Endpoint.URL)
}

func TestLoadFromPath_Formats(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	tests := []struct {
		file    string
		content string
	}{
		{"c.toml", "[endpoint]\nurl = \"https://agent.example/hook\"\ntimeout_secs = 15\n[ui]\nmarkdown = false\n"},
		{"c.yaml", "endpoint:\n  url: https://agent.example/hook\n  timeout_secs: 15\nui:\n  markdown: false\n"},
		{"c.json", `{"endpoint":{"url":"https://agent.example/hook","timeout_secs":15},"ui":{"markdown":false}}`},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)

			cfg, err := LoadFromPath(path)
			require.NoError(t, err)
			assert.Equal(t, "https://agent.example/hook", cfg.Endpoint.URL)
			assert.Equal(t, 15*time.Second, cfg.Timeout())
			assert.False(t, cfg.UI.Markdown)
			// Keys absent from the file keep their defaults.
			assert.Equal(t, DefaultTitle, cfg.UI.Title)
			assert.Equal(t, "md", cfg.Export.Format)
		})
	}
}

func TestLoadFromPath_DecodeError(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "broken.toml")
	writeFile(t, path, "[endpoint\nurl=")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOML")
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, "ui:\n  theme: neon\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "ui.theme", verrs[0].Field)
}

func TestSetDefaults_ExpandsHome(t *testing.T) {
	home := isolate(t)
	cfg := Default()
	cfg.Export.Dir = "~/exports"
	cfg.Logging.Level = "DEBUG"
	cfg.SetDefaults()

	assert.Equal(t, filepath.Join(home, "exports"), cfg.Export.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("VELARIS_URL", "http://localhost:5678/webhook/test")
	t.Setenv("VELARIS_TIMEOUT", "30")
	t.Setenv("VELARIS_LOG_LEVEL", "debug")
	t.Setenv("VELARIS_LOG_FILE", "/tmp/v.log")
	t.Setenv("VELARIS_THEME", "light")
	t.Setenv("VELARIS_EXPORT_DIR", "/tmp/out")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5678/webhook/test", cfg.Endpoint.URL)
	assert.Equal(t, 30, cfg.Endpoint.TimeoutSecs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/v.log", cfg.Logging.File)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)
	assert.Equal(t, "localhost:5678", cfg.Host())
}

func TestApplyEnvOverrides_BadTimeoutFallsBack(t *testing.T) {
	isolate(t)
	t.Setenv("VELARIS_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Endpoint.TimeoutSecs)
}

func TestApplyEnvOverrides_WinsOverFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".velaris", "config.toml"), "[ui]\ntheme = \"dark\"\n")
	t.Setenv("VELARIS_THEME", "light")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_CollectsAllErrors(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Endpoint.URL = "ftp://example.com"
	cfg.Endpoint.TimeoutSecs = 9000
	cfg.Endpoint.Headers = map[string]string{"Bad Header": "x"}
	cfg.UI.Theme = "neon"
	cfg.Logging.Level = "loud"
	cfg.Export.Format = "pdf"

	err := cfg.Validate()
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{
		"endpoint.url", "endpoint.timeout_secs", "endpoint.headers",
		"ui.theme", "logging.level", "export.format",
	}, fields)
	assert.Contains(t, err.Error(), "; ")
}

func TestValidate_URLWithoutHost(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Endpoint.URL = "https://"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing host")
}

// =============================================================================
// SAVE
// =============================================================================

func TestSave_RoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	for _, name := range []string{"config.toml", "config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Endpoint.URL = "https://saved.example/hook"
			cfg.Endpoint.Headers = map[string]string{"X-Api-Key": "segredo"}
			cfg.UI.ShowTimestamps = true

			path := filepath.Join(dir, name)
			require.NoError(t, Save(cfg, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			if os.PathSeparator == '/' {
				assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
			}

			loaded, err := LoadFromPath(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Endpoint.URL, loaded.Endpoint.URL)
			assert.Equal(t, "segredo", loaded.Endpoint.Headers["X-Api-Key"])
			assert.True(t, loaded.UI.ShowTimestamps)
		})
	}
}

func TestString_RedactsHeaders(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Endpoint.Headers = map[string]string{"Authorization": "Bearer abc"}

	out := cfg.String()
	assert.NotContains(t, out, "Bearer abc")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "Bearer abc", cfg.Endpoint.Headers["Authorization"], "original untouched")
}

func TestWebhook_CopiesHeaders(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Endpoint.Headers = map[string]string{"X-Trace": "1"}

	wc := cfg.Webhook()
	wc.Headers["X-Trace"] = "2"
	assert.Equal(t, "1", cfg.Endpoint.Headers["X-Trace"])
	assert.Equal(t, 60*time.Second, wc.Timeout)
}

// =============================================================================
// GLOBAL
// =============================================================================

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			assert.NotNil(t, Global())
		}()
	}
	wg.Wait()
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatcher_ReloadsOnChange(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[endpoint]\nurl = \"https://one.example/hook\"\n")

	changes := make(chan *Config, 16)
	errs := make(chan error, 16)
	w := &Watcher{
		Path:     path,
		Debounce: 50 * time.Millisecond,
		OnChange: func(c *Config) {
			select {
			case changes <- c:
			default:
			}
		},
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, path, "[ui]\ntheme = \"neon\"\n")
	deadline := time.After(3 * time.Second)
	for reported := false; !reported; {
		select {
		case err := <-errs:
			reported = strings.Contains(err.Error(), "ui.theme")
		case <-changes:
			// Editors may produce an intermediate empty file; ignore it.
		case <-deadline:
			t.Fatal("invalid edit was not reported")
		}
	}

	writeFile(t, path, "[endpoint]\nurl = \"https://two.example/hook\"\n")
	deadline = time.After(3 * time.Second)
	for delivered := false; !delivered; {
		select {
		case cfg := <-changes:
			delivered = cfg.Endpoint.URL == "https://two.example/hook"
		case <-errs:
		case <-deadline:
			t.Fatal("config change not delivered")
		}
	}
}

func TestWatcher_StopsWithContext(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &Watcher{Path: path, OnChange: func(*Config) {}}
	assert.NoError(t, w.Run(ctx))
}
