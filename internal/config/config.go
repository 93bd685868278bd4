// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/uandersonal11/viralfy-v3/internal/util"
	"github.com/uandersonal11/viralfy-v3/internal/webhook"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete velaris configuration.
type Config struct {
	Endpoint EndpointConfig `toml:"endpoint" yaml:"endpoint" json:"endpoint"`
	UI       UIConfig       `toml:"ui" yaml:"ui" json:"ui"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging" json:"logging"`
	Export   ExportConfig   `toml:"export" yaml:"export" json:"export"`
}

// EndpointConfig describes the agent webhook.
type EndpointConfig struct {
	URL         string            `toml:"url" yaml:"url" json:"url"`
	TimeoutSecs int               `toml:"timeout_secs" yaml:"timeout_secs" json:"timeout_secs"`
	UserAgent   string            `toml:"user_agent,omitempty" yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Headers     map[string]string `toml:"headers,omitempty" yaml:"headers,omitempty" json:"headers,omitempty"`
}

// UIConfig contains presentation settings shared by the TUI and the REPL.
type UIConfig struct {
	Title   string `toml:"title" yaml:"title" json:"title"`
	Tagline string `toml:"tagline" yaml:"tagline" json:"tagline"`
	// Markdown renders assistant replies through glamour.
	Markdown bool `toml:"markdown" yaml:"markdown" json:"markdown"`
	// Theme is "auto", "dark" or "light".
	Theme          string `toml:"theme" yaml:"theme" json:"theme"`
	ShowTimestamps bool   `toml:"show_timestamps" yaml:"show_timestamps" json:"show_timestamps"`
}

// LoggingConfig controls the log file. The terminal belongs to the UI, so
// logs never go to stdout or stderr.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level" json:"level"`
	File  string `toml:"file" yaml:"file" json:"file"`
}

// ExportConfig controls /export and `velaris export`.
type ExportConfig struct {
	Dir    string `toml:"dir" yaml:"dir" json:"dir"`
	Format string `toml:"format" yaml:"format" json:"format"`
}

const (
	DefaultTitle   = "Velaris 👑"
	DefaultTagline = "Receba ajuda personalizada e acelere sua criação de conteúdo."

	defaultTimeoutSecs = 60
	maxTimeoutSecs     = 600
)

// Default returns the built-in configuration.
func Default() *Config {
	logFile := ""
	if dir, err := ConfigDir(); err == nil {
		logFile = filepath.Join(dir, "velaris.log")
	}
	return &Config{
		Endpoint: EndpointConfig{
			URL:         webhook.DefaultURL,
			TimeoutSecs: defaultTimeoutSecs,
			UserAgent:   webhook.DefaultUserAgent,
		},
		UI: UIConfig{
			Title:    DefaultTitle,
			Tagline:  DefaultTagline,
			Markdown: true,
			Theme:    "auto",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  logFile,
		},
		Export: ExportConfig{
			Dir:    ".",
			Format: "md",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the velaris configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".velaris"), nil
}

// ConfigPaths returns the candidate config files in lookup order.
func ConfigPaths() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.json"),
	}, nil
}

// FindConfigFile returns the first existing config file, or "" if none.
func FindConfigFile() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// HistoryPath returns the REPL input history file.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "input_history"), nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the first config file found in ConfigDir, or the defaults when
// there is none. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := FindConfigFile()
	if err != nil {
		return nil, err
	}
	if path != "" {
		return LoadFromPath(path)
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific file. The format is picked
// by extension: .yaml/.yml, .json, anything else is TOML. Keys missing from
// the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := decode(cfg, path, data); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func decode(cfg *Config, path string, data []byte) error {
	switch formatOf(path) {
	case "yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to decode TOML: %w", err)
		}
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "toml"
	}
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills values a file explicitly blanked and expands "~" in
// paths.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Endpoint.URL == "" {
		c.Endpoint.URL = defaults.Endpoint.URL
	}
	if c.Endpoint.TimeoutSecs == 0 {
		c.Endpoint.TimeoutSecs = defaults.Endpoint.TimeoutSecs
	}
	if c.Endpoint.UserAgent == "" {
		c.Endpoint.UserAgent = defaults.Endpoint.UserAgent
	}
	if c.UI.Title == "" {
		c.UI.Title = defaults.UI.Title
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.File == "" {
		c.Logging.File = defaults.Logging.File
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaults.Export.Dir
	}
	if c.Export.Format == "" {
		c.Export.Format = defaults.Export.Format
	}

	c.UI.Theme = strings.ToLower(c.UI.Theme)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Export.Format = strings.ToLower(c.Export.Format)
	c.Logging.File = expandHome(c.Logging.File)
	c.Export.Dir = expandHome(c.Export.Dir)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

const fileHeader = "# velaris configuration file\n# Generated by velaris - edit with care\n\n"

// Save writes the configuration to path, in the format its extension names.
// Config files are created 0600 since headers may carry credentials.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer

	switch formatOf(path) {
	case "yaml":
		buf.WriteString(fileHeader)
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	default:
		buf.WriteString(fileHeader)
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration. The returned error is a ValidateErrors
// listing every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Endpoint.URL)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{"endpoint.url", fmt.Sprintf("invalid URL: %v", err)})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{"endpoint.url", fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)})
	case u.Host == "":
		errs = append(errs, ValidationError{"endpoint.url", "missing host"})
	}

	if c.Endpoint.TimeoutSecs < 1 || c.Endpoint.TimeoutSecs > maxTimeoutSecs {
		errs = append(errs, ValidationError{
			"endpoint.timeout_secs",
			fmt.Sprintf("must be between 1 and %d, got %d", maxTimeoutSecs, c.Endpoint.TimeoutSecs),
		})
	}

	for name := range c.Endpoint.Headers {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " :\r\n") {
			errs = append(errs, ValidationError{"endpoint.headers", fmt.Sprintf("invalid header name %q", name)})
		}
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)})
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{"logging.level", fmt.Sprintf("invalid level '%s'", c.Logging.Level)})
	}

	switch c.Export.Format {
	case "md", "json":
	default:
		errs = append(errs, ValidationError{"export.format", fmt.Sprintf("invalid format '%s', must be one of: md, json", c.Export.Format)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - VELARIS_URL: overrides endpoint.url
//   - VELARIS_TIMEOUT: overrides endpoint.timeout_secs (whole seconds)
//   - VELARIS_LOG_LEVEL: overrides logging.level
//   - VELARIS_LOG_FILE: overrides logging.file
//   - VELARIS_THEME: overrides ui.theme
//   - VELARIS_EXPORT_DIR: overrides export.dir
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("VELARIS_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("VELARIS_TIMEOUT"); v != "" {
		// Unparseable values become 0 and fall back to the default.
		secs, _ := strconv.Atoi(strings.TrimSuffix(v, "s"))
		c.Endpoint.TimeoutSecs = secs
	}
	if v := os.Getenv("VELARIS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VELARIS_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("VELARIS_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("VELARIS_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Timeout returns the endpoint timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Endpoint.TimeoutSecs) * time.Second
}

// Webhook returns the client settings for the endpoint.
func (c *Config) Webhook() webhook.Config {
	headers := make(map[string]string, len(c.Endpoint.Headers))
	for k, v := range c.Endpoint.Headers {
		headers[k] = v
	}
	return webhook.Config{
		URL:       c.Endpoint.URL,
		Timeout:   c.Timeout(),
		Headers:   headers,
		UserAgent: c.Endpoint.UserAgent,
	}
}

// Host returns the endpoint host for display.
func (c *Config) Host() string {
	u, err := url.Parse(c.Endpoint.URL)
	if err != nil || u.Host == "" {
		return c.Endpoint.URL
	}
	return u.Host
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Endpoint.Headers != nil {
		clone.Endpoint.Headers = make(map[string]string, len(c.Endpoint.Headers))
		for k, v := range c.Endpoint.Headers {
			clone.Endpoint.Headers[k] = v
		}
	}
	return &clone
}

// String renders the config as TOML with header values redacted, since they
// commonly carry tokens.
func (c *Config) String() string {
	safe := c.Clone()
	names := make([]string, 0, len(safe.Endpoint.Headers))
	for k := range safe.Endpoint.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		safe.Endpoint.Headers[k] = "[REDACTED]"
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return err.Error()
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A broken config file falls back to the defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.SetDefaults()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
