// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/uandersonal11/viralfy-v3/internal/config"
	"github.com/uandersonal11/viralfy-v3/internal/session"
	"github.com/uandersonal11/viralfy-v3/internal/util"
)

// ErrEmptyConversation is returned when there is nothing to export.
var ErrEmptyConversation = errors.New("conversa vazia: nada para exportar")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export renders the snapshot in the target format.
	Export(snap session.Snapshot) ([]byte, error)

	// FileExtension returns the file extension, dot included.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved (default ".").
	OutputDir string

	// Title heads the Markdown document.
	Title string

	// Endpoint is recorded in the metadata, when set.
	Endpoint string

	// IncludeMetadata adds the frontmatter and session summary.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps.
	IncludeTimestamps bool

	// Now stamps the export. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		Title:             "Conversa",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// OptionsFromConfig returns default options pointed at the configured
// export directory and endpoint.
func OptionsFromConfig(cfg *config.Config) *Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.Export.Dir != "" {
		opts.OutputDir = cfg.Export.Dir
	}
	if cfg.UI.Title != "" {
		opts.Title = cfg.UI.Title
	}
	opts.Endpoint = cfg.Endpoint.URL
	return opts
}

// Run exports snap in format (the configured default when empty) and
// returns the written path.
func Run(snap session.Snapshot, format string, cfg *config.Config) (string, error) {
	opts := OptionsFromConfig(cfg)
	if format == "" && cfg != nil {
		format = cfg.Export.Format
	}
	exporter, err := ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	return ExportToFile(snap, exporter, opts)
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ForFormat returns the exporter for "md"/"markdown" or "json".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("formato de exportação desconhecido: %q (use md ou json)", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders snap and writes it atomically as
// conversa_<timestamp><ext> in opts.OutputDir. Returns the written path.
func ExportToFile(snap session.Snapshot, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if snap.IsEmpty() {
		return "", ErrEmptyConversation
	}

	content, err := exporter.Export(snap)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(opts.now(), exporter.FileExtension()))
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Filename returns the export file name for a given moment.
func Filename(at time.Time, ext string) string {
	return "conversa_" + at.Format("20060102_150405") + ext
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
