// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/uandersonal11/viralfy-v3/internal/session"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports the whole snapshot as indented JSON.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// document is the JSON export layout.
type document struct {
	Generator  string           `json:"generator"`
	ExportedAt time.Time        `json:"exported_at"`
	Endpoint   string           `json:"endpoint,omitempty"`
	Session    session.Snapshot `json:"session"`
}

// Export converts a conversation to JSON format.
func (e *JSONExporter) Export(snap session.Snapshot) ([]byte, error) {
	if snap.IsEmpty() {
		return nil, ErrEmptyConversation
	}
	// The input buffer is local UI state, not part of the conversation.
	snap.PendingInput = ""

	data, err := json.MarshalIndent(document{
		Generator:  "velaris",
		ExportedAt: e.options.now(),
		Endpoint:   e.options.Endpoint,
		Session:    snap,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
