// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the current conversation to a file.
//
// Exports are a one-way dump requested by the user with /export or the
// REPL; nothing here is ever read back into a session.
//
// # Supported Formats
//
//   - Markdown: YAML frontmatter plus one heading per message
//   - JSON: the full snapshot, for scripts
//
// # Usage
//
//	exporter, err := export.ForFormat("md", opts)
//	path, err := export.ExportToFile(ctrl.Snapshot(), exporter, opts)
package export
