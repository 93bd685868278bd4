// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across the client: crash-safe
// file writes for config and exports, and rune/cell aware string
// truncation for the terminal views.
package util
