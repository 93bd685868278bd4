// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the velaris command line.
//
// Commands:
//
//	velaris                      full-screen chat (Bubble Tea)
//	velaris chat                 line-oriented chat with input history
//	velaris ask [texto...]       one message, reply on stdout
//	velaris config show|path|init|validate
//	velaris version
//
// Global flags: --url, --config/-c, --verbose/-v.
package cli
