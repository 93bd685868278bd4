// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the conversation transcript.
//
// # Key Types
//
//   - Role: Message role enumeration (user, assistant, error, system)
//   - Message: Immutable record with id, role, content and timestamp
//   - Transcript: Append-only ordered sequence of messages
//
// # Usage
//
//	var t model.Transcript
//	t.Append(model.NewUserMessage("Olá"))
//	if last, ok := t.LastOfRole(model.RoleUser); ok {
//	    fmt.Println(last.Content)
//	}
//
// Messages are values. Every accessor hands out copies, so nothing outside
// the transcript can edit an entry once it has been appended.
package model
