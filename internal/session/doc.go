// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the state of one conversation with the agent.
//
// A Controller holds the transcript, the pending input buffer, the
// awaiting-reply flag, the last error banner and the consecutive failure
// counter. Renderers never touch that state directly: they read a Snapshot
// and forward exactly two intents, Submit and Retry.
//
// # Usage
//
// Blocking form, used by the line REPL and the one-shot command:
//
//	ctrl := session.New(client, session.WithLogger(logger))
//	out, err := ctrl.Submit(ctx, "Olá")
//
// Split form, used by the event-driven TUI where the request runs in a
// background command:
//
//	turn, err := ctrl.Begin(text)
//	reply, sendErr := turn.Send(ctx)   // off the event loop
//	out, err := ctrl.Complete(turn, reply, sendErr)
//
// # Turn lifecycle
//
// idle -> awaiting reply -> idle. A success resets the failure counter to
// zero; a failure appends an error message, sets the banner text and bumps
// the counter. There is no separate failed state.
package session
