// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen Bubble Tea interface for a Velaris
session.

The Model renders a session.Controller snapshot plus its own widget state
(viewport, text input, spinner, dimensions). It never edits the transcript
itself: Enter and ctrl+r are translated into the controller's two intents,
and the outbound request runs in a tea.Cmd whose result comes back as a
message and is handed to Controller.Complete.

# Files

  - model.go: Model, construction and the Update loop
  - view.go: layout and rendering
  - keys.go: key bindings (bubbles/key) and help
  - commands.go: slash commands (/retry, /export, /help, /quit)
  - messages.go: tea.Msg types

# Usage

	ctrl := session.New(client, session.WithLogger(logger))
	m := chat.New(chat.Options{Controller: ctrl, Config: cfg, Client: client})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
*/
package chat
