// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the view pieces of the Velaris chat screen.

Each component is a plain struct with a View method and no Bubble Tea
state of its own; the chat model owns the update loop and hands the
components whatever they need to draw.

# Components

Header (header.go) - Title and tagline at the top of the screen.
MessageBubble (message.go) - One transcript entry, styled by role.
ErrorBanner (banner.go) - The retry banner shown after a failed turn.
StatusBar (statusbar.go) - Endpoint host, counters and key hints.
MarkdownRenderer (markdown.go) - Glamour wrapper for assistant replies.

HighlightJSON (codeblock.go) colors replies that fell back to the raw
response body.
*/
package components
