// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/uandersonal11/viralfy-v3/internal/config"
	"github.com/uandersonal11/viralfy-v3/internal/session"
	"github.com/uandersonal11/viralfy-v3/internal/webhook"
)

// replyMsg carries the result of a turn's request back to the event loop.
type replyMsg struct {
	turn  session.Turn
	reply webhook.Reply
	err   error
}

// exportDoneMsg reports the end of an /export.
type exportDoneMsg struct {
	path string
	err  error
}

// clearNoticeMsg expires the status bar notice with the same sequence number.
type clearNoticeMsg struct {
	seq int
}

// ConfigReloadedMsg delivers a configuration reloaded from disk. The
// endpoint settings apply to the next request; an in-flight request is not
// affected.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a configuration file that failed to reload.
type ConfigErrorMsg struct {
	Err error
}
