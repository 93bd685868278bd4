// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/uandersonal11/viralfy-v3/internal/model"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	SessionID     string          `json:"session_id"`
	StartedAt     time.Time       `json:"started_at"`
	Messages      []model.Message `json:"messages"`
	PendingInput  string          `json:"pending_input,omitempty"`
	AwaitingReply bool            `json:"awaiting_reply"`
	LastError     string          `json:"last_error,omitempty"`
	RetryCount    int             `json:"retry_count"`
}

// HasError reports whether the error banner should be shown.
func (s Snapshot) HasError() bool {
	return s.LastError != ""
}

// IsEmpty reports whether no message has been exchanged yet.
func (s Snapshot) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Transcript rebuilds a Transcript from the snapshot messages.
func (s Snapshot) Transcript() model.Transcript {
	return model.NewTranscript(s.Messages...)
}
