// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Transcript is the ordered, append-only log of a conversation.
// Insertion order is display order. The zero value is an empty transcript.
type Transcript struct {
	messages []Message
}

// NewTranscript returns a transcript holding copies of msgs, in order.
func NewTranscript(msgs ...Message) Transcript {
	t := Transcript{}
	for _, m := range msgs {
		t.Append(m)
	}
	return t
}

// Append adds a message at the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.messages = append(t.messages, msg)
}

// Len returns the number of messages.
func (t Transcript) Len() int {
	return len(t.messages)
}

// IsEmpty returns true if there are no messages.
func (t Transcript) IsEmpty() bool {
	return len(t.messages) == 0
}

// At returns the message at index i.
func (t Transcript) At(i int) (Message, bool) {
	if i < 0 || i >= len(t.messages) {
		return Message{}, false
	}
	return t.messages[i], true
}

// LastOfRole returns the most recent message with the given role,
// searching from the end.
func (t Transcript) LastOfRole(role Role) (Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == role {
			return t.messages[i], true
		}
	}
	return Message{}, false
}

// Messages returns a copy of all messages in order.
func (t Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Clone returns an independent copy of the transcript.
func (t Transcript) Clone() Transcript {
	return Transcript{messages: t.Messages()}
}

// CountByRole returns how many messages carry the given role.
func (t Transcript) CountByRole(role Role) int {
	n := 0
	for _, m := range t.messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
