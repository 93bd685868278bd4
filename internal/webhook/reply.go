// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package webhook

import (
	"bytes"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// Field names the agent uses for its reply, in priority order.
const (
	FieldSaida  = "saída"
	FieldOutput = "output"
)

// Source records which extractor produced a reply.
type Source string

const (
	SourceSaida  Source = "saida"
	SourceOutput Source = "output"
	SourceRaw    Source = "raw"
)

// Reply is the text pulled out of a response body.
type Reply struct {
	Text   string
	Source Source
}

// IsRaw reports whether the reply is the serialized body rather than a
// named field. The agent is expected to always answer with a field, so a
// raw reply usually means the upstream contract changed.
func (r Reply) IsRaw() bool {
	return r.Source == SourceRaw
}

// extractor returns the reply text found in target, or "" when it has none.
type extractor struct {
	source Source
	fn     func(target json.RawMessage) string
}

var extractors = []extractor{
	{SourceSaida, field(FieldSaida)},
	{SourceOutput, field(FieldOutput)},
	{SourceRaw, serialized},
}

// ExtractReply decodes a response body and runs the extractor chain over it.
// The target is the first element of a non-empty top-level array, otherwise
// the decoded value itself. The first extractor to return non-empty text
// wins; if none does the result is ErrEmptyReply.
func ExtractReply(body []byte) (Reply, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Reply{}, ErrEmptyReply
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Reply{}, invalidJSON(err)
	}

	target := raw
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil && len(items) > 0 {
		target = items[0]
	}

	for _, ex := range extractors {
		if text := ex.fn(target); text != "" {
			return Reply{Text: text, Source: ex.source}, nil
		}
	}
	return Reply{}, ErrEmptyReply
}

// field extracts a non-empty string value stored under name. Whitespace
// counts as content. Keys are compared in NFC so a decomposed "saída" still
// matches.
func field(name string) func(json.RawMessage) string {
	want := norm.NFC.String(name)
	return func(target json.RawMessage) string {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(target, &obj); err != nil || obj == nil {
			return ""
		}
		value, ok := obj[want]
		if !ok {
			for key, v := range obj {
				if norm.NFC.String(key) == want {
					value, ok = v, true
					break
				}
			}
		}
		if !ok {
			return ""
		}
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return ""
		}
		return text
	}
}

// serialized returns the compact JSON of target. Values that carry nothing
// ({} [] null "") count as empty.
func serialized(target json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, target); err != nil {
		return ""
	}
	switch s := buf.String(); s {
	case "{}", "[]", "null", `""`:
		return ""
	default:
		return s
	}
}
