// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package webhook

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Kind classifies a failed request.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindProtocol
	KindContent
)

// String returns the lowercase kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindContent:
		return "content"
	default:
		return "unknown"
	}
}

// ClientError is returned by Client.Send for every failed turn.
// Message is the user-facing detail shown in the transcript.
type ClientError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by kind and message, so a wrapped
// "Resposta vazia do servidor" still satisfies errors.Is(err, ErrEmptyReply).
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message && t.StatusCode == e.StatusCode
}

// Sentinel errors.
var (
	ErrEmptyReply  = &ClientError{Kind: KindContent, Message: "Resposta vazia do servidor"}
	ErrInvalidJSON = &ClientError{Kind: KindContent, Message: "resposta não é JSON válido"}
	ErrNoEndpoint  = &ClientError{Kind: KindTransport, Message: "endpoint não configurado"}
)

func transportError(cause error) *ClientError {
	return &ClientError{Kind: KindTransport, Cause: cause}
}

func protocolError(status int) *ClientError {
	return &ClientError{
		Kind:       KindProtocol,
		StatusCode: status,
		Message:    fmt.Sprintf("Erro HTTP! status: %d", status),
	}
}

func tooLarge(limit int) *ClientError {
	return &ClientError{
		Kind:    KindContent,
		Message: fmt.Sprintf("resposta excede o limite de %d bytes", limit),
	}
}

func invalidJSON(cause error) *ClientError {
	return &ClientError{Kind: KindContent, Message: ErrInvalidJSON.Message, Cause: cause}
}

// KindOf reports the Kind of err, or KindUnknown when err is not a
// *ClientError.
func KindOf(err error) Kind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by a protocol failure, or 0.
func StatusOf(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
