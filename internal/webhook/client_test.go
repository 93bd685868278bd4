// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_FillsDefaults(t *testing.T) {
	c := NewClient(Config{})
	cfg := c.Config()
	assert.Equal(t, DefaultURL, cfg.URL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.NotNil(t, cfg.Headers)
}

func TestSend_PostsMessage(t *testing.T) {
	var got request
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "velaris-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "abc", r.Header.Get("X-Trace"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":"Oi!"}`))
	})

	c := NewClient(Config{
		URL:       srv.URL,
		UserAgent: "velaris-test",
		Headers:   map[string]string{"X-Trace": "abc"},
	}, WithHTTPClient(srv.Client()))
	text, err := c.Send(context.Background(), "  Olá  ")
	require.NoError(t, err)
	assert.Equal(t, "Oi!", text)
	assert.Equal(t, "  Olá  ", got.Message, "payload is the raw text")
}

func TestSend_NonSuccessStatus(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"output":"ignored"}`))
	})

	_, err := NewClient(Config{URL: srv.URL}).Send(context.Background(), "teste")
	require.Error(t, err)
	assert.Equal(t, KindProtocol, KindOf(err))
	assert.Equal(t, 500, StatusOf(err))
	assert.Equal(t, "Erro HTTP! status: 500", err.Error())
}

func TestSend_EmptyObject(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := NewClient(Config{URL: srv.URL}).Send(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyReply))
	assert.Equal(t, "Resposta vazia do servidor", err.Error())
}

func TestSend_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{URL: url}).Send(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.NotEmpty(t, err.Error())
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := NewClient(Config{URL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSendReply_ReportsRawSource(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"resposta":"sem campo"}]`))
	})

	reply, err := NewClient(Config{URL: srv.URL}).SendReply(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, reply.IsRaw())
	assert.Equal(t, `{"resposta":"sem campo"}`, reply.Text)
}

func TestSend_BodyOverLimit(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		body := append([]byte(`{"output":"`), bytes.Repeat([]byte("a"), maxBodyBytes)...)
		_, _ = w.Write(append(body, `"}`...))
	})

	_, err := NewClient(Config{URL: srv.URL}).Send(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindContent, KindOf(err))
	assert.Contains(t, err.Error(), "limite de 4194304 bytes")
	assert.False(t, errors.Is(err, ErrInvalidJSON))
}

func TestSetConfig_SwapsEndpoint(t *testing.T) {
	first := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"primeiro"}`))
	})
	second := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"segundo"}`))
	})

	c := NewClient(Config{URL: first.URL})
	text, err := c.Send(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "primeiro", text)

	c.SetConfig(Config{URL: second.URL})
	text, err = c.Send(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "segundo", text)
}

func TestClientError_Is(t *testing.T) {
	err := protocolError(404)
	assert.False(t, errors.Is(err, ErrEmptyReply))
	assert.True(t, errors.Is(err, &ClientError{Kind: KindProtocol, StatusCode: 404, Message: "Erro HTTP! status: 404"}))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "protocol", KindProtocol.String())
}
