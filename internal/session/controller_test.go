// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/uandersonal11/viralfy-v3/internal/model"
	"github.com/uandersonal11/viralfy-v3/internal/webhook"
)

// scriptedSender replies from a queue and records every payload.
type scriptedSender struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	payloads []string
}

func (s *scriptedSender) Send(_ context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, text)
	i := len(s.payloads) - 1
	var reply string
	var err error
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return reply, err
}

func (s *scriptedSender) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

var errBoom = errors.New("boom")

func newWebhookController(t *testing.T, handler http.HandlerFunc) *Controller {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(webhook.NewClient(webhook.Config{URL: srv.URL, Timeout: 5 * time.Second}))
}

func roles(msgs []model.Message) []model.Role {
	out := make([]model.Role, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenario_SuccessfulTurn(t *testing.T) {
	ctrl := newWebhookController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{ "output": "Oi!" }`))
	})

	out, err := ctrl.Submit(context.Background(), "Olá")
	require.NoError(t, err)
	assert.True(t, out.OK())

	snap := ctrl.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, model.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, "Olá", snap.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, snap.Messages[1].Role)
	assert.Equal(t, "Oi!", snap.Messages[1].Content)
	assert.Equal(t, 0, snap.RetryCount)
	assert.False(t, snap.HasError())
	assert.False(t, snap.AwaitingReply)
}

func TestScenario_HTTPFailure(t *testing.T) {
	ctrl := newWebhookController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	out, err := ctrl.Submit(context.Background(), "teste")
	require.NoError(t, err)
	assert.False(t, out.OK())
	assert.Equal(t, webhook.KindProtocol, webhook.KindOf(out.Err))

	snap := ctrl.Snapshot()
	assert.Equal(t, []model.Role{model.RoleUser, model.RoleError}, roles(snap.Messages))
	assert.Contains(t, snap.Messages[1].Content, "500")
	assert.Equal(t,
		"Desculpe, houve um erro ao processar sua solicitação. Detalhes do erro: Erro HTTP! status: 500",
		snap.Messages[1].Content)
	assert.Equal(t, 1, snap.RetryCount)
	assert.Contains(t, snap.LastError, "Tentativa 1")
	assert.False(t, snap.AwaitingReply)
}

func TestScenario_EmptyObjectIsContentFailure(t *testing.T) {
	ctrl := newWebhookController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	out, err := ctrl.Submit(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, webhook.KindContent, webhook.KindOf(out.Err))

	snap := ctrl.Snapshot()
	assert.Equal(t, []model.Role{model.RoleUser, model.RoleError}, roles(snap.Messages))
	assert.Contains(t, snap.Messages[1].Content, "Resposta vazia do servidor")
	assert.Equal(t, 1, snap.RetryCount)
}

func TestScenario_SaidaPreferredOverOutput(t *testing.T) {
	ctrl := newWebhookController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"output":"B","saída":"A"}]`))
	})

	out, err := ctrl.Submit(context.Background(), "oi")
	require.NoError(t, err)
	assert.Equal(t, "A", out.Message.Content)
}

// =============================================================================
// SUBMIT PROPERTIES
// =============================================================================

func TestSubmit_AppendsRawTextBeforeSending(t *testing.T) {
	var seen Snapshot
	var ctrl *Controller
	ctrl = New(SenderFunc(func(_ context.Context, text string) (string, error) {
		seen = ctrl.Snapshot()
		return "ok", nil
	}))
	ctrl.SetInput("  com espaços  ")

	_, err := ctrl.Submit(context.Background(), "  com espaços  ")
	require.NoError(t, err)

	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "  com espaços  ", seen.Messages[0].Content)
	assert.Empty(t, seen.PendingInput)
	assert.True(t, seen.AwaitingReply)
	assert.Empty(t, seen.LastError)
}

func TestSubmit_BlankInputIsNoOp(t *testing.T) {
	sender := &scriptedSender{errs: []error{errBoom}}
	ctrl := New(sender)
	_, _ = ctrl.Submit(context.Background(), "primeira")
	ctrl.SetInput("   ")
	before := ctrl.Snapshot()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := ctrl.Submit(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}

	after := ctrl.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, 1, sender.calls())
}

func TestSubmit_SuccessResetsRetryCount(t *testing.T) {
	sender := &scriptedSender{
		replies: []string{"", "", "enfim"},
		errs:    []error{errBoom, errBoom, nil},
	}
	ctrl := New(sender)

	for i := 0; i < 3; i++ {
		_, err := ctrl.Submit(context.Background(), "pergunta")
		require.NoError(t, err)
	}

	snap := ctrl.Snapshot()
	assert.Equal(t, 0, snap.RetryCount)
	assert.Empty(t, snap.LastError)
	require.NotEmpty(t, snap.Messages)
	assert.Equal(t, "enfim", snap.Messages[len(snap.Messages)-1].Content)
}

func TestSubmit_ConsecutiveFailuresCountUp(t *testing.T) {
	sender := &scriptedSender{errs: []error{errBoom, errBoom, errBoom}}
	ctrl := New(sender)

	for i := 1; i <= 3; i++ {
		_, err := ctrl.Submit(context.Background(), "x")
		require.NoError(t, err)
		snap := ctrl.Snapshot()
		assert.Equal(t, i, snap.RetryCount)
		assert.Equal(t, BannerText(i), snap.LastError)
	}
}

func TestSubmit_EmptyReplyIsFailure(t *testing.T) {
	ctrl := New(&scriptedSender{replies: []string{""}})

	out, err := ctrl.Submit(context.Background(), "x")
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, webhook.ErrEmptyReply)
	assert.Equal(t, 1, ctrl.Snapshot().RetryCount)
}

func TestSubmit_WhitespaceReplyIsContent(t *testing.T) {
	ctrl := New(&scriptedSender{replies: []string{"  "}})

	out, err := ctrl.Submit(context.Background(), "x")
	require.NoError(t, err)
	require.True(t, out.OK())
	assert.Equal(t, "  ", out.Message.Content)
	assert.Zero(t, ctrl.Snapshot().RetryCount)
}

// sourcedSender answers with a fixed Reply, source included.
type sourcedSender struct {
	reply webhook.Reply
}

func (s sourcedSender) Send(context.Context, string) (string, error) {
	return s.reply.Text, nil
}

func (s sourcedSender) SendReply(context.Context, string) (webhook.Reply, error) {
	return s.reply, nil
}

func TestSubmit_RecordsReplySource(t *testing.T) {
	tests := []struct {
		name  string
		reply webhook.Reply
		raw   bool
	}{
		{"named field", webhook.Reply{Text: `{"a":1}`, Source: webhook.SourceOutput}, false},
		{"raw fallback", webhook.Reply{Text: `"hi"`, Source: webhook.SourceRaw}, true},
		{"plain sender", webhook.Reply{Text: "ok"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := New(sourcedSender{reply: tt.reply})
			out, err := ctrl.Submit(context.Background(), "x")
			require.NoError(t, err)
			require.True(t, out.OK())
			assert.Equal(t, tt.raw, out.Message.Raw)

			snap := ctrl.Snapshot()
			assert.Equal(t, tt.raw, snap.Messages[1].Raw)
			assert.False(t, snap.Messages[0].Raw)
		})
	}
}

func TestSubmit_WebhookClientFlagsRawReply(t *testing.T) {
	ctrl := newWebhookController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resposta":"sem campo"}`))
	})
	out, err := ctrl.Submit(context.Background(), "x")
	require.NoError(t, err)
	require.True(t, out.OK())
	assert.True(t, out.Message.Raw)
	assert.Equal(t, `{"resposta":"sem campo"}`, out.Message.Content)
}

func TestSubmit_RejectedWhileAwaiting(t *testing.T) {
	sender := &scriptedSender{replies: []string{"ok"}}
	ctrl := New(sender)

	turn, err := ctrl.Begin("primeira")
	require.NoError(t, err)
	assert.True(t, ctrl.Busy())

	_, err = ctrl.Submit(context.Background(), "segunda")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = ctrl.Retry(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, ctrl.Snapshot().Messages, 1)

	reply, sendErr := turn.Send(context.Background())
	_, err = ctrl.Complete(turn, reply, sendErr)
	require.NoError(t, err)
	assert.False(t, ctrl.Busy())
	assert.Equal(t, []string{"primeira"}, sender.payloads)
}

func TestSubmit_ConcurrentOnlyOneInFlight(t *testing.T) {
	release := make(chan struct{})
	var calls sync.WaitGroup
	calls.Add(1)
	ctrl := New(SenderFunc(func(ctx context.Context, text string) (string, error) {
		calls.Done()
		<-release
		return "ok", nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Submit(context.Background(), "a")
		done <- err
	}()
	calls.Wait()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctrl.Submit(context.Background(), "b")
			assert.ErrorIs(t, err, ErrBusy)
		}()
	}
	wg.Wait()
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []model.Role{model.RoleUser, model.RoleAssistant}, roles(ctrl.Snapshot().Messages))
}

// =============================================================================
// RETRY
// =============================================================================

func TestRetry_NoUserMessageIsNoOp(t *testing.T) {
	sender := &scriptedSender{}
	ctrl := New(sender)

	_, err := ctrl.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRetry)
	assert.True(t, ctrl.Snapshot().IsEmpty())
	assert.Zero(t, sender.calls())
}

func TestRetry_AppendsNewUserMessage(t *testing.T) {
	sender := &scriptedSender{
		replies: []string{"", "Oi!"},
		errs:    []error{errBoom},
	}
	ctrl := New(sender)

	_, err := ctrl.Submit(context.Background(), "Olá")
	require.NoError(t, err)
	require.Equal(t, 1, ctrl.Snapshot().RetryCount)

	out, err := ctrl.Retry(context.Background())
	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.True(t, out.Turn.Retry)
	assert.Equal(t, 2, out.Turn.Attempt)

	snap := ctrl.Snapshot()
	assert.Equal(t, []model.Role{
		model.RoleUser, model.RoleError, model.RoleUser, model.RoleAssistant,
	}, roles(snap.Messages))
	assert.Equal(t, snap.Messages[0].Content, snap.Messages[2].Content)
	assert.NotEqual(t, snap.Messages[0].ID, snap.Messages[2].ID)
	assert.Equal(t, []string{"Olá", "Olá"}, sender.payloads)
	assert.Equal(t, 0, snap.RetryCount)
}

func TestRetry_UsesMostRecentUserMessage(t *testing.T) {
	sender := &scriptedSender{replies: []string{"a", "b", "c"}}
	ctrl := New(sender)

	_, _ = ctrl.Submit(context.Background(), "primeira")
	_, _ = ctrl.Submit(context.Background(), "segunda")
	_, err := ctrl.Retry(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "segunda", sender.payloads[2])
}

func TestRetry_SecondFailureMentionsTentativa2(t *testing.T) {
	ctrl := New(&scriptedSender{errs: []error{errBoom, errBoom}})

	_, _ = ctrl.Submit(context.Background(), "x")
	_, err := ctrl.Retry(context.Background())
	require.NoError(t, err)

	snap := ctrl.Snapshot()
	assert.Contains(t, snap.LastError, "Tentativa 2")
	assert.Equal(t, 2, snap.RetryCount)
}

// =============================================================================
// SPLIT FORM
// =============================================================================

func TestComplete_StaleTurnIgnored(t *testing.T) {
	ctrl := New(&scriptedSender{})

	turn, err := ctrl.Begin("x")
	require.NoError(t, err)
	_, err = ctrl.Complete(turn, webhook.Reply{Text: "ok"}, nil)
	require.NoError(t, err)

	before := ctrl.Snapshot()
	_, err = ctrl.Complete(turn, webhook.Reply{Text: "de novo"}, nil)
	assert.ErrorIs(t, err, ErrStaleTurn)
	_, err = ctrl.Complete(Turn{}, webhook.Reply{Text: "nada"}, nil)
	assert.ErrorIs(t, err, ErrStaleTurn)
	assert.Equal(t, before, ctrl.Snapshot())
}

func TestBegin_ClearsInputAndError(t *testing.T) {
	ctrl := New(&scriptedSender{errs: []error{errBoom}})
	_, _ = ctrl.Submit(context.Background(), "x")
	require.NotEmpty(t, ctrl.Snapshot().LastError)

	ctrl.SetInput("rascunho")
	assert.Equal(t, "rascunho", ctrl.Input())

	_, err := ctrl.Begin("rascunho")
	require.NoError(t, err)
	snap := ctrl.Snapshot()
	assert.Empty(t, snap.PendingInput)
	assert.Empty(t, snap.LastError)
	assert.True(t, snap.AwaitingReply)
	assert.Equal(t, 1, snap.RetryCount, "counter only moves on completion")
}

func TestOutcome_LatencyUsesClock(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	ctrl := New(&scriptedSender{replies: []string{"ok"}}, WithClock(clock))

	out, err := ctrl.Submit(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, time.Second, out.Latency)
	assert.True(t, out.Message.Timestamp.After(ctrl.Snapshot().StartedAt))
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctrl := New(&scriptedSender{replies: []string{"ok"}})
	_, _ = ctrl.Submit(context.Background(), "x")

	snap := ctrl.Snapshot()
	snap.Messages[0] = model.NewSystemMessage("alterado")

	assert.Equal(t, "x", ctrl.Snapshot().Messages[0].Content)
	assert.Equal(t, ctrl.ID(), snap.SessionID)
}

func TestLogging_TurnEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctrl := New(&scriptedSender{replies: []string{"ok"}, errs: []error{nil, errBoom}},
		WithLogger(zap.New(core)))

	_, _ = ctrl.Submit(context.Background(), "a")
	_, _ = ctrl.Submit(context.Background(), "b")

	assert.Equal(t, 2, logs.FilterMessage("turn_start").Len())
	assert.Equal(t, 1, logs.FilterMessage("turn_success").Len())
	failures := logs.FilterMessage("turn_failure").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "unknown", failures[0].ContextMap()["kind"])
	assert.Equal(t, ctrl.ID(), failures[0].ContextMap()["session_id"])
}
