// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uandersonal11/viralfy-v3/internal/model"
	"github.com/uandersonal11/viralfy-v3/internal/webhook"
)

// Rejections. None of them changes state.
var (
	ErrEmptyInput     = errors.New("session: empty input")
	ErrBusy           = errors.New("session: awaiting reply")
	ErrNothingToRetry = errors.New("session: no user message to retry")
	ErrStaleTurn      = errors.New("session: turn is not in flight")
)

// Sender delivers one user message and returns the reply text.
// *webhook.Client implements it.
type Sender interface {
	Send(ctx context.Context, text string) (string, error)
}

// ReplySender is a Sender that also reports where the reply text came from.
// Turns prefer it so raw fallbacks reach the transcript flagged.
type ReplySender interface {
	SendReply(ctx context.Context, text string) (webhook.Reply, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, text string) (string, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// =============================================================================
// TURNS
// =============================================================================

// Turn is one outbound request, from Begin to Complete.
type Turn struct {
	ID string
	// Payload is the raw user text sent to the endpoint.
	Payload string
	// Attempt is the failure counter at Begin plus one.
	Attempt int
	// Retry is set when the turn was started by Retry.
	Retry bool

	started time.Time
	sender  Sender
}

// Send performs the request for this turn. It is safe to call off the
// renderer's event loop; it never touches session state.
func (t Turn) Send(ctx context.Context) (webhook.Reply, error) {
	if rs, ok := t.sender.(ReplySender); ok {
		return rs.SendReply(ctx, t.Payload)
	}
	text, err := t.sender.Send(ctx, t.Payload)
	return webhook.Reply{Text: text}, err
}

// Outcome is the result of a completed turn.
type Outcome struct {
	Turn Turn
	// Message is what the turn appended: the assistant reply or the error.
	Message model.Message
	Err     error
	Latency time.Duration
}

// OK reports whether the turn produced an assistant reply.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns one conversation.
type Controller struct {
	mu sync.Mutex

	sender Sender
	logger *zap.Logger
	now    func() time.Time

	id        string
	startedAt time.Time

	transcript    model.Transcript
	pendingInput  string
	awaitingReply bool
	lastError     string
	retryCount    int

	inflight string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now, for message timestamps and latency.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an idle controller with an empty transcript.
func New(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		sender: sender,
		logger: zap.NewNop(),
		now:    time.Now,
		id:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startedAt = c.now()
	c.logger = c.logger.Named("session").With(zap.String("session_id", c.id))
	return c
}

// ID returns the session id.
func (c *Controller) ID() string {
	return c.id
}

// SetInput replaces the pending input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.pendingInput = text
	c.mu.Unlock()
}

// Input returns the pending input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingInput
}

// Busy reports whether a reply is awaited.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaitingReply
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionID:     c.id,
		StartedAt:     c.startedAt,
		Messages:      c.transcript.Messages(),
		PendingInput:  c.pendingInput,
		AwaitingReply: c.awaitingReply,
		LastError:     c.lastError,
		RetryCount:    c.retryCount,
	}
}

// =============================================================================
// INTENTS
// =============================================================================

// Submit runs a whole turn for text and blocks until it completes.
// Blank text and submissions while a reply is awaited are rejected
// without any state change.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	turn, err := c.Begin(text)
	if err != nil {
		return Outcome{}, err
	}
	return c.run(ctx, turn)
}

// Retry re-submits the content of the most recent user message as a new
// turn. The transcript gains a new user message; nothing is replaced.
func (c *Controller) Retry(ctx context.Context) (Outcome, error) {
	turn, err := c.BeginRetry()
	if err != nil {
		return Outcome{}, err
	}
	return c.run(ctx, turn)
}

func (c *Controller) run(ctx context.Context, turn Turn) (Outcome, error) {
	reply, err := turn.Send(ctx)
	return c.Complete(turn, reply, err)
}

// Begin performs the synchronous part of a submission: it appends the user
// message with the raw text, clears the input buffer and the error banner,
// and marks the session as awaiting a reply. The caller must pass the
// returned Turn's result to Complete.
func (c *Controller) Begin(text string) (Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyInput
	}
	if c.awaitingReply {
		return Turn{}, ErrBusy
	}
	return c.beginLocked(text, false), nil
}

// BeginRetry is Begin for the content of the most recent user message.
func (c *Controller) BeginRetry() (Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.awaitingReply {
		return Turn{}, ErrBusy
	}
	last, ok := c.transcript.LastOfRole(model.RoleUser)
	if !ok {
		return Turn{}, ErrNothingToRetry
	}
	return c.beginLocked(last.Content, true), nil
}

func (c *Controller) beginLocked(text string, retry bool) Turn {
	now := c.now()
	c.transcript.Append(model.NewMessageAt(model.RoleUser, text, now))
	c.pendingInput = ""
	c.awaitingReply = true
	c.lastError = ""

	turn := Turn{
		ID:      uuid.NewString(),
		Payload: text,
		Attempt: c.retryCount + 1,
		Retry:   retry,
		started: now,
		sender:  c.sender,
	}
	c.inflight = turn.ID

	c.logger.Debug("turn_start",
		zap.String("turn_id", turn.ID),
		zap.Int("attempt", turn.Attempt),
		zap.Bool("retry", retry),
		zap.Int("chars", len([]rune(text))))
	return turn
}

// Complete records the result of turn. An empty reply without an error is
// treated as an empty reply from the server; whitespace is content. Completing a turn that is not
// the one in flight returns ErrStaleTurn and changes nothing.
func (c *Controller) Complete(turn Turn, reply webhook.Reply, sendErr error) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.awaitingReply || turn.ID == "" || turn.ID != c.inflight {
		return Outcome{}, ErrStaleTurn
	}

	if sendErr == nil && reply.Text == "" {
		sendErr = webhook.ErrEmptyReply
	}

	now := c.now()
	out := Outcome{Turn: turn, Err: sendErr, Latency: now.Sub(turn.started)}

	if sendErr == nil {
		out.Message = model.NewMessageAt(model.RoleAssistant, reply.Text, now)
		out.Message.Raw = reply.IsRaw()
		c.transcript.Append(out.Message)
		c.retryCount = 0
		c.lastError = ""
		c.logger.Info("turn_success",
			zap.String("turn_id", turn.ID),
			zap.Int("attempt", turn.Attempt),
			zap.Bool("raw", out.Message.Raw),
			zap.Duration("latency", out.Latency))
	} else {
		out.Message = model.NewMessageAt(model.RoleError, ErrorMessageText(sendErr.Error()), now)
		c.lastError = BannerText(c.retryCount + 1)
		c.transcript.Append(out.Message)
		c.retryCount++
		c.logger.Warn("turn_failure",
			zap.String("turn_id", turn.ID),
			zap.Int("attempt", turn.Attempt),
			zap.String("kind", webhook.KindOf(sendErr).String()),
			zap.Int("status", webhook.StatusOf(sendErr)),
			zap.Duration("latency", out.Latency),
			zap.Error(sendErr))
	}

	c.awaitingReply = false
	c.inflight = ""
	return out, nil
}
