// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	DefaultURL       = "https://api.hostbrev.online/webhook/agent_tiktok"
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "velaris"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// Config holds the endpoint settings for a Client.
type Config struct {
	// URL of the webhook (default: DefaultURL)
	URL string

	// Timeout for a whole request, body included (default: 60s)
	Timeout time.Duration

	// Headers are added to every request. Content-Type is always JSON.
	Headers map[string]string

	// UserAgent sent with every request (default: "velaris")
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		URL:       DefaultURL,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	c.Headers = headers
	return c
}

// =============================================================================
// CLIENT
// =============================================================================

// request is the JSON body posted for every turn.
type request struct {
	Message string `json:"message"`
}

// Client posts user messages to the webhook. It is safe for concurrent use;
// SetConfig may be called while a request is in flight, which keeps the
// settings it started with.
type Client struct {
	mu         sync.RWMutex
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.Named("webhook")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Per-request deadlines
// still come from Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client, filling zero values in cfg with defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		config:     cfg.withDefaults(),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns a copy of the current settings.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.withDefaults()
}

// SetConfig swaps the endpoint settings used by later requests.
func (c *Client) SetConfig(cfg Config) {
	cfg = cfg.withDefaults()
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
	c.logger.Info("endpoint config updated",
		zap.String("url", cfg.URL),
		zap.Duration("timeout", cfg.Timeout))
}

// =============================================================================
// SEND
// =============================================================================

// Send posts text and returns the extracted reply text.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	reply, err := c.SendReply(ctx, text)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// SendReply is Send but also reports which extractor produced the text.
func (c *Client) SendReply(ctx context.Context, text string) (Reply, error) {
	cfg := c.Config()
	if cfg.URL == "" {
		return Reply{}, ErrNoEndpoint
	}

	body, err := json.Marshal(request{Message: text})
	if err != nil {
		return Reply{}, &ClientError{Kind: KindTransport, Message: "falha ao montar requisição", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Reply{}, transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return Reply{}, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Reply{}, protocolError(resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Reply{}, transportError(fmt.Errorf("read body: %w", err))
	}
	if len(data) > maxBodyBytes {
		return Reply{}, tooLarge(maxBodyBytes)
	}

	reply, err := ExtractReply(data)
	if err != nil {
		return Reply{}, err
	}
	if reply.IsRaw() {
		c.logger.Warn("reply had no saída/output field, using raw body",
			zap.Int("bytes", len(data)))
	}
	c.logger.Debug("reply received",
		zap.String("source", string(reply.Source)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return reply, nil
}
