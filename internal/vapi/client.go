// SPDX-License-Identifier: MIT

// Package vapi is the client for the outbound-calling provider.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/touchbase-fun/touchbase/internal/upstream"
)

const providerName = "vapi"

// maxErrorBody bounds how much of a provider error body is kept for diagnostics.
const maxErrorBody = 4 << 10

// Client talks to the calling provider. Safe for concurrent use.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (for tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps outbound requests per second to protect provider quota.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New creates a calling-provider client. An empty apiKey yields a client
// whose every call fails with upstream.ErrUnavailable, so handlers can
// surface the missing credential uniformly.
func New(base, apiKey string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		apiKey: apiKey,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CreateCall places an outbound call. No retries: failures surface directly
// so the user can retry manually. The caller bounds the deadline via ctx.
func (c *Client) CreateCall(ctx context.Context, req CallRequest) (*Call, error) {
	var call Call
	if err := c.do(ctx, http.MethodPost, "/call", "create_call", req, &call); err != nil {
		return nil, err
	}
	if call.ID == "" {
		return nil, &upstream.Error{
			Sentinel:  upstream.ErrBadResponse,
			Provider:  providerName,
			Operation: "create_call",
			Err:       errors.New("no call id in response"),
		}
	}
	return &call, nil
}

// Call fetches the current state of a call by id. Read-only.
func (c *Client) Call(ctx context.Context, id string) (*Call, error) {
	var call Call
	if err := c.do(ctx, http.MethodGet, "/call/"+id, "get_call", nil, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// UpdateAssistantVoice binds a cloned voice to the assistant. The provider
// may reject a freshly cloned voice until it has propagated; callers retry
// on user action, never automatically.
func (c *Client) UpdateAssistantVoice(ctx context.Context, assistantID, voiceID string) error {
	payload := VoiceUpdate{Voice: Voice{Provider: "playht", VoiceID: voiceID}}
	return c.do(ctx, http.MethodPatch, "/assistant/"+assistantID, "update_assistant_voice", payload, nil)
}

func (c *Client) do(ctx context.Context, method, path, operation string, payload, out any) error {
	if !c.Configured() {
		return &upstream.Error{Sentinel: upstream.ErrUnavailable, Provider: providerName, Operation: operation}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &upstream.Error{Sentinel: upstream.ErrTransport, Provider: providerName, Operation: operation, Err: err}
		}
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", operation, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &upstream.Error{Sentinel: upstream.ErrTransport, Provider: providerName, Operation: operation, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		observeRequest(operation, 0, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return &upstream.Error{Sentinel: upstream.ErrTimeout, Provider: providerName, Operation: operation, Err: err}
		}
		return &upstream.Error{Sentinel: upstream.ErrTransport, Provider: providerName, Operation: operation, Err: err}
	}
	defer func() { _ = res.Body.Close() }()
	observeRequest(operation, res.StatusCode, time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &upstream.Error{
			Sentinel:  upstream.ErrRejected,
			Provider:  providerName,
			Operation: operation,
			Status:    res.StatusCode,
			Body:      strings.TrimSpace(string(detail)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &upstream.Error{Sentinel: upstream.ErrBadResponse, Provider: providerName, Operation: operation, Err: err}
	}
	return nil
}
