// SPDX-License-Identifier: MIT

// Package playht is the client for the voice-cloning provider.
package playht

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/touchbase-fun/touchbase/internal/upstream"
)

const providerName = "playht"

// MaxAudioBytes is the default ceiling for one voice sample.
const MaxAudioBytes = 5 << 20

const maxErrorBody = 4 << 10

var (
	// ErrEmptyAudio rejects a zero-byte sample before any upstream contact.
	ErrEmptyAudio = errors.New("playht: audio sample is empty")
	// ErrPayloadTooLarge rejects an oversized sample before any upstream contact.
	ErrPayloadTooLarge = errors.New("playht: audio sample exceeds size limit")
	// ErrUnsupportedFormat rejects a sample whose content type is not allow-listed.
	ErrUnsupportedFormat = errors.New("playht: unsupported audio format")
)

// supportedFormats is the fixed allow-list of accepted audio encodings.
var supportedFormats = map[string]struct{}{
	"audio/webm":  {},
	"audio/mp3":   {},
	"audio/wav":   {},
	"audio/mpeg":  {},
	"audio/x-wav": {},
	"audio/wave":  {},
	"audio/ogg":   {},
	"audio/x-m4a": {},
	"audio/mp4":   {},
}

// SupportedFormat reports whether contentType is in the allow-list.
// Parameters such as codecs are ignored.
func SupportedFormat(contentType string) bool {
	mediaType := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	_, ok := supportedFormats[mediaType]
	return ok
}

// Client talks to the cloning provider. Safe for concurrent use.
type Client struct {
	base     string
	apiKey   string
	userID   string
	maxBytes int64
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (for tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMaxAudioBytes overrides the sample size ceiling.
func WithMaxAudioBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

// New creates a cloning-provider client. Missing credentials yield a client
// whose submissions fail with upstream.ErrUnavailable.
func New(base, apiKey, userID string, opts ...Option) *Client {
	c := &Client{
		base:     strings.TrimRight(base, "/"),
		apiKey:   apiKey,
		userID:   userID,
		maxBytes: MaxAudioBytes,
		http: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether credentials are set.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.userID != ""
}

// CloneVoice submits an audio sample and returns the provider-issued voice
// id. Size and format violations are rejected locally, before any upstream
// request. Each successful submission creates a new distinct voice; there is
// no dedup.
func (c *Client) CloneVoice(ctx context.Context, name string, audio io.Reader, contentType string) (string, error) {
	if !SupportedFormat(contentType) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}

	sample, err := io.ReadAll(io.LimitReader(audio, c.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read audio sample: %w", err)
	}
	if len(sample) == 0 {
		return "", ErrEmptyAudio
	}
	if int64(len(sample)) > c.maxBytes {
		return "", fmt.Errorf("%w: maximum is %d bytes", ErrPayloadTooLarge, c.maxBytes)
	}

	if !c.Configured() {
		return "", &upstream.Error{Sentinel: upstream.ErrUnavailable, Provider: providerName, Operation: "clone_voice"}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("sample_file", sampleFilename(contentType))
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(sample); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.WriteField("voice_name", name); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v2/cloned-voices/instant", &body)
	if err != nil {
		return "", &upstream.Error{Sentinel: upstream.ErrTransport, Provider: providerName, Operation: "clone_voice", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-USER-ID", c.userID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		observeClone(0, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &upstream.Error{Sentinel: upstream.ErrTimeout, Provider: providerName, Operation: "clone_voice", Err: err}
		}
		return "", &upstream.Error{Sentinel: upstream.ErrTransport, Provider: providerName, Operation: "clone_voice", Err: err}
	}
	defer func() { _ = res.Body.Close() }()
	observeClone(res.StatusCode, time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return "", &upstream.Error{
			Sentinel:  upstream.ErrRejected,
			Provider:  providerName,
			Operation: "clone_voice",
			Status:    res.StatusCode,
			Body:      strings.TrimSpace(string(detail)),
		}
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", &upstream.Error{Sentinel: upstream.ErrBadResponse, Provider: providerName, Operation: "clone_voice", Err: err}
	}
	if payload.ID == "" {
		return "", &upstream.Error{
			Sentinel:  upstream.ErrBadResponse,
			Provider:  providerName,
			Operation: "clone_voice",
			Err:       errors.New("no voice id in response"),
		}
	}
	return payload.ID, nil
}

func sampleFilename(contentType string) string {
	if strings.HasPrefix(strings.ToLower(contentType), "audio/webm") {
		return "recording.webm"
	}
	return "recording.mp3"
}
