// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchbase-fun/touchbase/internal/config"
	"github.com/touchbase-fun/touchbase/internal/playht"
	"github.com/touchbase-fun/touchbase/internal/poller"
	"github.com/touchbase-fun/touchbase/internal/session"
	"github.com/touchbase-fun/touchbase/internal/vapi"
)

type testEnv struct {
	server   *Server
	router   http.Handler
	sessions *session.Store
	watchers *poller.Manager
}

func newTestEnv(t *testing.T, vapiBase, playhtBase string, withCreds bool, mutate ...func(*config.AppConfig)) *testEnv {
	t.Helper()

	cfg := config.AppConfig{
		ListenAddr:    ":0",
		VapiBaseURL:   vapiBase,
		PlayHTBaseURL: playhtBase,
		AssistantID:   "asst-1",
		PhoneNumberID: "phone-1",
		PollInterval:  10 * time.Millisecond,
		CallTimeout:   2 * time.Second,
		MaxAudioBytes: playht.MaxAudioBytes,
		SessionTTL:    time.Hour,
		VoiceCooldown: config.DefaultVoiceCooldown,
		RateLimitRPM:  0,
	}
	if withCreds {
		cfg.VapiAPIKey = "vapi-key"
		cfg.PlayHTAPIKey = "ph-key"
		cfg.PlayHTUserID = "ph-user"
	}
	for _, m := range mutate {
		m(&cfg)
	}

	holder := config.NewHolder(cfg, nil, "")
	vapiClient := vapi.New(cfg.VapiBaseURL, cfg.VapiAPIKey)
	playhtClient := playht.New(cfg.PlayHTBaseURL, cfg.PlayHTAPIKey, cfg.PlayHTUserID)
	sessions := session.NewStore(cfg.SessionTTL)
	watchers := poller.NewManager(vapiClient, cfg.PollInterval, time.Second)
	t.Cleanup(watchers.Close)

	srv := New(Options{
		Holder:   holder,
		Vapi:     vapiClient,
		PlayHT:   playhtClient,
		Sessions: sessions,
		Watchers: watchers,
	})
	return &testEnv{server: srv, router: srv.Router(), sessions: sessions, watchers: watchers}
}

func (e *testEnv) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}

func validForm() map[string]string {
	return map[string]string{
		"userName":     "Alex",
		"friendName":   "Sam",
		"phone":        "5551234567",
		"introduction": "old friends from school",
		"lastMemory":   "that road trip",
	}
}

func TestTriggerCallValidationFailure(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid", "http://unused.invalid", true)

	form := validForm()
	form["userName"] = "A"
	form["phone"] = "123"

	rec := env.do(http.MethodPost, "/trigger-call", jsonBody(t, form), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.Len(t, resp.Details, 2)
}

func TestTriggerCallMissingCredentials(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid", "http://unused.invalid", false)

	rec := env.do(http.MethodPost, "/trigger-call", jsonBody(t, validForm()), "application/json")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestTriggerCallTimeout(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer upstreamSrv.Close()

	env := newTestEnv(t, upstreamSrv.URL, "http://unused.invalid", true, func(cfg *config.AppConfig) {
		cfg.CallTimeout = 100 * time.Millisecond
	})
	rec := env.do(http.MethodPost, "/trigger-call", jsonBody(t, validForm()), "application/json")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	var resp failureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestTriggerCallUpstreamStatusPassthrough(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"message":"quota exceeded"}`))
	}))
	defer upstreamSrv.Close()

	env := newTestEnv(t, upstreamSrv.URL, "http://unused.invalid", true)
	rec := env.do(http.MethodPost, "/trigger-call", jsonBody(t, validForm()), "application/json")

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "quota exceeded")
}

func TestTriggerCallStartsWatcherAndDerivesCalendarLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /call", func(w http.ResponseWriter, r *http.Request) {
		var payload vapi.CallRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "asst-1", payload.AssistantID)
		assert.Equal(t, "+15551234567", payload.Customer.Number)
		assert.Equal(t, "Sam", payload.AssistantOverrides.VariableValues["friendName"])
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "call-1", "status": "scheduled"})
	})
	mux.HandleFunc("GET /call/call-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":      "call-1",
			"status":  "completed",
			"summary": "Sam is free on 15-06-2025 14:30 for a chat.",
		})
	})
	upstreamSrv := httptest.NewServer(mux)
	defer upstreamSrv.Close()

	env := newTestEnv(t, upstreamSrv.URL, "http://unused.invalid", true)
	rec := env.do(http.MethodPost, "/trigger-call", jsonBody(t, validForm()), "application/json")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp triggerCallResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "call-1", resp.CallID)

	cookie := rec.Result().Cookies()
	require.NotEmpty(t, cookie)
	sessionID := cookie[0].Value

	watcher, ok := env.watchers.Lookup(sessionID)
	require.True(t, ok)
	select {
	case <-watcher.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not reach a terminal state")
	}

	sess, ok := env.sessions.Get(sessionID)
	require.True(t, ok)
	assert.Equal(t, "call-1", sess.Call.CallID)
	assert.Contains(t, sess.CalendarLink, "calendar.google.com")
	assert.Contains(t, sess.CalendarLink, "20250615T143000Z")
}

func TestCallStatusRequiresCallID(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid", "http://unused.invalid", true)
	rec := env.do(http.MethodGet, "/call-status", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "callId")
}

func TestCallStatusMissingCredentials(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid", "http://unused.invalid", false)
	rec := env.do(http.MethodGet, "/call-status?callId=call-7", nil, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestCallStatusMapsProviderVocabulary(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "call-7", "status": "ringing"})
	}))
	defer upstreamSrv.Close()

	env := newTestEnv(t, upstreamSrv.URL, "http://unused.invalid", true)
	rec := env.do(http.MethodGet, "/call-status?callId=call-7", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp callStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "calling", string(resp.Status))
	assert.Equal(t, "call-7", resp.CallData.ID)
}

func audioForm(t *testing.T, field, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCloneVoiceRejectsUnsupportedFormat(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be contacted for a rejected format")
	}))
	defer upstreamSrv.Close()

	env := newTestEnv(t, "http://unused.invalid", upstreamSrv.URL, true)
	body, contentType := audioForm(t, "audio", "note.txt", "text/plain", []byte("hello"))
	rec := env.do(http.MethodPost, "/clone-voice", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported audio format")
}

func TestCloneVoiceRequiresAudioField(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid", "http://unused.invalid", true)
	body, contentType := audioForm(t, "other", "sample.webm", "audio/webm", []byte("data"))
	rec := env.do(http.MethodPost, "/clone-voice", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "audio file is required")
}

func TestCloneVoiceSuccess(t *testing.T) {
	playhtSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/cloned-voices/instant", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "voice-9"})
	}))
	defer playhtSrv.Close()

	// Best-effort voice binding lands here after the clone.
	var patched bool
	vapiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/assistant/") {
			patched = true
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer vapiSrv.Close()

	env := newTestEnv(t, vapiSrv.URL, playhtSrv.URL, true)
	body, contentType := audioForm(t, "audio", "sample.webm", "audio/webm", []byte("webm-bytes"))
	rec := env.do(http.MethodPost, "/clone-voice", body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp cloneVoiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "voice-9", resp.VoiceID)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, int(config.DefaultVoiceCooldown.Seconds()), resp.CooldownSeconds)
	assert.True(t, patched)

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			found = true
			assert.True(t, c.HttpOnly)
			assert.Equal(t, resp.SessionID, c.Value)
		}
	}
	assert.True(t, found, "session cookie must be set")

	sess, ok := env.sessions.Get(resp.SessionID)
	require.True(t, ok)
	assert.Equal(t, "voice-9", sess.VoiceID)
}

func TestUpdateAssistantVoiceRequiresVoiceID(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid", "http://unused.invalid", true)
	rec := env.do(http.MethodPost, "/update-assistant-voice",
		jsonBody(t, map[string]string{"assistantId": "asst-1"}), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAssistantVoiceAlias(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/assistant/asst-1", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstreamSrv.Close()

	env := newTestEnv(t, upstreamSrv.URL, "http://unused.invalid", true)
	rec := env.do(http.MethodPost, "/update-vapi-voice",
		jsonBody(t, map[string]string{"voiceId": "voice-3"}), "application/json")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Assistant voice updated")
}

func TestCalendarWebhook(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid", "http://unused.invalid", true)
	rec := env.do(http.MethodPost, "/calendar-webhook", nil, "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
