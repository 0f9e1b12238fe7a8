// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/touchbase-fun/touchbase/internal/log"
	"github.com/touchbase-fun/touchbase/internal/playht"
	"github.com/touchbase-fun/touchbase/internal/poller"
	"github.com/touchbase-fun/touchbase/internal/telemetry"
	"github.com/touchbase-fun/touchbase/internal/vapi"
	"github.com/touchbase-fun/touchbase/internal/wizard"
)

// triggerCallResponse acknowledges a placed call.
type triggerCallResponse struct {
	Success bool   `json:"success"`
	CallID  string `json:"callId"`
	Message string `json:"message"`
}

// callStatusResponse reports the current state of a call.
type callStatusResponse struct {
	Success      bool          `json:"success"`
	Status       wizard.Status `json:"status"`
	Summary      string        `json:"summary,omitempty"`
	RecordingURL string        `json:"recordingUrl,omitempty"`
	CallData     *vapi.Call    `json:"callData"`
}

// cloneVoiceResponse acknowledges a cloned voice. CooldownSeconds tells the
// frontend how long to hold off before offering another clone.
type cloneVoiceResponse struct {
	Success         bool   `json:"success"`
	VoiceID         string `json:"voiceId"`
	SessionID       string `json:"sessionId"`
	CooldownSeconds int    `json:"cooldownSeconds"`
	Message         string `json:"message"`
}

// ackResponse is a bare success acknowledgement.
type ackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleTriggerCall validates the friend form, places the outbound call and
// starts a watcher that follows it to a terminal state.
func (s *Server) handleTriggerCall(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	var req wizard.FriendCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := req.Validate(); !res.Valid() {
		writeFieldFailure(w, http.StatusBadRequest, "validation failed", res.Errors)
		return
	}

	cfg := s.holder.Current()
	if !cfg.HasVapiCredentials() || cfg.AssistantID == "" || cfg.PhoneNumberID == "" {
		logger.Error().Msg("call trigger without calling-provider credentials")
		writeFailure(w, http.StatusInternalServerError, "calling service is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cfg.CallTimeout)
	defer cancel()

	call, err := s.vapi.CreateCall(ctx, vapi.CallRequest{
		AssistantID:   cfg.AssistantID,
		PhoneNumberID: cfg.PhoneNumberID,
		Customer: vapi.Customer{
			Number: req.PhoneNumber,
			Name:   req.FriendName,
		},
		AssistantOverrides: vapi.AssistantOverrides{
			VariableValues: map[string]string{
				"userName":     req.CallerName,
				"friendName":   req.FriendName,
				"introduction": req.Introduction,
				"lastMemory":   req.LastMemory,
			},
		},
	})
	if err != nil {
		writeUpstreamFailure(r.Context(), w, logger, err)
		return
	}

	sess := s.sessionFor(r, r.URL.Query().Get("sessionId"))
	setSessionCookie(w, sess.ID)

	rec := wizard.Record{CallID: call.ID, Status: wizard.MapProviderStatus(call.Status)}
	s.sessions.SetCall(sess.ID, rec)
	trace.SpanFromContext(r.Context()).SetAttributes(
		telemetry.CallAttributes(call.ID, string(rec.Status))...)

	logger.Info().
		Str(log.FieldCallID, call.ID).
		Str(log.FieldSessionID, sess.ID).
		Str(log.FieldNewStatus, string(rec.Status)).
		Msg("call triggered")

	s.watchCall(sess.ID, req.FriendName)

	writeJSON(w, http.StatusOK, triggerCallResponse{
		Success: true,
		CallID:  call.ID,
		Message: fmt.Sprintf("Calling %s now", req.FriendName),
	})
}

// watchCall starts polling the session's call and records outcomes back
// onto the session, deriving the calendar link once on completion.
func (s *Server) watchCall(sessionID, friendName string) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.Call.CallID == "" {
		return
	}
	callID := sess.Call.CallID

	s.watchers.Watch(s.baseCtx, sessionID, callID, poller.Hooks{
		OnUpdate: func(rec wizard.Record) {
			s.sessions.SetCall(sessionID, rec)
		},
		OnTerminal: func(rec wizard.Record) {
			s.sessions.SetCall(sessionID, rec)
			logger := s.logger.With().
				Str(log.FieldSessionID, sessionID).
				Str(log.FieldCallID, rec.CallID).
				Logger()

			if rec.Status != wizard.StatusCompleted {
				logger.Info().
					Str(log.FieldNewStatus, string(rec.Status)).
					Msg("call ended without completion")
				return
			}

			start, err := wizard.DeriveSchedule(rec.Summary)
			switch {
			case errors.Is(err, wizard.ErrNoCallScheduled):
				logger.Info().Msg("call completed, no follow-up scheduled")
			case err != nil:
				logger.Info().Msg("call completed, summary carries no schedule")
			default:
				link := wizard.EventLink(friendName, rec.Summary, start)
				s.sessions.SetCalendarLink(sessionID, link)
				logger.Info().
					Time("event_start", start).
					Msg("calendar link derived from call summary")
			}
		},
	})
}

// handleCallStatus proxies the provider's view of one call, with the
// status mapped into wizard vocabulary.
func (s *Server) handleCallStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	callID := r.URL.Query().Get("callId")
	if callID == "" {
		writeFailure(w, http.StatusBadRequest, "callId is required")
		return
	}

	cfg := s.holder.Current()
	if !cfg.HasVapiCredentials() {
		writeFailure(w, http.StatusInternalServerError, "calling service is not configured")
		return
	}

	call, err := s.vapi.Call(r.Context(), callID)
	if err != nil {
		writeUpstreamFailure(r.Context(), w, logger, err)
		return
	}

	status := wizard.MapProviderStatus(call.Status)
	trace.SpanFromContext(r.Context()).SetAttributes(
		telemetry.CallAttributes(call.ID, string(status))...)

	writeJSON(w, http.StatusOK, callStatusResponse{
		Success:      true,
		Status:       status,
		Summary:      call.EffectiveSummary(),
		RecordingURL: call.RecordingURL,
		CallData:     call,
	})
}

// handleCloneVoice accepts an audio sample and clones a voice from it.
// Size and format rejections happen locally, before any provider contact.
func (s *Server) handleCloneVoice(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	cfg := s.holder.Current()

	// Bound the whole multipart body: sample ceiling plus form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxAudioBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeFailure(w, http.StatusBadRequest, "audio sample exceeds the size limit or the form is malformed")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "an audio file is required")
		return
	}
	defer func() { _ = file.Close() }()

	sess := s.sessionFor(r, r.FormValue("sessionId"))
	ctx := log.ContextWithSessionID(r.Context(), sess.ID)
	logger = log.WithComponentFromContext(ctx, "api")

	voiceName := r.FormValue("name")
	if voiceName == "" {
		voiceName = "touchbase-" + shortID(sess.ID)
	}

	voiceID, err := s.playht.CloneVoice(ctx, voiceName, file, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, playht.ErrEmptyAudio):
			writeFailure(w, http.StatusBadRequest, "the audio sample is empty")
		case errors.Is(err, playht.ErrPayloadTooLarge):
			writeFailure(w, http.StatusBadRequest, "the audio sample exceeds the 5 MB limit")
		case errors.Is(err, playht.ErrUnsupportedFormat):
			writeFailure(w, http.StatusBadRequest, "unsupported audio format")
		default:
			writeUpstreamFailure(ctx, w, logger, err)
		}
		return
	}

	s.sessions.SetVoice(sess.ID, voiceID)
	setSessionCookie(w, sess.ID)

	logger.Info().
		Str(log.FieldVoiceID, voiceID).
		Msg("voice cloned")

	// Best effort: bind the fresh voice to the assistant. The provider may
	// reject it until the clone has propagated; the user retries via the
	// explicit bind endpoint.
	if cfg.AssistantID != "" && s.vapi.Configured() {
		if err := s.vapi.UpdateAssistantVoice(ctx, cfg.AssistantID, voiceID); err != nil {
			logger.Warn().Err(err).
				Str(log.FieldVoiceID, voiceID).
				Msg("assistant voice update failed, user can retry")
		}
	}

	writeJSON(w, http.StatusOK, cloneVoiceResponse{
		Success:         true,
		VoiceID:         voiceID,
		SessionID:       sess.ID,
		CooldownSeconds: int(cfg.VoiceCooldown.Seconds()),
		Message:         "Voice cloned successfully",
	})
}

// updateVoiceRequest binds a cloned voice to an assistant. An empty
// assistantId falls back to the configured default.
type updateVoiceRequest struct {
	AssistantID string `json:"assistantId"`
	VoiceID     string `json:"voiceId"`
}

// handleUpdateAssistantVoice is a pure proxy to the provider's
// assistant-update operation. No automatic retry: rejections surface with
// provider detail so the user can retry after the propagation cooldown.
func (s *Server) handleUpdateAssistantVoice(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	var req updateVoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AssistantID == "" {
		req.AssistantID = s.holder.Current().AssistantID
	}
	if req.AssistantID == "" || req.VoiceID == "" {
		writeFailure(w, http.StatusBadRequest, "assistantId and voiceId are required")
		return
	}

	if err := s.vapi.UpdateAssistantVoice(r.Context(), req.AssistantID, req.VoiceID); err != nil {
		writeUpstreamFailure(r.Context(), w, logger, err)
		return
	}

	logger.Info().Str(log.FieldVoiceID, req.VoiceID).Msg("assistant voice updated")
	writeJSON(w, http.StatusOK, ackResponse{Success: true, Message: "Assistant voice updated"})
}

// handleCalendarWebhook acknowledges provider calendar callbacks. Event
// creation happens via the derived link, so there is nothing to process yet.
func (s *Server) handleCalendarWebhook(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
