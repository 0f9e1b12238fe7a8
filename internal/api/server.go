// SPDX-License-Identifier: MIT

// Package api exposes the wizard's HTTP surface: voice cloning, call
// triggering, status queries and assistant voice binding.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/touchbase-fun/touchbase/internal/api/middleware"
	"github.com/touchbase-fun/touchbase/internal/config"
	"github.com/touchbase-fun/touchbase/internal/health"
	"github.com/touchbase-fun/touchbase/internal/log"
	"github.com/touchbase-fun/touchbase/internal/playht"
	"github.com/touchbase-fun/touchbase/internal/poller"
	"github.com/touchbase-fun/touchbase/internal/session"
	"github.com/touchbase-fun/touchbase/internal/vapi"
)

// sessionCookie carries the wizard session id across requests.
const sessionCookie = "voice_session"

// Options wires the server's collaborators.
type Options struct {
	Holder   *config.Holder
	Vapi     *vapi.Client
	PlayHT   *playht.Client
	Sessions *session.Store
	Watchers *poller.Manager
	Health   *health.Manager
	Tracer   trace.Tracer

	// BaseContext outlives individual requests; call watchers run on it so
	// polling survives the request that triggered the call.
	BaseContext context.Context
}

// Server handles the wizard API.
type Server struct {
	holder   *config.Holder
	vapi     *vapi.Client
	playht   *playht.Client
	sessions *session.Store
	watchers *poller.Manager
	health   *health.Manager
	tracer   trace.Tracer
	baseCtx  context.Context
	logger   zerolog.Logger
}

// New creates the API server.
func New(opts Options) *Server {
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Server{
		holder:   opts.Holder,
		vapi:     opts.Vapi,
		playht:   opts.PlayHT,
		sessions: opts.Sessions,
		watchers: opts.Watchers,
		health:   opts.Health,
		tracer:   opts.Tracer,
		baseCtx:  baseCtx,
		logger:   log.WithComponent("api"),
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	cfg := s.holder.Current()

	r := chi.NewRouter()
	middleware.ApplyStack(r, middleware.StackConfig{
		Logger:            s.logger,
		Tracer:            s.tracer,
		AllowedOrigins:    cfg.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimitRPM,
	})

	r.Post("/clone-voice", s.handleCloneVoice)
	r.Post("/trigger-call", s.handleTriggerCall)
	r.Get("/call-status", s.handleCallStatus)
	r.Post("/update-assistant-voice", s.handleUpdateAssistantVoice)
	r.Post("/update-vapi-voice", s.handleUpdateAssistantVoice)
	r.Post("/calendar-webhook", s.handleCalendarWebhook)

	if s.health != nil {
		r.Get("/healthz", s.health.HealthHandler())
		r.Get("/readyz", s.health.ReadinessHandler())
	}

	return r
}

// sessionFor resolves the wizard session for a request: an explicit form or
// query value wins, then the session cookie, otherwise a fresh session.
func (s *Server) sessionFor(r *http.Request, explicit string) *session.Session {
	if explicit != "" {
		return s.sessions.GetOrCreate(explicit)
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return s.sessions.GetOrCreate(c.Value)
	}
	return s.sessions.Create()
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   3600,
	})
}
