// SPDX-License-Identifier: MIT

// Package middleware provides the HTTP middleware stack for the API.
package middleware

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/touchbase-fun/touchbase/internal/log"
)

// StackConfig holds configuration for the middleware stack.
type StackConfig struct {
	Logger            zerolog.Logger
	Tracer            trace.Tracer
	AllowedOrigins    []string
	RequestsPerMinute int
}

// ApplyStack wires the full middleware chain onto a router. Order
// matters: recovery must wrap everything, request ids must exist before
// logging, and metrics must observe the final status code.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer(cfg.Logger))
	r.Use(RequestID())
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(SecurityHeaders())
	r.Use(Metrics())
	if cfg.Tracer != nil {
		r.Use(Tracing(cfg.Tracer))
	}
	r.Use(log.Middleware())
	r.Use(RateLimit(cfg.RequestsPerMinute))
}
