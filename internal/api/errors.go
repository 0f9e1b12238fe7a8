// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/touchbase-fun/touchbase/internal/telemetry"
	"github.com/touchbase-fun/touchbase/internal/upstream"
)

// failureResponse is the uniform error shape every handler returns.
type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, failureResponse{Success: false, Error: msg})
}

func writeFieldFailure(w http.ResponseWriter, code int, msg string, details any) {
	writeJSON(w, code, failureResponse{Success: false, Error: msg, Details: details})
}

// writeUpstreamFailure maps a provider client error to the response the
// wizard expects. Provider rejections keep their original status code so the
// frontend can distinguish, say, a 402 quota error from a plain bad gateway;
// the provider body is passed through as detail for user-visible messaging.
func writeUpstreamFailure(ctx context.Context, w http.ResponseWriter, logger zerolog.Logger, err error) {
	ue, _ := upstream.AsError(err)
	span := trace.SpanFromContext(ctx)

	switch {
	case errors.Is(err, upstream.ErrUnavailable):
		span.SetAttributes(telemetry.ErrorAttributes("unavailable")...)
		logger.Error().Err(err).Msg("provider credentials missing")
		writeFailure(w, http.StatusInternalServerError, "service is not configured")
	case errors.Is(err, upstream.ErrTimeout):
		span.SetAttributes(telemetry.ErrorAttributes("timeout")...)
		logger.Warn().Err(err).Msg("provider request timed out")
		writeFailure(w, http.StatusGatewayTimeout, "the provider took too long to respond")
	case errors.Is(err, upstream.ErrRejected):
		span.SetAttributes(telemetry.ErrorAttributes("rejected")...)
		status := http.StatusBadGateway
		if ue != nil && ue.Status >= 400 && ue.Status < 600 {
			status = ue.Status
		}
		logger.Warn().Err(err).Int("upstream_status", status).Msg("provider rejected request")
		detail := ""
		if ue != nil {
			detail = ue.Body
		}
		if detail != "" {
			writeFieldFailure(w, status, "provider rejected the request", detail)
			return
		}
		writeFailure(w, status, "provider rejected the request")
	default:
		span.SetAttributes(telemetry.ErrorAttributes("transport")...)
		logger.Error().Err(err).Msg("provider request failed")
		writeFailure(w, http.StatusBadGateway, "could not reach the provider")
	}
}
