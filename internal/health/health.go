// SPDX-License-Identifier: MIT

// Package health provides health and readiness checks for deployments.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Status represents the overall health/readiness status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the full health check response.
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs registered checkers for the health and readiness probes.
type Manager struct {
	version  string
	checkers []Checker
}

// NewManager creates a new health check manager.
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// RegisterChecker adds a health checker to the manager.
func (m *Manager) RegisterChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

// Health performs a liveness check: the process is alive, so it reports
// healthy regardless of degraded providers.
func (m *Manager) Health(ctx context.Context) HealthResponse {
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(m.checkers)),
	}
	for _, c := range m.checkers {
		resp.Checks[c.Name()] = c.Check(ctx)
	}
	return resp
}

// Readiness performs a readiness check: any unhealthy component makes the
// service not ready.
func (m *Manager) Readiness(ctx context.Context) ReadinessResponse {
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(m.checkers)),
	}
	for _, c := range m.checkers {
		result := c.Check(ctx)
		resp.Checks[c.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			resp.Ready = false
			resp.Status = StatusUnhealthy
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}
	return resp
}

// HealthHandler serves the liveness probe.
func (m *Manager) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := m.Health(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// ReadinessHandler serves the readiness probe.
func (m *Manager) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := m.Readiness(r.Context())
		w.Header().Set("Content-Type", "application/json")
		code := http.StatusOK
		if !resp.Ready {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) CheckResult
}

// Name implements Checker.
func (c CheckerFunc) Name() string { return c.CheckerName }

// Check implements Checker.
func (c CheckerFunc) Check(ctx context.Context) CheckResult { return c.Fn(ctx) }

// CredentialChecker reports degraded when a provider credential is missing.
// Missing credentials do not make the process unready: the API still serves
// requests and reports the gap per call.
func CredentialChecker(name string, configured func() bool) Checker {
	return CheckerFunc{
		CheckerName: name,
		Fn: func(_ context.Context) CheckResult {
			if configured() {
				return CheckResult{Status: StatusHealthy}
			}
			return CheckResult{
				Status:  StatusDegraded,
				Message: "credentials not configured",
			}
		},
	}
}
