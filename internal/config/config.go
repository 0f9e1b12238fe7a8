// SPDX-License-Identifier: MIT

// Package config loads touchbased configuration with precedence
// ENV > file > defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default tunables. The poll interval, call timeout, audio ceiling and
// voice cooldown mirror the values the wizard was built against.
const (
	DefaultListenAddr    = ":8080"
	DefaultMetricsAddr   = ":9090"
	DefaultVapiBaseURL   = "https://api.vapi.ai"
	DefaultPlayHTBaseURL = "https://api.play.ht"
	DefaultPollInterval  = 3 * time.Second
	DefaultCallTimeout   = 10 * time.Second
	DefaultMaxAudioBytes = 5 << 20
	DefaultVoiceCooldown = 180 * time.Second
	DefaultSessionTTL    = time.Hour
	DefaultRateLimitRPM  = 600
	DefaultVapiRateRPS   = 10
)

// AppConfig holds the full runtime configuration.
type AppConfig struct {
	// Server
	ListenAddr     string   `yaml:"listenAddr"`
	MetricsEnabled bool     `yaml:"metricsEnabled"`
	MetricsAddr    string   `yaml:"metricsAddr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	RateLimitRPM   int      `yaml:"rateLimitRpm"`

	// Logging
	LogLevel   string `yaml:"logLevel"`
	LogService string `yaml:"logService"`

	// Calling provider (Vapi)
	VapiAPIKey    string `yaml:"vapiApiKey"`
	VapiBaseURL   string `yaml:"vapiBaseUrl"`
	AssistantID   string `yaml:"assistantId"`
	PhoneNumberID string `yaml:"phoneNumberId"`
	VapiRateRPS   int    `yaml:"vapiRateRps"` // outbound cap, 0 disables

	// Cloning provider (PlayHT)
	PlayHTAPIKey  string `yaml:"playhtApiKey"`
	PlayHTUserID  string `yaml:"playhtUserId"`
	PlayHTBaseURL string `yaml:"playhtBaseUrl"`

	// Wizard tunables
	PollInterval  time.Duration `yaml:"pollInterval"`
	CallTimeout   time.Duration `yaml:"callTimeout"`
	MaxAudioBytes int64         `yaml:"maxAudioBytes"`
	VoiceCooldown time.Duration `yaml:"voiceCooldown"`
	SessionTTL    time.Duration `yaml:"sessionTtl"`

	// Tracing (disabled when endpoint is empty)
	TracingEndpoint string `yaml:"tracingEndpoint"`
	TracingProtocol string `yaml:"tracingProtocol"` // "http" or "grpc"

	// Version is injected by the loader, not read from file or env.
	Version string `yaml:"-"`
}

// HasVapiCredentials reports whether the calling provider is usable.
// Missing credentials surface as a 500 at request time, not at startup.
func (c *AppConfig) HasVapiCredentials() bool {
	return strings.TrimSpace(c.VapiAPIKey) != ""
}

// HasPlayHTCredentials reports whether the cloning provider is usable.
func (c *AppConfig) HasPlayHTCredentials() bool {
	return strings.TrimSpace(c.PlayHTAPIKey) != "" && strings.TrimSpace(c.PlayHTUserID) != ""
}

// Validate checks structural invariants. Credentials are intentionally not
// required here: the API reports their absence per request.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen address is empty")
	}
	for _, base := range []struct {
		name, raw string
	}{
		{"vapi base URL", c.VapiBaseURL},
		{"playht base URL", c.PlayHTBaseURL},
	} {
		u, err := url.Parse(base.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", base.name, base.raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("unsupported %s scheme %q", base.name, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("%s %q is missing host", base.name, base.raw)
		}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive, got %s", c.CallTimeout)
	}
	if c.MaxAudioBytes <= 0 {
		return fmt.Errorf("max audio bytes must be positive, got %d", c.MaxAudioBytes)
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("rate limit must not be negative, got %d", c.RateLimitRPM)
	}
	if c.VapiRateRPS < 0 {
		return fmt.Errorf("vapi rate limit must not be negative, got %d", c.VapiRateRPS)
	}
	if c.TracingProtocol != "" && c.TracingProtocol != "http" && c.TracingProtocol != "grpc" {
		return fmt.Errorf("unsupported tracing protocol %q", c.TracingProtocol)
	}
	return nil
}
