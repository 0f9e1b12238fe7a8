// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load loads configuration in validated order:
// defaults -> file (strict YAML) -> env overrides -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		if err := l.mergeFile(&cfg, l.configPath); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		ListenAddr:    DefaultListenAddr,
		MetricsAddr:   DefaultMetricsAddr,
		RateLimitRPM:  DefaultRateLimitRPM,
		LogLevel:      "info",
		LogService:    "touchbased",
		VapiBaseURL:   DefaultVapiBaseURL,
		VapiRateRPS:   DefaultVapiRateRPS,
		PlayHTBaseURL: DefaultPlayHTBaseURL,
		PollInterval:  DefaultPollInterval,
		CallTimeout:   DefaultCallTimeout,
		MaxAudioBytes: DefaultMaxAudioBytes,
		VoiceCooldown: DefaultVoiceCooldown,
		SessionTTL:    DefaultSessionTTL,
	}
}

func (l *Loader) mergeFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return err
	}

	// Unmarshal into a copy so a half-parsed file never leaks into cfg.
	fileCfg := *cfg
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	*cfg = fileCfg
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.ListenAddr = ParseString("TOUCHBASE_LISTEN", cfg.ListenAddr)
	cfg.MetricsEnabled = ParseBool("TOUCHBASE_METRICS", cfg.MetricsEnabled)
	cfg.MetricsAddr = ParseString("TOUCHBASE_METRICS_ADDR", cfg.MetricsAddr)
	cfg.AllowedOrigins = ParseStringSlice("TOUCHBASE_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.RateLimitRPM = ParseInt("TOUCHBASE_RATE_LIMIT_RPM", cfg.RateLimitRPM)

	cfg.LogLevel = ParseString("TOUCHBASE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("TOUCHBASE_LOG_SERVICE", cfg.LogService)

	cfg.VapiAPIKey = ParseString("VAPI_API_KEY", cfg.VapiAPIKey)
	cfg.VapiBaseURL = ParseString("TOUCHBASE_VAPI_BASE", cfg.VapiBaseURL)
	cfg.AssistantID = ParseString("TOUCHBASE_ASSISTANT_ID", cfg.AssistantID)
	cfg.PhoneNumberID = ParseString("TOUCHBASE_PHONE_NUMBER_ID", cfg.PhoneNumberID)
	cfg.VapiRateRPS = ParseInt("TOUCHBASE_VAPI_RATE_RPS", cfg.VapiRateRPS)

	cfg.PlayHTAPIKey = ParseString("PLAYHT_API_KEY", cfg.PlayHTAPIKey)
	cfg.PlayHTUserID = ParseString("PLAYHT_USER_ID", cfg.PlayHTUserID)
	cfg.PlayHTBaseURL = ParseString("TOUCHBASE_PLAYHT_BASE", cfg.PlayHTBaseURL)

	cfg.PollInterval = ParseDuration("TOUCHBASE_POLL_INTERVAL", cfg.PollInterval)
	cfg.CallTimeout = ParseDuration("TOUCHBASE_CALL_TIMEOUT", cfg.CallTimeout)
	cfg.MaxAudioBytes = ParseInt64("TOUCHBASE_MAX_AUDIO_BYTES", cfg.MaxAudioBytes)
	cfg.VoiceCooldown = ParseDuration("TOUCHBASE_VOICE_COOLDOWN", cfg.VoiceCooldown)
	cfg.SessionTTL = ParseDuration("TOUCHBASE_SESSION_TTL", cfg.SessionTTL)

	cfg.TracingEndpoint = ParseString("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.TracingEndpoint)
	cfg.TracingProtocol = ParseString("TOUCHBASE_TRACING_PROTOCOL", cfg.TracingProtocol)
}
