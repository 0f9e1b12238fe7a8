// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	loader := NewLoader("", "test")
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultCallTimeout, cfg.CallTimeout)
	assert.Equal(t, int64(DefaultMaxAudioBytes), cfg.MaxAudioBytes)
	assert.Equal(t, DefaultVoiceCooldown, cfg.VoiceCooldown)
	assert.Equal(t, DefaultVapiRateRPS, cfg.VapiRateRPS)
	assert.Equal(t, "test", cfg.Version)
	assert.False(t, cfg.HasVapiCredentials())
	assert.False(t, cfg.HasPlayHTCredentials())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listenAddr: \":9999\"\npollInterval: 5s\nassistantId: asst-file\n",
	), 0o600))

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "asst-file", cfg.AssistantID)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultCallTimeout, cfg.CallTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assistantId: asst-file\n"), 0o600))

	t.Setenv("TOUCHBASE_ASSISTANT_ID", "asst-env")
	t.Setenv("TOUCHBASE_POLL_INTERVAL", "750ms")
	t.Setenv("VAPI_API_KEY", "key")
	t.Setenv("TOUCHBASE_PHONE_NUMBER_ID", "phone-env")
	t.Setenv("TOUCHBASE_VAPI_RATE_RPS", "25")

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "asst-env", cfg.AssistantID)
	assert.Equal(t, 750*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 25, cfg.VapiRateRPS)
	assert.True(t, cfg.HasVapiCredentials())
}

func TestLoadRejectsUnknownFileKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listenAdr: \":1\"\n"), 0o600))

	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config file")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), "test").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	want := defaults()
	want.Version = "test"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHelpers(t *testing.T) {
	t.Setenv("T_STR", "hello")
	t.Setenv("T_INT", "42")
	t.Setenv("T_INT_BAD", "abc")
	t.Setenv("T_BOOL", "true")
	t.Setenv("T_DUR", "90s")
	t.Setenv("T_SLICE", "a, b ,,c")

	assert.Equal(t, "hello", ParseString("T_STR", "d"))
	assert.Equal(t, "d", ParseString("T_MISSING", "d"))
	assert.Equal(t, 42, ParseInt("T_INT", 1))
	assert.Equal(t, 7, ParseInt("T_INT_BAD", 7))
	assert.True(t, ParseBool("T_BOOL", false))
	assert.Equal(t, 90*time.Second, ParseDuration("T_DUR", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, ParseStringSlice("T_SLICE", nil))
	assert.Equal(t, []string{"x"}, ParseStringSlice("T_SLICE_MISSING", []string{"x"}))
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaults()
	cfg.PollInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = defaults()
	cfg.VapiBaseURL = "://not-a-url"
	assert.Error(t, cfg.Validate())

	cfg = defaults()
	cfg.MaxAudioBytes = -1
	assert.Error(t, cfg.Validate())
}
