// SPDX-License-Identifier: MIT

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchbase-fun/touchbase/internal/wizard"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(time.Hour)

	sess := s.Create()
	require.NotEmpty(t, sess.ID)

	s.SetVoice(sess.ID, "voice-1")
	s.SetCall(sess.ID, wizard.Record{CallID: "call-1", Status: wizard.StatusCalling})

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, "voice-1", got.VoiceID)
	assert.Equal(t, "call-1", got.Call.CallID)
	assert.Equal(t, wizard.StatusCalling, got.Call.Status)
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore(time.Hour)
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestStoreGetOrCreate(t *testing.T) {
	s := NewStore(time.Hour)

	fresh := s.GetOrCreate("")
	require.NotEmpty(t, fresh.ID)

	same := s.GetOrCreate(fresh.ID)
	assert.Equal(t, fresh.ID, same.ID)

	other := s.GetOrCreate("unknown-id")
	assert.NotEqual(t, "unknown-id", other.ID)
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	sess := s.Create()

	now = now.Add(2 * time.Minute)
	_, ok := s.Get(sess.ID)
	assert.False(t, ok, "expired session must not resolve")

	assert.Equal(t, 1, s.Evict())
	assert.Equal(t, 0, s.Len())
}

func TestStoreUpdateRecreatesEvicted(t *testing.T) {
	s := NewStore(time.Hour)
	// A poller may outlive its session; the terminal outcome must still land.
	s.SetCall("ghost", wizard.Record{CallID: "call-9", Status: wizard.StatusCompleted})

	got, ok := s.Get("ghost")
	require.True(t, ok)
	assert.Equal(t, wizard.StatusCompleted, got.Call.Status)
}
