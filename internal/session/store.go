// SPDX-License-Identifier: MIT

// Package session keeps the non-durable, per-wizard session registry.
// Sessions exist so the poller has somewhere to record terminal call
// outcomes; losing them on restart is by design.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/touchbase-fun/touchbase/internal/log"
	"github.com/touchbase-fun/touchbase/internal/wizard"
)

// Session is one wizard run: at most one cloned voice and one active call.
type Session struct {
	ID           string        `json:"sessionId"`
	VoiceID      string        `json:"voiceId,omitempty"`
	Call         wizard.Record `json:"call"`
	CalendarLink string        `json:"calendarLink,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Store is an in-memory TTL-evicted session registry. Safe for concurrent use.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates a registry whose entries expire ttl after last update.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create registers a fresh session and returns its id.
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a copy of the session, or false when unknown or expired.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.expired(sess) {
		return Session{}, false
	}
	return *sess, true
}

// GetOrCreate resolves id, falling back to a new session when the id is
// unknown, expired or empty.
func (s *Store) GetOrCreate(id string) *Session {
	if id != "" {
		s.mu.Lock()
		if sess, ok := s.sessions[id]; ok && !s.expired(sess) {
			sess.UpdatedAt = s.now()
			cp := *sess
			s.mu.Unlock()
			return &cp
		}
		s.mu.Unlock()
	}
	return s.Create()
}

// SetVoice records the cloned voice id on the session.
func (s *Store) SetVoice(id, voiceID string) {
	s.update(id, func(sess *Session) { sess.VoiceID = voiceID })
}

// SetCall records the latest observed call state on the session.
func (s *Store) SetCall(id string, rec wizard.Record) {
	s.update(id, func(sess *Session) { sess.Call = rec })
}

// SetCalendarLink records the derived calendar link on the session.
func (s *Store) SetCalendarLink(id, link string) {
	s.update(id, func(sess *Session) { sess.CalendarLink = link })
}

func (s *Store) update(id string, mutate func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		// Session may have been evicted while a call was still in flight;
		// recreate it under the same id so the outcome is not lost.
		sess = &Session{ID: id, CreatedAt: s.now()}
		s.sessions[id] = sess
	}
	mutate(sess)
	sess.UpdatedAt = s.now()
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}

// Evict removes expired sessions and returns how many were dropped.
func (s *Store) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// RunEvictions sweeps expired sessions until ctx is cancelled.
func (s *Store) RunEvictions(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}
	logger := log.WithComponent("session")
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				logger.Debug().
					Str(log.FieldEvent, "session.evicted").
					Int("count", n).
					Msg("expired sessions removed")
			}
		}
	}
}
