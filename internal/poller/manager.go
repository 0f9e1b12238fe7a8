// SPDX-License-Identifier: MIT

package poller

import (
	"context"
	"sync"
	"time"

	"github.com/touchbase-fun/touchbase/internal/log"
)

// Manager owns at most one watcher per key (a wizard session). Starting a
// watch under a key supersedes and tears down any previous watcher for that
// key, so a stale timer can never act on a replaced call id.
type Manager struct {
	fetch    Fetcher
	interval time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	watchers map[string]*Watcher
	closed   bool
}

// NewManager creates a watcher manager using the given fetcher and interval.
func NewManager(fetch Fetcher, interval, queryTimeout time.Duration) *Manager {
	return &Manager{
		fetch:    fetch,
		interval: interval,
		timeout:  queryTimeout,
		watchers: make(map[string]*Watcher),
	}
}

// Watch starts polling callID under key, replacing any previous watcher for
// that key. The returned watcher is already running.
func (m *Manager) Watch(ctx context.Context, key, callID string, hooks Hooks) *Watcher {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	prev := m.watchers[key]
	w := NewWatcher(callID, m.fetch, hooks, WithInterval(m.interval), WithQueryTimeout(m.timeout))
	m.watchers[key] = w
	m.mu.Unlock()

	if prev != nil {
		logger := log.WithComponent("poller")
		logger.Info().
			Str(log.FieldEvent, "poll.superseded").
			Str(log.FieldCallID, prev.callID).
			Msg("replacing watcher for new call")
		prev.Stop()
	}
	w.Start(ctx)
	return w
}

// Lookup returns the running watcher for key, if any.
func (m *Manager) Lookup(key string) (*Watcher, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.watchers[key]
	return w, ok
}

// Close stops every watcher and rejects further Watch calls.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	watchers := make([]*Watcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		watchers = append(watchers, w)
	}
	m.watchers = make(map[string]*Watcher)
	m.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
	}
}
