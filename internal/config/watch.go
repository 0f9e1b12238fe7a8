// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/touchbase-fun/touchbase/internal/log"
)

// Holder owns the live configuration and supports hot reload from file.
// A failed reload keeps the previous configuration in place.
type Holder struct {
	mu      sync.RWMutex
	current AppConfig
	loader  *Loader
	path    string
}

// NewHolder wraps an already-loaded configuration.
func NewHolder(cfg AppConfig, loader *Loader, path string) *Holder {
	return &Holder{current: cfg, loader: loader, path: path}
}

// Current returns a copy of the live configuration.
func (h *Holder) Current() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-runs the loader and swaps the live configuration on success.
func (h *Holder) Reload() error {
	cfg, err := h.loader.Load()
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	h.mu.Lock()
	h.current = cfg
	h.mu.Unlock()
	return nil
}

// Watch blocks until ctx is cancelled, reloading the configuration whenever
// the config file changes on disk. Editors replace files rather than write
// in place, so the watch is on the parent directory.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger := log.WithComponent("config")
	target := filepath.Clean(h.path)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			// Coalesce bursts of events from a single save.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})
		case <-reloads:
			if err := h.Reload(); err != nil {
				logger.Error().
					Err(err).
					Str("event", "config.reload_failed").
					Str("path", h.path).
					Msg("config reload failed, keeping previous configuration")
				continue
			}
			logger.Info().
				Str("event", "config.reloaded").
				Str("path", h.path).
				Msg("configuration reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Str("event", "config.watch_error").Msg("config watcher error")
		}
	}
}
