// SPDX-License-Identifier: MIT

// Package poller watches triggered calls until they reach a terminal status.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/touchbase-fun/touchbase/internal/log"
	"github.com/touchbase-fun/touchbase/internal/upstream"
	"github.com/touchbase-fun/touchbase/internal/vapi"
	"github.com/touchbase-fun/touchbase/internal/wizard"
)

// Fetcher queries the current provider state of one call. *vapi.Client
// satisfies this.
type Fetcher interface {
	Call(ctx context.Context, id string) (*vapi.Call, error)
}

// Hooks receive watcher events. Either may be nil.
type Hooks struct {
	// OnUpdate fires after every successful status query.
	OnUpdate func(wizard.Record)
	// OnTerminal fires exactly once per watcher, when the call first
	// reaches a terminal status, with the extracted summary in the record.
	OnTerminal func(wizard.Record)
}

// Watcher polls one call id on a fixed interval until terminal. Queries are
// issued from a single goroutine, so no two status requests for the same
// call are ever in flight at once: a tick that arrives while a slow query is
// outstanding is coalesced by the ticker and handled after the query returns.
type Watcher struct {
	callID   string
	fetch    Fetcher
	interval time.Duration
	timeout  time.Duration
	hooks    Hooks

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	record   wizard.Record
	notified bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval overrides the polling interval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithQueryTimeout bounds each individual status query.
func WithQueryTimeout(d time.Duration) Option {
	return func(w *Watcher) { w.timeout = d }
}

// NewWatcher creates a watcher for callID. It does not start polling.
func NewWatcher(callID string, fetch Fetcher, hooks Hooks, opts ...Option) *Watcher {
	w := &Watcher{
		callID:   callID,
		fetch:    fetch,
		interval: 3 * time.Second,
		timeout:  10 * time.Second,
		hooks:    hooks,
		done:     make(chan struct{}),
		record:   wizard.Record{CallID: callID, Status: wizard.StatusPreparing},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record returns the latest observed state of the call.
func (w *Watcher) Record() wizard.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.record
}

// Start begins polling: one immediate query, then one per interval, until a
// terminal status is reached, a hard upstream failure occurs, or ctx is
// cancelled.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
}

// Stop cancels polling and waits for the polling goroutine to exit. Safe to
// call more than once.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}

// Done is closed when the watcher has stopped polling.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	logger := log.WithComponentFromContext(log.ContextWithCallID(ctx, w.callID), "poller")
	logger.Info().
		Str(log.FieldEvent, "poll.start").
		Dur("interval", w.interval).
		Msg("watching call")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Immediate first query, then the interval takes over.
	if w.poll(ctx, logger) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			logger.Info().Str(log.FieldEvent, "poll.cancelled").Msg("watcher torn down")
			return
		case <-ticker.C:
			if w.poll(ctx, logger) {
				return
			}
		}
	}
}

// poll issues one status query. It returns true when polling must halt.
func (w *Watcher) poll(ctx context.Context, logger zerolog.Logger) bool {
	qctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	call, err := w.fetch.Call(qctx, w.callID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if ue, ok := upstream.AsError(err); ok && errors.Is(err, upstream.ErrRejected) {
			// A non-success HTTP result is a hard failure: the call id is
			// bad or gone, so further polling cannot recover.
			logger.Error().
				Err(err).
				Str(log.FieldEvent, "poll.hard_failure").
				Int(log.FieldUpstreamStatus, ue.Status).
				Msg("status query rejected, halting")
			w.transition(logger, wizard.Record{CallID: w.callID, Status: wizard.StatusFailed})
			return true
		}
		// Transient transport errors may self-resolve; keep the interval.
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "poll.transient_error").
			Msg("status query failed, will retry")
		return false
	}

	rec := wizard.Record{
		CallID:       w.callID,
		Status:       wizard.MapProviderStatus(call.Status),
		Summary:      call.EffectiveSummary(),
		RecordingURL: call.RecordingURL,
	}
	w.transition(logger, rec)
	return rec.Status.Terminal()
}

func (w *Watcher) transition(logger zerolog.Logger, rec wizard.Record) {
	w.mu.Lock()
	old := w.record.Status
	w.record = rec
	fireTerminal := rec.Status.Terminal() && !w.notified
	if fireTerminal {
		w.notified = true
	}
	w.mu.Unlock()

	if old != rec.Status {
		logger.Info().
			Str(log.FieldEvent, "poll.transition").
			Str(log.FieldOldStatus, string(old)).
			Str(log.FieldNewStatus, string(rec.Status)).
			Msg("call status changed")
	}
	if w.hooks.OnUpdate != nil {
		w.hooks.OnUpdate(rec)
	}
	if fireTerminal && w.hooks.OnTerminal != nil {
		w.hooks.OnTerminal(rec)
	}
}
