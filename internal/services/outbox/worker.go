// Package outbox dispatches queued notification events after their
// financial transactions commit. Dispatch is fire-and-forget from the
// caller's point of view: a publish failure is logged and the event stays
// pending for the next sweep, but it never unwinds a committed operation.
package outbox

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
)

const sweepBatchSize = 100

// Worker polls the outbox and publishes pending events.
type Worker struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	limiter   *rate.Limiter
	interval  time.Duration
	logger    *common.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewWorker creates an outbox worker. eventsPerSecond caps the publish rate;
// interval is how often the outbox is polled when idle.
func NewWorker(store interfaces.LedgerStore, publisher interfaces.EventPublisher, eventsPerSecond float64, interval time.Duration, logger *common.Logger) *Worker {
	if eventsPerSecond <= 0 {
		eventsPerSecond = 20
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Worker{
		store:     store,
		publisher: publisher,
		limiter:   rate.NewLimiter(rate.Limit(eventsPerSecond), 1),
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start launches the polling loop in the background.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.logger.Info().
			Dur("interval", w.interval).
			Msg("Outbox worker started")

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
					w.logger.Warn().Err(err).Msg("Outbox sweep failed")
				}
			}
		}
	}()
}

// Stop halts the polling loop and waits for the in-flight sweep to finish.
func (w *Worker) Stop() {
	w.once.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.done
		}
	})
}

// Sweep publishes one batch of pending events and returns how many were
// dispatched. Events that fail to publish stay pending and are retried on a
// later sweep.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	pending, err := w.store.PendingOutbox(ctx, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, ev := range pending {
		if err := w.limiter.Wait(ctx); err != nil {
			return dispatched, err
		}
		if err := w.publisher.Publish(ctx, ev); err != nil {
			w.logger.Warn().
				Err(err).
				Str("event", ev.ID).
				Str("kind", ev.Kind).
				Msg("Notification publish failed, will retry")
			continue
		}
		if err := w.store.MarkDispatched(ctx, ev.ID); err != nil {
			// The event was published but not marked; the next sweep may
			// publish it again. At-least-once is acceptable for
			// notifications.
			w.logger.Warn().Err(err).Str("event", ev.ID).Msg("Failed to mark event dispatched")
			continue
		}
		dispatched++
	}

	if dispatched > 0 {
		w.logger.Debug().Int("count", dispatched).Msg("Outbox events dispatched")
	}
	return dispatched, nil
}
