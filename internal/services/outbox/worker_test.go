package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
	"github.com/dmaitland/tally/internal/storage/ledgerdb"
)

// capturePublisher records published events and can be told to fail.
type capturePublisher struct {
	mu        sync.Mutex
	published []*models.OutboxEvent
	fail      bool
}

func (p *capturePublisher) Publish(_ context.Context, ev *models.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func newTestWorker(t *testing.T) (*Worker, *ledgerdb.Store, *capturePublisher) {
	t.Helper()
	store, err := ledgerdb.NewStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	pub := &capturePublisher{}
	worker := NewWorker(store, pub, 1000, time.Second, common.NewSilentLogger())
	return worker, store, pub
}

func queueEvent(t *testing.T, store *ledgerdb.Store, id string) {
	t.Helper()
	err := store.Update(context.Background(), func(tx interfaces.LedgerTx) error {
		return tx.AppendOutbox(&models.OutboxEvent{
			ID:            id,
			AccountNumber: "0000000001",
			Kind:          models.EventDeposit,
			CreatedAt:     time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("AppendOutbox %s: %v", id, err)
	}
}

func TestSweepPublishesAndMarks(t *testing.T) {
	worker, store, pub := newTestWorker(t)
	ctx := context.Background()

	queueEvent(t, store, "e1")
	queueEvent(t, store, "e2")

	n, err := worker.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 || pub.count() != 2 {
		t.Fatalf("expected 2 dispatched, got %d (published %d)", n, pub.count())
	}

	pending, err := store.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected empty outbox, got %d pending", len(pending))
	}

	// A second sweep finds nothing to do.
	n, err = worker.Sweep(ctx)
	if err != nil || n != 0 {
		t.Errorf("idle sweep: n=%d err=%v", n, err)
	}
}

func TestFailedPublishStaysPending(t *testing.T) {
	worker, store, pub := newTestWorker(t)
	ctx := context.Background()

	queueEvent(t, store, "e1")
	pub.fail = true

	n, err := worker.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 dispatched while broker is down, got %d", n)
	}

	pending, _ := store.PendingOutbox(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("failed event must stay pending, got %d", len(pending))
	}

	// The broker comes back and the event is delivered on the next sweep.
	pub.fail = false
	n, err = worker.Sweep(ctx)
	if err != nil || n != 1 {
		t.Fatalf("retry sweep: n=%d err=%v", n, err)
	}
}

func TestStartStopDispatchesInBackground(t *testing.T) {
	store, err := ledgerdb.NewStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	pub := &capturePublisher{}
	worker := NewWorker(store, pub, 1000, 10*time.Millisecond, common.NewSilentLogger())

	queueEvent(t, store, "e1")

	worker.Start()
	defer worker.Stop()

	deadline := time.After(5 * time.Second)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("event was not dispatched in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
