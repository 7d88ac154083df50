package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dipiu-foods/dipiu-api/internal/models"
)

type fakeSource struct {
	mu       sync.Mutex
	changes  chan models.MarketChange
	openErrs int           // fail this many opens before succeeding
	gate     chan struct{} // when set, successful opens wait for a token
}

func newFakeSource() *fakeSource {
	return &fakeSource{changes: make(chan models.MarketChange)}
}

func (f *fakeSource) WatchMarkets(ctx context.Context) (<-chan models.MarketChange, error) {
	f.mu.Lock()
	if f.openErrs > 0 {
		f.openErrs--
		f.mu.Unlock()
		return nil, errors.New("primary unavailable")
	}
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.changes, nil
}

type fakeQuery struct {
	mu      sync.Mutex
	markets []*models.Market
	err     error
	calls   int
}

func (q *fakeQuery) run(ctx context.Context) ([]*models.Market, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	out := make([]*models.Market, len(q.markets))
	copy(out, q.markets)
	return out, nil
}

func (q *fakeQuery) set(markets []*models.Market, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.markets = markets
	q.err = err
}

func TestWatcherPublishesInitialSnapshot(t *testing.T) {
	source := newFakeSource()
	query := &fakeQuery{markets: []*models.Market{{MarketName: "Nundah Markets"}}}

	w := NewWatcher("test", source, query.run, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop(context.Background())

	sub := w.Subscribe()
	defer sub.Unsubscribe()

	snap := receiveSnapshot(t, sub)
	if snap.Err != nil {
		t.Fatalf("unexpected error: %v", snap.Err)
	}
	if len(snap.Markets) != 1 || snap.Markets[0].MarketName != "Nundah Markets" {
		t.Errorf("unexpected initial snapshot: %+v", snap)
	}
}

func TestWatcherRepublishesOnChange(t *testing.T) {
	source := newFakeSource()
	query := &fakeQuery{markets: []*models.Market{{MarketName: "before"}}}

	w := NewWatcher("test", source, query.run, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop(context.Background())

	sub := w.Subscribe()
	defer sub.Unsubscribe()
	receiveSnapshot(t, sub)

	query.set([]*models.Market{{MarketName: "after"}}, nil)
	source.changes <- models.MarketChange{Operation: "update"}

	snap := receiveSnapshot(t, sub)
	if len(snap.Markets) != 1 || snap.Markets[0].MarketName != "after" {
		t.Errorf("snapshot not refreshed after change: %+v", snap)
	}
}

func TestWatcherSurfacesChangeFeedErrors(t *testing.T) {
	source := newFakeSource()
	query := &fakeQuery{}

	w := NewWatcher("test", source, query.run, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop(context.Background())

	sub := w.Subscribe()
	defer sub.Unsubscribe()
	receiveSnapshot(t, sub)

	source.changes <- models.MarketChange{Err: errors.New("connection reset")}

	snap := receiveSnapshot(t, sub)
	if snap.Err == nil {
		t.Fatal("expected error snapshot after change feed failure")
	}
}

func TestWatcherSurfacesQueryErrors(t *testing.T) {
	source := newFakeSource()
	query := &fakeQuery{err: errors.New("permission denied")}

	w := NewWatcher("test", source, query.run, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop(context.Background())

	sub := w.Subscribe()
	defer sub.Unsubscribe()

	snap := receiveSnapshot(t, sub)
	if snap.Err == nil {
		t.Fatal("expected error in the snapshot's error slot")
	}
}

func TestWatcherRefreshesAfterFeedReopen(t *testing.T) {
	source := newFakeSource()
	source.openErrs = 1
	source.gate = make(chan struct{})
	query := &fakeQuery{markets: []*models.Market{{MarketName: "before"}}}

	w := NewWatcher("test", source, query.run, nil)
	w.rewatch = time.Millisecond
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop(context.Background())

	sub := w.Subscribe()
	defer sub.Unsubscribe()

	// Drain until the failed open surfaces; the reopen is gated so no
	// further snapshots arrive yet.
	for {
		if snap := receiveSnapshot(t, sub); snap.Err != nil {
			break
		}
	}

	query.set([]*models.Market{{MarketName: "after"}}, nil)
	source.gate <- struct{}{}

	// The reopen alone must replace the error snapshot, with no store
	// change pushed through the feed.
	snap := receiveSnapshot(t, sub)
	if snap.Err != nil {
		t.Fatalf("still on error snapshot after reopen: %v", snap.Err)
	}
	if len(snap.Markets) != 1 || snap.Markets[0].MarketName != "after" {
		t.Errorf("snapshot not refreshed after reopen: %+v", snap)
	}
}

func TestWatcherStopClosesSubscribers(t *testing.T) {
	source := newFakeSource()
	query := &fakeQuery{}

	w := NewWatcher("test", source, query.run, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	sub := w.Subscribe()
	receiveSnapshot(t, sub)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	// After stop the subscription channel drains and closes; no further
	// deliveries occur.
	for {
		if _, ok := <-sub.C; !ok {
			return
		}
	}
}
