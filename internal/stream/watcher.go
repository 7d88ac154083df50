package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dipiu-foods/dipiu-api/internal/models"
)

// QueryFunc runs one full read of a market view (upcoming or all). The
// watcher calls it for the initial snapshot and again after every store
// change.
type QueryFunc func(ctx context.Context) ([]*models.Market, error)

// ChangeSource opens a change feed on the markets collection.
type ChangeSource interface {
	WatchMarkets(ctx context.Context) (<-chan models.MarketChange, error)
}

// Watcher keeps one market query continuously synchronized: it publishes a
// full snapshot on start and republishes on every collection change. Query
// and stream failures are published into the snapshot's error slot and the
// change feed is re-established after a delay.
type Watcher struct {
	name    string
	source  ChangeSource
	query   QueryFunc
	broker  *Broker
	logger  *slog.Logger
	rewatch time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWatcher(name string, source ChangeSource, query QueryFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		name:    name,
		source:  source,
		query:   query,
		broker:  NewBroker(),
		logger:  logger,
		rewatch: 5 * time.Second,
	}
}

// Subscribe attaches a new subscriber to the watcher's snapshot feed.
func (w *Watcher) Subscribe() *Subscription {
	return w.broker.Subscribe()
}

// Start begins watching. Non-blocking; snapshots flow until Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("market watcher started", "watcher", w.name)
	return nil
}

// Stop shuts the watcher down and closes all subscriber channels.
func (w *Watcher) Stop(ctx context.Context) error {
	w.logger.Info("stopping market watcher", "watcher", w.name)

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("market watcher stopped", "watcher", w.name)
	case <-ctx.Done():
		w.logger.Warn("market watcher stop timed out", "watcher", w.name)
	}

	w.broker.Close()
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	w.publishSnapshot()

	stale := false
	for {
		changes, err := w.source.WatchMarkets(w.ctx)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to open change feed", "watcher", w.name, "error", err)
			w.broker.Publish(Snapshot{Err: err})
			stale = true
			if !w.sleep(w.rewatch) {
				return
			}
			continue
		}
		if stale {
			// The last published snapshot is the open error; refresh so
			// subscribers recover without waiting for the next store change.
			stale = false
			w.publishSnapshot()
		}

		if !w.consume(changes) {
			return
		}
		// Feed ended without cancellation; refresh and re-establish.
		w.publishSnapshot()
		if !w.sleep(w.rewatch) {
			return
		}
	}
}

// consume relays changes until the feed closes. Returns false when the
// watcher context is done.
func (w *Watcher) consume(changes <-chan models.MarketChange) bool {
	for {
		select {
		case <-w.ctx.Done():
			return false
		case change, ok := <-changes:
			if !ok {
				return w.ctx.Err() == nil
			}
			if change.Err != nil {
				w.logger.Error("change feed error", "watcher", w.name, "error", change.Err)
				w.broker.Publish(Snapshot{Err: change.Err})
				continue
			}
			w.publishSnapshot()
		}
	}
}

func (w *Watcher) publishSnapshot() {
	markets, err := w.query(w.ctx)
	if err != nil {
		if w.ctx.Err() != nil {
			return
		}
		w.logger.Error("market query failed", "watcher", w.name, "error", err)
		w.broker.Publish(Snapshot{Err: err})
		return
	}
	w.broker.Publish(Snapshot{Markets: markets})
}

func (w *Watcher) sleep(d time.Duration) bool {
	select {
	case <-w.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
