package stream

import (
	"sync"

	"github.com/dipiu-foods/dipiu-api/internal/models"
)

// Snapshot is one full delivery from a live market query. Every snapshot
// supersedes the previous one entirely; subscribers never merge diffs.
// A non-nil Err means the query or change stream failed and the market
// slice should not be trusted.
type Snapshot struct {
	Markets []*models.Market
	Err     error
}

// Subscription is one subscriber's handle on a broker. C carries snapshots
// until Unsubscribe is called; after that no further deliveries occur and
// the channel is closed.
type Subscription struct {
	C      <-chan Snapshot
	cancel func()
}

func (s *Subscription) Unsubscribe() {
	s.cancel()
}

// Broker fans full snapshots out to any number of subscribers. Each
// subscriber channel holds at most one pending snapshot: publishing while a
// subscriber is slow replaces the pending value rather than blocking, so a
// reader always observes the latest state.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
	last   *Snapshot
	closed bool
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[int]chan Snapshot),
	}
}

// Subscribe registers a new subscriber. If a snapshot has already been
// published the subscriber receives it immediately, so late joiners don't
// wait for the next store change.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if b.closed {
		close(ch)
		return &Subscription{C: ch, cancel: func() {}}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	if b.last != nil {
		ch <- *b.last
	}

	return &Subscription{
		C: ch,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		},
	}
}

// Publish delivers a snapshot to every subscriber, replacing any pending
// undelivered snapshot (latest wins).
func (b *Broker) Publish(snap Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.last = &snap

	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
			// Drain the stale pending snapshot, then deliver the new one.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// Close tears down the broker and closes every subscriber channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribers returns the current subscriber count.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
