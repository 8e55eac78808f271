// Package eventbus fans firing notifications out to subscribers
// (SSE clients, the telegram notifier, tests) without coupling the
// scheduler to any transport.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"

	"humancron/internal/task"
)

// Firing is emitted once per task firing, carrying the task's snapshot as
// it looked at the moment it fired (before the rule was advanced).
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST use buffered channels.
//   - Slow subscribers may drop firings (bounded backpressure); delivery
//     within one tick follows the store's iteration order.
type Firing struct {
	Task    *task.Task
	FiredAt time.Time
}

type Bus interface {
	Publish(f Firing)
	Subscribe(buffer int) (ch <-chan Firing, unsubscribe func())
}

// New returns a simple in-memory fanout bus.
//
// It intentionally does not own any background goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Firing{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Firing
	seq  atomic.Uint64
}

func (b *memBus) Publish(f Firing) {
	if f.FiredAt.IsZero() {
		f.FiredAt = time.Now()
	}
	// Snapshot subscribers so Publish doesn't hold locks while attempting sends.
	b.mu.RLock()
	chs := make([]chan Firing, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// Non-blocking delivery. If subscriber is slow, we drop.
		// If a subscriber unsubscribes concurrently and the channel closes,
		// recover from a possible panic (send on closed channel).
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- f:
			default:
			}
		}()
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Firing, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Firing, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			// Closing is safe because Publish recovers from send panics.
			close(ch)
		})
	}
	return ch, unsub
}
