package realtime

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the per-subscriber channel capacity
const DefaultBuffer = 64

// MemoryBus fans events out to in-process subscribers.
// A subscriber whose buffer overflows has its queue replaced by a single
// OpResync event, so it reloads instead of drifting.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[string]chan Event
	buffer int
}

// NewMemoryBus returns an empty hub
func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &MemoryBus{subs: make(map[string]chan Event), buffer: buffer}
}

// Publish delivers ev to every current subscriber without blocking
func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[DANAM-REALTIME] Subscriber %s is full, dropped %s %s/%d; requesting resync", id, ev.Op, ev.Table, ev.ID)
			resync(ch)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done
func (b *MemoryBus) Subscribe(ctx context.Context) <-chan Event {
	id := uuid.NewString()
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Subscribers returns the number of live subscriptions
func (b *MemoryBus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// resync empties ch and queues one OpResync. Only publishers send, and they
// hold the bus lock, so the emptied buffer has room.
func resync(ch chan Event) {
drain:
	for {
		select {
		case <-ch:
		default:
			break drain
		}
	}
	select {
	case ch <- Event{Op: OpResync}:
	default:
	}
}
