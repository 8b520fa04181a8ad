package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// LocalBroker fans events out to subscribers within the process.
type LocalBroker struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[int]chan Event)}
}

func (b *LocalBroker) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Close ends every subscription.
func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
