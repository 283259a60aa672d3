// Package feed carries order change notifications from the write path to every cashier board.
package feed

import (
	"context"
	"sync"

	"cafe-pos/internal/models"
)

// Feed publishes order changes and lets boards listen for them. Delivery is best effort:
// listeners resync periodically, so a dropped message only delays a board.
type Feed interface {
	Publish(ctx context.Context, change models.OrderChange) error
	Listen(ctx context.Context) (<-chan models.OrderChange, error)
}

const listenerBuffer = 32

// Local broadcasts changes inside one process.
type Local struct {
	mu        sync.RWMutex
	listeners map[chan models.OrderChange]struct{}
}

func NewLocal() *Local {
	return &Local{listeners: make(map[chan models.OrderChange]struct{})}
}

// Publish never blocks; a listener whose buffer is full misses the message.
func (l *Local) Publish(_ context.Context, change models.OrderChange) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for ch := range l.listeners {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

// Listen returns a channel that is closed when ctx is done.
func (l *Local) Listen(ctx context.Context) (<-chan models.OrderChange, error) {
	ch := make(chan models.OrderChange, listenerBuffer)

	l.mu.Lock()
	l.listeners[ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.listeners, ch)
		close(ch)
		l.mu.Unlock()
	}()
	return ch, nil
}

func (l *Local) ListenerCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.listeners)
}

// deliver hands a change to out unless ctx ends first.
func deliver(ctx context.Context, out chan<- models.OrderChange, change models.OrderChange) bool {
	select {
	case out <- change:
		return true
	case <-ctx.Done():
		return false
	}
}
