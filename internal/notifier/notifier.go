// Package notifier keeps cashier boards in sync with the set of pending orders.
package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/order/feed"
)

type PendingSource interface {
	ListPending(ctx context.Context) ([]models.Order, error)
}

// Snapshot is the pending set at one point in time, oldest first, plus what changed since
// the previous snapshot delivered to the same subscriber.
type Snapshot struct {
	Orders  []models.Order `json:"orders"`
	Added   []models.Order `json:"added"`
	Removed []string       `json:"removed"`
	Initial bool           `json:"initial"`
}

// HasNewOrders reports whether orders appeared that the subscriber had not seen.
func (s Snapshot) HasNewOrders() bool {
	return len(s.Added) > 0
}

type Notifier struct {
	Source PendingSource
	Feed   feed.Feed
	Resync time.Duration
	Logger *logger.Logger
}

func New(source PendingSource, f feed.Feed, resync time.Duration, log *logger.Logger) *Notifier {
	if resync <= 0 {
		resync = 30 * time.Second
	}
	return &Notifier{Source: source, Feed: f, Resync: resync, Logger: log}
}

// Subscribe calls callback with the current pending set before returning, then again every
// time the set changes. Callbacks run on a single goroutine, one at a time. The returned
// function stops the subscription and waits for any running callback to finish.
func (n *Notifier) Subscribe(ctx context.Context, callback func(Snapshot)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	changes, err := n.Feed.Listen(subCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("listen for order changes: %w", err)
	}

	orders, err := n.Source.ListPending(subCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load pending orders: %w", err)
	}
	callback(Snapshot{Orders: orders, Added: []models.Order{}, Removed: []string{}, Initial: true})

	done := make(chan struct{})
	go func() {
		defer close(done)
		n.run(subCtx, changes, orders, callback)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (n *Notifier) run(ctx context.Context, changes <-chan models.OrderChange, last []models.Order, callback func(Snapshot)) {
	ticker := time.NewTicker(n.Resync)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				n.Logger.Warn("NOTIFIER", "Order change feed closed, relying on periodic resync")
				changes = nil
				continue
			}
			drain(changes)
		case <-ticker.C:
		}

		orders, err := n.Source.ListPending(ctx)
		if err != nil {
			if ctx.Err() == nil {
				n.Logger.Warn("NOTIFIER", fmt.Sprintf("Failed to reload pending orders: %v", err))
			}
			continue
		}
		if snap, changed := diff(last, orders); changed {
			last = orders
			callback(snap)
		}
	}
}

// drain discards queued changes; one reload covers them all.
func drain(changes <-chan models.OrderChange) {
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// diff compares two pending sets by id and updated_at.
func diff(prev, next []models.Order) (Snapshot, bool) {
	seen := make(map[string]time.Time, len(prev))
	for _, o := range prev {
		seen[o.ID] = o.UpdatedAt
	}

	snap := Snapshot{Orders: next, Added: []models.Order{}, Removed: []string{}}
	changed := len(prev) != len(next)
	present := make(map[string]struct{}, len(next))
	for _, o := range next {
		present[o.ID] = struct{}{}
		at, ok := seen[o.ID]
		if !ok {
			snap.Added = append(snap.Added, o)
			changed = true
		} else if !at.Equal(o.UpdatedAt) {
			changed = true
		}
	}
	for _, o := range prev {
		if _, ok := present[o.ID]; !ok {
			snap.Removed = append(snap.Removed, o.ID)
			changed = true
		}
	}
	return snap, changed
}
