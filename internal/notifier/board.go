package notifier

import (
	"context"
	"fmt"
	"sync"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/metrics"
	"cafe-pos/internal/models"
	"cafe-pos/internal/sse"
)

const (
	EventPending   = "pending"
	EventNewOrders = "new-orders"
)

type OrderActions interface {
	Accept(ctx context.Context, id string) (*models.Order, error)
	Reject(ctx context.Context, id string) (*models.Order, error)
}

type PendingPayload struct {
	Orders []models.Order `json:"orders"`
	Count  int            `json:"count"`
}

type NewOrdersPayload struct {
	Orders []models.Order `json:"orders"`
	Count  int            `json:"count"`
}

// Board is the server side of the cashier pending-orders screen. It holds one notifier
// subscription and fans the view out to every connected terminal.
type Board struct {
	notifier *Notifier
	actions  OrderActions
	view     *PendingView
	emitter  *sse.Emitter
	logger   *logger.Logger

	mu          sync.Mutex
	unsubscribe func()
}

func NewBoard(n *Notifier, actions OrderActions, log *logger.Logger) *Board {
	return &Board{
		notifier: n,
		actions:  actions,
		view:     NewPendingView(),
		emitter:  sse.NewEmitter(16),
		logger:   log,
	}
}

func (b *Board) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		return nil
	}

	unsubscribe, err := b.notifier.Subscribe(ctx, b.onSnapshot)
	if err != nil {
		return fmt.Errorf("start pending board: %w", err)
	}
	b.unsubscribe = unsubscribe
	b.logger.Info("NOTIFIER", fmt.Sprintf("Pending board started with %d orders", b.view.Len()))
	return nil
}

func (b *Board) Stop() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		b.logger.Info("NOTIFIER", "Pending board stopped")
	}
}

func (b *Board) onSnapshot(s Snapshot) {
	b.view.Apply(s)
	b.broadcastPending()

	if s.HasNewOrders() {
		b.logger.Info("NOTIFIER", fmt.Sprintf("%d new order(s) pending", len(s.Added)))
		b.emitter.Broadcast(sse.Event{
			Name: EventNewOrders,
			Data: NewOrdersPayload{Orders: s.Added, Count: len(s.Added)},
		})
	}
}

func (b *Board) broadcastPending() {
	orders := b.view.Orders()
	metrics.PendingOrders.Set(float64(len(orders)))
	b.emitter.Broadcast(sse.Event{Name: EventPending, Data: PendingPayload{Orders: orders, Count: len(orders)}})
}

// Accept moves the order to preparing and hides it from the board without waiting for the feed.
func (b *Board) Accept(ctx context.Context, id string) (*models.Order, error) {
	return b.act(ctx, id, b.actions.Accept)
}

// Reject cancels the order and hides it from the board without waiting for the feed.
func (b *Board) Reject(ctx context.Context, id string) (*models.Order, error) {
	return b.act(ctx, id, b.actions.Reject)
}

func (b *Board) act(ctx context.Context, id string, action func(context.Context, string) (*models.Order, error)) (*models.Order, error) {
	order, err := action(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.view.Remove(id) {
		b.broadcastPending()
	}
	return order, nil
}

func (b *Board) Pending() []models.Order {
	return b.view.Orders()
}

// Subscribe registers a terminal until ctx is done. The caller should write the returned
// current view first, then relay events from the channel.
func (b *Board) Subscribe(ctx context.Context) (<-chan sse.Event, PendingPayload) {
	events := b.emitter.Subscribe(ctx)
	metrics.BoardClients.Inc()
	go func() {
		<-ctx.Done()
		metrics.BoardClients.Dec()
	}()

	orders := b.view.Orders()
	return events, PendingPayload{Orders: orders, Count: len(orders)}
}

func (b *Board) ClientCount() int {
	return b.emitter.ClientCount()
}
