package notifier

import (
	"context"
	"testing"
	"time"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/order/feed"
	"cafe-pos/internal/sse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockActions is a mock implementation of the OrderActions interface
type MockActions struct {
	mock.Mock
}

func (m *MockActions) Accept(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockActions) Reject(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func nextEvent(t *testing.T, ch <-chan sse.Event) sse.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for board event")
	}
	return sse.Event{}
}

func TestBoard_BroadcastsPendingAndNewOrders(t *testing.T) {
	src := &fakeSource{}
	src.set(pending("a", 0))
	f := feed.NewLocal()
	board := NewBoard(New(src, f, time.Hour, logger.NewNopLogger()), new(MockActions), logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, board.Start(ctx))
	defer board.Stop()

	events, current := board.Subscribe(ctx)
	assert.Equal(t, 1, current.Count)
	assert.Equal(t, 1, board.ClientCount())

	src.set(pending("a", 0), pending("b", 1))
	require.NoError(t, f.Publish(ctx, models.OrderChange{Type: models.OrderCreated, OrderID: "b"}))

	ev := nextEvent(t, events)
	assert.Equal(t, EventPending, ev.Name)
	assert.Equal(t, []string{"a", "b"}, ids(ev.Data.(PendingPayload).Orders))

	ev = nextEvent(t, events)
	assert.Equal(t, EventNewOrders, ev.Name)
	assert.Equal(t, []string{"b"}, ids(ev.Data.(NewOrdersPayload).Orders))
}

func TestBoard_AcceptRemovesOptimistically(t *testing.T) {
	src := &fakeSource{}
	src.set(pending("a", 0), pending("b", 1))
	actions := new(MockActions)
	accepted := pending("a", 0)
	accepted.Status = models.OrderStatusPreparing
	actions.On("Accept", mock.Anything, "a").Return(&accepted, nil)
	actions.On("Reject", mock.Anything, "b").Return(nil, models.ErrInvalidTransition)

	// a feed nobody publishes on, so only the optimistic path can change the view
	board := NewBoard(New(src, feed.NewLocal(), time.Hour, logger.NewNopLogger()), actions, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, board.Start(ctx))
	defer board.Stop()

	events, _ := board.Subscribe(ctx)

	got, err := board.Accept(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, got.Status)
	assert.Equal(t, []string{"b"}, ids(board.Pending()))

	ev := nextEvent(t, events)
	assert.Equal(t, EventPending, ev.Name)
	assert.Equal(t, 1, ev.Data.(PendingPayload).Count)

	_, err = board.Reject(ctx, "b")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, []string{"b"}, ids(board.Pending()))
	actions.AssertExpectations(t)
}

func TestBoard_StartIsIdempotent(t *testing.T) {
	f := feed.NewLocal()
	board := NewBoard(New(&fakeSource{}, f, time.Hour, logger.NewNopLogger()), new(MockActions), logger.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, board.Start(ctx))
	require.NoError(t, board.Start(ctx))
	assert.Equal(t, 1, f.ListenerCount())

	board.Stop()
	board.Stop()
	assert.Eventually(t, func() bool { return f.ListenerCount() == 0 }, time.Second, 10*time.Millisecond)
}
