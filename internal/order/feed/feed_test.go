package feed

import (
	"context"
	"testing"
	"time"

	"cafe-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan models.OrderChange) models.OrderChange {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for order change")
	}
	return models.OrderChange{}
}

func TestLocal_BroadcastsToEveryListener(t *testing.T) {
	f := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := f.Listen(ctx)
	require.NoError(t, err)
	b, err := f.Listen(ctx)
	require.NoError(t, err)

	change := models.OrderChange{Type: models.OrderCreated, OrderID: "o1", Status: models.OrderStatusPending}
	require.NoError(t, f.Publish(ctx, change))

	assert.Equal(t, "o1", receive(t, a).OrderID)
	assert.Equal(t, "o1", receive(t, b).OrderID)
}

func TestLocal_ListenerRemovedOnCancel(t *testing.T) {
	f := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := f.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.ListenerCount())

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("listener channel was not closed")
	}
	assert.Equal(t, 0, f.ListenerCount())
	assert.NoError(t, f.Publish(context.Background(), models.OrderChange{OrderID: "o2"}))
}

func TestLocal_SlowListenerDoesNotBlockPublish(t *testing.T) {
	f := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := f.Listen(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < listenerBuffer*3; i++ {
			_ = f.Publish(ctx, models.OrderChange{OrderID: "o"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full listener")
	}
}

func TestDecodeChange(t *testing.T) {
	change, err := decodeChange([]byte(`{"type":"updated","orderId":"o9","status":"preparing"}`))
	require.NoError(t, err)
	assert.Equal(t, models.OrderUpdated, change.Type)
	assert.Equal(t, models.OrderStatusPreparing, change.Status)

	_, err = decodeChange([]byte(`{"type":"updated"}`))
	assert.Error(t, err)

	_, err = decodeChange([]byte(`not json`))
	assert.Error(t, err)
}
