package cache

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedis_SetGetWithPrefix(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedis(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "product_1", []byte(`{"id":"1"}`), 0))

	assert.True(t, mr.Exists("cafe:cache:product_1"))
	assert.Equal(t, time.Minute, mr.TTL("cafe:cache:product_1"))

	val, ok, err := r.Get(ctx, "product_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"1"}`, string(val))
}

func TestRedis_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedis(client, 0)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("v"), 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_DeletePatternOnlyTouchesPrefix(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedis(client, 0)
	ctx := context.Background()

	require.NoError(t, mr.Set("products_by_category_x", "foreign"))
	for _, k := range []string{"products_by_category_a", "products_by_category_b", "all_products"} {
		require.NoError(t, r.Set(ctx, k, []byte("x"), 0))
	}

	require.NoError(t, r.DeletePattern(ctx, regexp.MustCompile(`^products_by_category_`)))

	assert.False(t, mr.Exists("cafe:cache:products_by_category_a"))
	assert.False(t, mr.Exists("cafe:cache:products_by_category_b"))
	assert.True(t, mr.Exists("cafe:cache:all_products"))
	assert.True(t, mr.Exists("products_by_category_x"))
}

func TestRedis_Clear(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedis(client, 0)
	ctx := context.Background()

	require.NoError(t, mr.Set("unrelated", "keep"))
	require.NoError(t, r.Set(ctx, "a", []byte("x"), 0))
	require.NoError(t, r.Delete(ctx))
	require.NoError(t, r.Clear(ctx))

	assert.False(t, mr.Exists("cafe:cache:a"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedis_BackendDownIsError(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedis(client, 0)
	mr.Close()

	_, ok, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}
