package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "guest_cart.json")
	slot := NewFileSlot(path)

	data, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, data, "missing file reads as empty slot")

	require.NoError(t, slot.Write(ctx, []byte(`[{"productId":"a","quantity":1}]`)))
	data, err = slot.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"a","quantity":1}]`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, slot.Delete(ctx))
	require.NoError(t, slot.Delete(ctx), "deleting an empty slot is not an error")
	data, err = slot.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFileSlotWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	slot := NewFileSlot(filepath.Join(blocker, "cart.json"))
	assert.Error(t, slot.Write(context.Background(), []byte("[]")))
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	slot := NewRedisSlot(client, "g1", time.Hour)

	data, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, slot.Write(ctx, []byte(`[]`)))
	assert.True(t, mr.Exists("guest_cart:g1"))
	assert.Equal(t, time.Hour, mr.TTL("guest_cart:g1"))

	data, err = slot.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	require.NoError(t, slot.Delete(ctx))
	assert.False(t, mr.Exists("guest_cart:g1"))
}

func TestRedisSlotExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	slot := NewRedisSlot(client, "g1", time.Minute)

	require.NoError(t, slot.Write(ctx, []byte(`[]`)))
	mr.FastForward(2 * time.Minute)

	data, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisSlotUnavailable(t *testing.T) {
	mr, client := setupRedis(t)
	slot := NewRedisSlot(client, "g1", time.Minute)
	mr.Close()

	_, err := slot.Read(context.Background())
	assert.Error(t, err)
}
