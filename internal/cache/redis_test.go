package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subbers/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := InitServer(context.Background(), config.Redis{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	require.NoError(t, cache.Set(ctx, "user:1", expected, time.Minute))

	var actual testStruct
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", "v", time.Second))
	mr.FastForward(2 * time.Second)

	var out string
	found, err := cache.Get(ctx, "short", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "key"))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set("bad", "not-json"))

	var out testStruct
	found, err := cache.Get(context.Background(), "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestTryLock(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	unlock, err := cache.TryLock(ctx, "lock:sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:sweep"))

	_, err = cache.TryLock(ctx, "lock:sweep", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("lock:sweep"))

	again, err := cache.TryLock(ctx, "lock:sweep", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestTryLock_UnlockDoesNotReleaseForeignLock(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	unlock, err := cache.TryLock(ctx, "lock:sweep", time.Second)
	require.NoError(t, err)

	// блокировка истекла и захвачена другим процессом
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lock:sweep", "other-owner"))

	require.NoError(t, unlock(ctx))
	got, err := mr.Get("lock:sweep")
	require.NoError(t, err)
	assert.Equal(t, "other-owner", got)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cache, err := InitServer(context.Background(), config.Redis{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var n Noop
	ctx := context.Background()

	require.NoError(t, n.Set(ctx, "k", "v", time.Minute))
	var out string
	found, err := n.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, n.Invalidate(ctx, "k"))
}

func TestReady(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, cache.Ready(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ready(context.Background()))
}
