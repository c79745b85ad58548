package cache

import (
	"context"
	"testing"
	"time"

	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/pkg/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled: true,
		Backend: BackendMemory,
		MaxSize: 2,
		TTL:     time.Minute,
	}
}

func TestNewDisabled(t *testing.T) {
	store, err := New(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(config.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)
}

func TestPromptKey(t *testing.T) {
	a := PromptKey("user-1", "system", "user")
	assert.Equal(t, a, PromptKey("user-1", "system", "user"))
	assert.NotEqual(t, a, PromptKey("user-1", "system", "other"))
	assert.NotEqual(t, a, PromptKey("user-2", "system", "user"))
	assert.NotEqual(t, PromptKey("u", "ab", "c"), PromptKey("u", "a", "bc"))
}

func TestManagerGetSet(t *testing.T) {
	m := NewManager(memoryConfig())
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "k", "v"))
	value, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}

func TestManagerExpiry(t *testing.T) {
	cfg := memoryConfig()
	cfg.TTL = time.Millisecond
	m := NewManager(cfg)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v"))
	time.Sleep(5 * time.Millisecond)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	m := NewManager(memoryConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	value, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := New(config.CacheConfig{
		Enabled:   true,
		Backend:   BackendRedis,
		RedisAddr: mr.Addr(),
		TTL:       time.Hour,
	})
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, store.Set(ctx, "k", `{"recipes":[]}`))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"recipes":[]}`, value)
	assert.True(t, mr.Exists(redisKeyPrefix+"k"))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(config.CacheConfig{Enabled: true, Backend: BackendRedis, RedisAddr: addr})
	assert.Error(t, err)
}
