package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ppiankov/glosshover/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisTest(t *testing.T) *miniredis.Miniredis {
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to create miniredis")
	t.Cleanup(mr.Close)
	return mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	mr := setupRedisTest(t)

	c, err := NewRedisCache(mr.Addr(), 0, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	key := Key("doc")
	require.NoError(t, c.Set(key, []byte("<p>x</p>"), 0))

	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "<p>x</p>", string(got))
	assert.Equal(t, time.Minute, mr.TTL(key), "Zero ttl should use the default")

	require.NoError(t, c.Delete(key))
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr := setupRedisTest(t)

	c, err := NewRedisCache(mr.Addr(), 0, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("k", []byte("v"), 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok, "Entry should expire")
}

func TestRedisCache_ClearKeepsForeignKeys(t *testing.T) {
	mr := setupRedisTest(t)
	require.NoError(t, mr.Set("other:key", "keep"))

	c, err := NewRedisCache(mr.Addr(), 0, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(Key("a"), []byte("1"), 0))
	require.NoError(t, c.Set(Key("b"), []byte("2"), 0))
	require.NoError(t, c.Clear())

	assert.False(t, mr.Exists(Key("a")))
	assert.False(t, mr.Exists(Key("b")))
	assert.True(t, mr.Exists("other:key"))
}

func TestNew_Redis(t *testing.T) {
	mr := setupRedisTest(t)

	c, err := New(model.CacheConfig{Enabled: true, Backend: "redis", RedisAddr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := setupRedisTest(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(addr, 0, time.Minute)
	assert.Error(t, err)
}
