// ABOUTME: Tests for the query cache TTL, invalidation and key building
// ABOUTME: Runs the same contract against the memory and badger backends
package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type payload struct {
	Names []string `json:"names"`
	Total int      `json:"total"`
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	badgerBackend, err := NewBadgerBackend("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerBackend.Close() })

	out := map[string]Backend{
		"memory": NewMemoryBackend(time.Minute),
		"badger": badgerBackend,
	}

	if addr := os.Getenv("CRMACTIVITY_TEST_REDIS_ADDR"); addr != "" {
		redisBackend, err := NewRedisBackend(context.Background(), addr, "crmactivity-test:")
		require.NoError(t, err)
		require.NoError(t, redisBackend.Clear(context.Background()))
		t.Cleanup(func() { _ = redisBackend.Close() })
		out["redis"] = redisBackend
	}
	return out
}

func TestQueryCacheRoundTrip(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{now: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)}
			c := New(backend, WithClock(clock.Now))

			var got payload
			assert.False(t, c.Get(ctx, "principals:a", &got))

			require.NoError(t, c.Set(ctx, "principals:a", payload{Names: []string{"Acme"}, Total: 1}))
			require.True(t, c.Get(ctx, "principals:a", &got))
			assert.Equal(t, payload{Names: []string{"Acme"}, Total: 1}, got)
		})
	}
}

func TestQueryCacheExpiresAfterTTL(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{now: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)}
			c := New(backend, WithClock(clock.Now))

			require.NoError(t, c.Set(ctx, "principals:ttl", payload{Total: 1}))

			clock.Advance(DefaultTTL - time.Second)
			var got payload
			assert.True(t, c.Get(ctx, "principals:ttl", &got))

			clock.Advance(time.Second)
			assert.False(t, c.Get(ctx, "principals:ttl", &got), "entry exactly TTL old is stale")

			require.NoError(t, c.Set(ctx, "principals:ttl", payload{Total: 2}))
			require.True(t, c.Get(ctx, "principals:ttl", &got))
			assert.Equal(t, 2, got.Total)
		})
	}
}

func TestQueryCacheInvalidation(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := New(backend)

			require.NoError(t, c.Set(ctx, "principals:1", payload{Total: 1}))
			require.NoError(t, c.Set(ctx, "principals:2", payload{Total: 2}))
			require.NoError(t, c.Set(ctx, "dashboards:1", payload{Total: 3}))

			var got payload
			require.NoError(t, c.Invalidate(ctx, "principals:1"))
			assert.False(t, c.Get(ctx, "principals:1", &got))
			assert.True(t, c.Get(ctx, "principals:2", &got))

			require.NoError(t, c.InvalidateCollection(ctx, "principals"))
			assert.False(t, c.Get(ctx, "principals:2", &got))
			assert.True(t, c.Get(ctx, "dashboards:1", &got))

			require.NoError(t, c.InvalidateAll(ctx))
			assert.False(t, c.Get(ctx, "dashboards:1", &got))
		})
	}
}

func TestQueryCacheUnreadableEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(time.Minute)
	c := New(backend)

	require.NoError(t, backend.Set(ctx, "principals:bad", []byte("not json"), time.Minute))
	var got payload
	assert.False(t, c.Get(ctx, "principals:bad", &got))

	require.NoError(t, c.Set(ctx, "principals:shape", []string{"a"}))
	assert.False(t, c.Get(ctx, "principals:shape", &got))
}

func TestKeyFor(t *testing.T) {
	type descriptor struct {
		Search string   `json:"search,omitempty"`
		Status []string `json:"status,omitempty"`
	}

	a := KeyFor("principals", descriptor{Search: "acme"})
	b := KeyFor("principals", descriptor{Search: "acme"})
	c := KeyFor("principals", descriptor{Search: "acme", Status: []string{}})
	d := KeyFor("dashboards", descriptor{Search: "acme"})

	assert.Equal(t, a, b)
	assert.Equal(t, a, c, "empty fields are omitted from the key")
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, "principals:")
}

func TestMemoryBackendLen(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(time.Minute)

	require.NoError(t, backend.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, backend.Set(ctx, "b", []byte("2"), time.Minute))
	assert.Equal(t, 2, backend.Len())

	require.NoError(t, backend.DeletePrefix(ctx, "a"))
	assert.Equal(t, 1, backend.Len())
}
