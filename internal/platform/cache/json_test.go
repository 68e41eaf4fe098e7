package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *JSONCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSONCache(client, "test", time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	key, err := c.BuildKey(ctx, "numbers")
	require.NoError(t, err)
	assert.Equal(t, "test:numbers:v1", key)

	var first, second []int
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, []int{1, 2, 3}, second)
	assert.Equal(t, 1, calls)
}

func TestBumpInvalidatesKeys(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	before, err := c.BuildKey(ctx, "board")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.BuildKey(ctx, "board")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestNilClientFallsThrough(t *testing.T) {
	c := NewJSONCache(nil, "test", time.Minute)
	var out map[string]int
	err := c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return map[string]int{"a": 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out["a"])
	assert.NoError(t, c.Bump(context.Background()))
}
