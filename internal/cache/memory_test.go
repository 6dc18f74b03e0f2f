package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheProcessed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test:")

	ok, err := c.IsProcessed(ctx, "abc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.MarkProcessed(ctx, "abc", time.Hour))
	ok, err = c.IsProcessed(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.SetJSON(ctx, "meta", map[string]string{"a": "b"}, 0))
	require.NoError(t, c.ClearProcessed(ctx))

	ok, _ = c.IsProcessed(ctx, "abc")
	require.False(t, ok)

	var got map[string]string
	require.NoError(t, c.GetJSON(ctx, "meta", &got), "clearing processed keys keeps other entries")
	require.Equal(t, "b", got["a"])
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("")
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.MarkProcessed(ctx, "h", time.Minute))
	require.NoError(t, c.SetJSON(ctx, "k", 42, time.Minute))

	now = now.Add(2 * time.Minute)

	ok, err := c.IsProcessed(ctx, "h")
	require.NoError(t, err)
	require.False(t, ok)

	var v int
	require.ErrorIs(t, c.GetJSON(ctx, "k", &v), ErrMiss)
}

func TestMemoryCacheJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("p:")
	type meta struct {
		URL   string
		Image string
	}
	require.NoError(t, c.SetJSON(ctx, "m", meta{URL: "u", Image: "i"}, time.Hour))

	var got meta
	require.NoError(t, c.GetJSON(ctx, "m", &got))
	require.Equal(t, meta{URL: "u", Image: "i"}, got)

	require.ErrorIs(t, c.GetJSON(ctx, "missing", &got), ErrMiss)
}
