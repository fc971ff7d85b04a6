package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetOrLoadJSONCachesValue(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) (*item, error) {
		loads++
		return &item{Name: "phone"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrLoadJSON(c, ctx, "product:1", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "phone", got.Name)
	}
	assert.Equal(t, 1, loads)
	assert.True(t, mr.Exists("gadget-store:product:1"))
}

func TestGetOrLoadJSONDoesNotCacheErrors(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("boom")

	_, err := GetOrLoadJSON(c, context.Background(), "product:2", time.Minute, func(context.Context) (*item, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("gadget-store:product:2"))
}

func TestInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	_, err := GetOrLoadJSON(c, ctx, "products:active", time.Minute, func(context.Context) (*item, error) {
		return &item{Name: "x"}, nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, "products:active", "product:missing"))
	assert.False(t, mr.Exists("gadget-store:products:active"))
	assert.NoError(t, c.Invalidate(ctx))
}

func TestNilCacheLoadsDirectly(t *testing.T) {
	var c *Cache
	got, err := GetOrLoadJSON(c, context.Background(), "k", time.Minute, func(context.Context) (*item, error) {
		return &item{Name: "direct"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Name)
}

func TestRedisDownFallsBackToLoader(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	got, err := GetOrLoadJSON(c, context.Background(), "k", time.Minute, func(context.Context) (*item, error) {
		return &item{Name: "db"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "db", got.Name)
}

func TestGetOrLoadJSONSkipsNil(t *testing.T) {
	c, mr := newTestCache(t)
	got, err := GetOrLoadJSON(c, context.Background(), "product:gone", time.Minute, func(context.Context) (*item, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("gadget-store:product:gone"))
}

func TestGetOrLoadJSONHealsUndecodableEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("gadget-store:product:3", `{"name":`))

	got, err := GetOrLoadJSON(c, context.Background(), "product:3", time.Minute, func(context.Context) (*item, error) {
		return &item{Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)

	raw, err := mr.Get("gadget-store:product:3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"fresh"}`, raw)
}
