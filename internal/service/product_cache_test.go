package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gadget-store/internal/core/cache"
	"gadget-store/internal/domain"
	"gadget-store/internal/repo/memory"
)

func TestProductReadThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })

	store := memory.NewStore()
	svc := NewProductService(store.Products, c, time.Minute, zap.NewNop())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductInput{Name: "Tablet", Description: "10 inch", Price: dec("300"), Qty: intp(4)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tablet", got.Name)
	assert.True(t, mr.Exists("gadget-store:product:"+p.ID))

	// 绕过服务直接改库，缓存仍返回旧值
	renamed := "Tablet Pro"
	_, err = store.Products.Update(ctx, p.ID, domain.ProductPatch{Name: &renamed})
	require.NoError(t, err)
	got, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tablet", got.Name)

	// 走服务写入会清缓存
	_, err = svc.Update(ctx, p.ID, domain.ProductPatch{Qty: intp(9)})
	require.NoError(t, err)
	got, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tablet Pro", got.Name)
	assert.Equal(t, 9, got.Qty)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	_, err = svc.SetActive(ctx, p.ID, false)
	require.NoError(t, err)
	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// not found 不进缓存
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("gadget-store:product:missing"))
}
