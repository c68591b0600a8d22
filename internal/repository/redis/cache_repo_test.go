package redis

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/minimarket/internal/cfg"
	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/repository/redis/converter"
	"github.com/DRSN-tech/minimarket/pkg/clients"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisCfg := &cfg.RedisCfg{Addr: mr.Addr(), ProductTTL: time.Minute, DialTimeout: time.Second, Timeout: time.Second}
	client, err := clients.NewRedisClient(context.Background(), redisCfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewCacheRepo(client, converter.ProductConverterImpl{}, redisCfg, logger.NewNopLogger()), mr
}

func TestCacheRepo_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	minStock := int64(4)

	err := cache.SetProducts(ctx, []domain.Product{
		{ID: 1, Name: "Pan", Price: 250, Stock: 5, MinStock: &minStock, CategoryName: "Panadería"},
		{ID: 2, Name: "Leche", Price: 1999, Stock: 10},
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists("minimarket:product:1"))

	got, err := cache.GetProducts(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[1].Stock)
	assert.Equal(t, int64(4), *got[1].MinStock)
	assert.Equal(t, "Panadería", got[1].CategoryName)

	require.NoError(t, cache.DeleteProducts(ctx, []int64{1}))
	got, err = cache.GetProducts(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCacheRepo_TTLExpires(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	require.NoError(t, cache.SetProducts(ctx, []domain.Product{{ID: 1, Name: "Pan"}}))
	mr.FastForward(2 * time.Minute)

	got, err := cache.GetProducts(ctx, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCacheRepo_CorruptedEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	require.NoError(t, mr.Set("minimarket:product:1", "{not json"))
	require.NoError(t, mr.Set("minimarket:product:2", `{"id": 3, "name": "Sal"}`))

	got, err := cache.GetProducts(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, mr.Exists("minimarket:product:2"))
}

func TestCacheRepo_EmptyInput(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	got, err := cache.GetProducts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, cache.SetProducts(ctx, nil))
	require.NoError(t, cache.DeleteProducts(ctx, nil))
}

func TestCacheRepo_StoreDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	mr.Close()

	_, err := cache.GetProducts(ctx, []int64{1})
	require.Error(t, err)
}
