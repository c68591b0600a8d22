package usecase_test

import (
	"context"
	"testing"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogUC_RegisterProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})

	minStock := int64(3)
	res, err := f.catalogUC.RegisterProduct(ctx, usecase.NewRegisterProductReq(" Pan ", "Panadería", 250, 20, &minStock, nil))
	require.NoError(t, err)
	assert.False(t, res.NoChanges)
	assert.Equal(t, "Pan", res.Product.Name)
	assert.Equal(t, "Panadería", res.Product.CategoryName)

	again, err := f.catalogUC.RegisterProduct(ctx, usecase.NewRegisterProductReq("Pan", "Panadería", 250, 20, &minStock, nil))
	require.NoError(t, err)
	assert.True(t, again.NoChanges)
	assert.Equal(t, res.Product.ID, again.Product.ID)

	for _, req := range []struct {
		req *usecase.RegisterProductReq
		err error
	}{
		{usecase.NewRegisterProductReq("", "Panadería", 250, 1, nil, nil), e.ErrProductNameRequired},
		{usecase.NewRegisterProductReq("Pan", " ", 250, 1, nil, nil), e.ErrCategoryRequired},
		{usecase.NewRegisterProductReq("Pan", "Panadería", -1, 1, nil, nil), e.ErrInvalidPrice},
		{usecase.NewRegisterProductReq("Pan", "Panadería", 250, -1, nil, nil), e.ErrInvalidStock},
	} {
		_, err := f.catalogUC.RegisterProduct(ctx, req.req)
		require.ErrorIs(t, err, req.err)
	}
}

func TestCatalogUC_RegisterInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, domain.Product{ID: 1, Name: "Pan", Price: 250, Stock: 1, CategoryID: 1})

	product, err := f.catalogUC.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), product.Stock)

	_, err = f.catalogUC.RegisterProduct(ctx, usecase.NewRegisterProductReq("Pan", "Panadería", 250, 30, nil, nil))
	require.NoError(t, err)

	product, err = f.catalogUC.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), product.Stock)
}

func TestCatalogUC_LowStockAndRefresh(t *testing.T) {
	ctx := context.Background()
	minStock := int64(2)
	f := newFixture(t, fixtureOpts{},
		domain.Product{ID: 1, Name: "Pan", Stock: 9},
		domain.Product{ID: 2, Name: "Sal", Stock: 3, MinStock: &minStock},
		domain.Product{ID: 3, Name: "Arroz", Stock: 40},
	)

	low, err := f.catalogUC.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(1), low[0].ID)

	n, err := f.catalogUC.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cached, err := f.cache.GetProducts(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, cached, 3)
}
