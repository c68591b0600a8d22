package usecase_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartUC_RemoveItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1, p2)
	cartID := f.newCart(t)

	_, err := f.cartUC.AddItem(ctx, cartID, 1, 1)
	require.NoError(t, err)
	_, err = f.cartUC.AddItem(ctx, cartID, 2, 2)
	require.NoError(t, err)

	before, err := f.cartUC.Get(ctx, cartID)
	require.NoError(t, err)

	after, err := f.cartUC.RemoveItem(ctx, cartID, 42)
	require.NoError(t, err)
	assert.Equal(t, before.Lines, after.Lines)
	assert.Equal(t, before.Total, after.Total)

	view, err := f.cartUC.RemoveItem(ctx, cartID, 1)
	require.NoError(t, err)
	view, err = f.cartUC.RemoveItem(ctx, cartID, 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(2*1999), view.Total)
}

func TestCartUC_AddItemErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1)
	cartID := f.newCart(t)

	_, err := f.cartUC.AddItem(ctx, cartID, 1, 0)
	require.ErrorIs(t, err, e.ErrInvalidQuantity)

	_, err = f.cartUC.AddItem(ctx, cartID, 404, 1)
	require.ErrorIs(t, err, e.ErrProductNotFound)

	_, err = f.cartUC.AddItem(ctx, "no-such-cart", 1, 1)
	require.ErrorIs(t, err, e.ErrCartNotFound)

	_, err = f.cartUC.AddItem(ctx, cartID, 1, 4)
	require.NoError(t, err)
	_, err = f.cartUC.AddItem(ctx, cartID, 1, 2)
	require.ErrorIs(t, err, e.ErrInsufficientStock)

	_, err = f.cartUC.SetQuantity(ctx, cartID, 2, 1)
	require.ErrorIs(t, err, e.ErrCartLineNotFound)

	// редактирование корзины не трогает каталог
	assert.Equal(t, int64(5), f.stockOf(t, 1))
}

func TestCartUC_ClearAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1)
	cartID := f.newCart(t)

	_, err := f.cartUC.AddItem(ctx, cartID, 1, 2)
	require.NoError(t, err)

	view, err := f.cartUC.Clear(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	require.NoError(t, f.cartUC.Delete(ctx, cartID))
	require.ErrorIs(t, f.cartUC.Delete(ctx, cartID), e.ErrCartNotFound)

	_, err = f.cartUC.Get(ctx, cartID)
	require.ErrorIs(t, err, e.ErrCartNotFound)
	assert.Equal(t, int64(5), f.stockOf(t, 1))
}

func TestCartUC_PurgeIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1)

	idle := f.newCart(t)
	active := f.newCart(t)
	require.Equal(t, 2, f.cartUC.Len())

	assert.Zero(t, f.cartUC.PurgeIdle(time.Now()))

	later := time.Now().Add(2 * time.Hour)
	assert.Equal(t, 2, f.cartUC.PurgeIdle(later))
	assert.Zero(t, f.cartUC.Len())

	_, err := f.cartUC.Get(ctx, idle)
	require.ErrorIs(t, err, e.ErrCartNotFound)
	_, err = f.cartUC.Get(ctx, active)
	require.ErrorIs(t, err, e.ErrCartNotFound)
}

func TestCartUC_OverflowKeepsCartReadable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{},
		domain.Product{ID: 1, Name: "Caro", Price: math.MaxInt64 / 2, Stock: 10},
		domain.Product{ID: 2, Name: "Muy caro", Price: math.MaxInt64 / 2, Stock: 10},
	)
	cartID := f.newCart(t)

	_, err := f.cartUC.AddItem(ctx, cartID, 1, 1)
	require.NoError(t, err)
	_, err = f.cartUC.AddItem(ctx, cartID, 2, 2)
	require.ErrorIs(t, err, e.ErrAmountOverflow)

	view, err := f.cartUC.Get(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(1), view.Lines[0].ProductID)
	assert.Equal(t, int64(math.MaxInt64/2), view.Total)
}
