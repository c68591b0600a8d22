package usecase_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1)
	cartID := f.newCart(t)

	view, err := f.cartUC.AddItem(ctx, cartID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(750), view.Total)

	_, err = f.cartUC.SetQuantity(ctx, cartID, 1, 6)
	require.ErrorIs(t, err, e.ErrInsufficientStock)

	view, err = f.cartUC.Get(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(3), view.Lines[0].Quantity)

	sale, err := f.cartUC.Checkout(ctx, cartID, ana())
	require.NoError(t, err)
	assert.Equal(t, "7.50", money.Format(sale.Total))
	assert.Equal(t, int64(2), f.stockOf(t, 1))
	assert.Equal(t, 1, f.sales.Len())

	view, err = f.cartUC.Get(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.Total)
}

func TestCheckout_PreconditionsKeepCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1)
	cartID := f.newCart(t)

	_, err := f.cartUC.Checkout(ctx, cartID, ana())
	require.ErrorIs(t, err, e.ErrEmptyCart)

	_, err = f.cartUC.AddItem(ctx, cartID, 1, 2)
	require.NoError(t, err)

	_, err = f.cartUC.Checkout(ctx, cartID, domain.NewCustomer("Ana", "  "))
	require.ErrorIs(t, err, e.ErrMissingCustomerInfo)

	view, err := f.cartUC.Get(ctx, cartID)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, int64(5), f.stockOf(t, 1))
	assert.Zero(t, f.sales.Len())
}

func TestCommit_RevalidatesFreshStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1)
	cartID := f.newCart(t)

	_, err := f.cartUC.AddItem(ctx, cartID, 1, 4)
	require.NoError(t, err)

	// другая касса продала часть остатка
	_, err = f.catalog.DecrementStock(ctx, 1, 3)
	require.NoError(t, err)

	_, err = f.cartUC.Checkout(ctx, cartID, ana())
	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.ProductID)
	assert.Equal(t, int64(4), stockErr.Requested)
	assert.Equal(t, int64(2), stockErr.Available)
	assert.Equal(t, int64(2), f.stockOf(t, 1))
}

func TestCommit_RollbackOnConflict(t *testing.T) {
	ctx := context.Background()
	stock := &failingStock{failOn: 2, err: e.NewInsufficientStock(2, "P2", 1, 0)}
	f := newFixture(t, fixtureOpts{stock: stock}, p1, p2)
	stock.CatalogRepo = f.catalog

	lines := []domain.CartLine{
		{ProductID: 1, Name: "P1", UnitPrice: 250, Quantity: 2},
		{ProductID: 2, Name: "P2", UnitPrice: 1999, Quantity: 1},
	}

	_, err := f.commitUC.Commit(ctx, lines, ana())
	require.ErrorIs(t, err, e.ErrCommitConflict)
	require.ErrorIs(t, err, e.ErrInsufficientStock)

	var conflict *e.CommitConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.ProductID)

	assert.Equal(t, int64(5), f.stockOf(t, 1))
	assert.Equal(t, int64(10), f.stockOf(t, 2))
	assert.Zero(t, f.sales.Len())
}

func TestCommit_RollbackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	lines := []domain.CartLine{
		{ProductID: 1, Name: "P1", UnitPrice: 250, Quantity: 2},
		{ProductID: 2, Name: "P2", UnitPrice: 1999, Quantity: 3},
	}

	t.Run("decrement", func(t *testing.T) {
		stock := &failingStock{failOn: 2, err: errors.New("connection reset")}
		f := newFixture(t, fixtureOpts{stock: stock}, p1, p2)
		stock.CatalogRepo = f.catalog

		_, err := f.commitUC.Commit(ctx, lines, ana())
		require.ErrorIs(t, err, e.ErrStoreUnavailable)
		assert.Equal(t, int64(5), f.stockOf(t, 1))
		assert.Equal(t, int64(10), f.stockOf(t, 2))
		assert.Zero(t, f.sales.Len())
	})

	t.Run("ledger append", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{ledger: &failingLedger{}}, p1, p2)

		_, err := f.commitUC.Commit(ctx, lines, ana())
		require.ErrorIs(t, err, e.ErrStoreUnavailable)
		assert.Equal(t, int64(5), f.stockOf(t, 1))
		assert.Equal(t, int64(10), f.stockOf(t, 2))
	})
}

func TestCommit_UnknownProduct(t *testing.T) {
	f := newFixture(t, fixtureOpts{}, p1)

	_, err := f.commitUC.Commit(context.Background(), []domain.CartLine{
		{ProductID: 99, Name: "ghost", UnitPrice: 100, Quantity: 1},
	}, ana())

	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Zero(t, stockErr.Available)
}

func TestCommit_OverflowRejectedWithoutSideEffects(t *testing.T) {
	f := newFixture(t, fixtureOpts{}, p1)

	_, err := f.commitUC.Commit(context.Background(), []domain.CartLine{
		{ProductID: 1, Name: "P1", UnitPrice: math.MaxInt64 / 2, Quantity: 3},
	}, ana())
	require.ErrorIs(t, err, e.ErrAmountOverflow)
	assert.Equal(t, int64(5), f.stockOf(t, 1))
	assert.Zero(t, f.sales.Len())
}

func TestCheckout_RaceForLastUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, domain.Product{ID: 1, Name: "P1", Price: 250, Stock: 1})

	carts := []string{f.newCart(t), f.newCart(t)}
	for _, id := range carts {
		_, err := f.cartUC.AddItem(ctx, id, 1, 1)
		require.NoError(t, err)
	}

	errs := make([]error, len(carts))
	var wg sync.WaitGroup
	for i, id := range carts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.cartUC.Checkout(ctx, id, ana())
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, e.ErrInsufficientStock)
	}

	assert.Equal(t, 1, succeeded)
	assert.Zero(t, f.stockOf(t, 1))
	assert.Equal(t, 1, f.sales.Len())
}

func TestCommit_ConcurrentSalesNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, domain.Product{ID: 1, Name: "P1", Price: 250, Stock: 25}, p2)

	var sold atomic.Int64
	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			qty := int64(i%3 + 1)
			lines := []domain.CartLine{
				{ProductID: 2, Name: "P2", UnitPrice: 1999, Quantity: 1},
				{ProductID: 1, Name: "P1", UnitPrice: 250, Quantity: qty},
			}
			if _, err := f.commitUC.Commit(ctx, lines, ana()); err == nil {
				sold.Add(qty)
			}
		}()
	}
	wg.Wait()

	stock := f.stockOf(t, 1)
	assert.GreaterOrEqual(t, stock, int64(0))
	assert.Equal(t, int64(25)-sold.Load(), stock)
	assert.GreaterOrEqual(t, f.stockOf(t, 2), int64(0))
	assert.Equal(t, int64(10-f.sales.Len()), f.stockOf(t, 2))
}

func TestCheckout_PriceSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1)
	cartID := f.newCart(t)

	_, err := f.cartUC.AddItem(ctx, cartID, 1, 2)
	require.NoError(t, err)
	require.NoError(t, f.catalog.SetPrice(1, 999))

	sale, err := f.cartUC.Checkout(ctx, cartID, ana())
	require.NoError(t, err)
	assert.Equal(t, int64(250), sale.Items[0].UnitPrice)
	assert.Equal(t, int64(500), sale.Total)

	require.NoError(t, f.catalog.SetPrice(1, 1))
	stored, err := f.saleUC.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), stored.Items[0].UnitPrice)
}

func TestCheckout_InvalidatesCachedStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{}, p1)

	first := f.newCart(t)
	_, err := f.cartUC.AddItem(ctx, first, 1, 3)
	require.NoError(t, err)
	_, err = f.cartUC.Checkout(ctx, first, ana())
	require.NoError(t, err)

	second := f.newCart(t)
	_, err = f.cartUC.AddItem(ctx, second, 1, 3)
	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.Available)
}
