package memory

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSale(t *testing.T, id string, at time.Time, customer string) *domain.Sale {
	t.Helper()

	sale, err := domain.NewSale(id, at, domain.NewCustomer(customer, "doc-"+customer), []domain.CartLine{
		{ProductID: 1, Name: "Pan", UnitPrice: 250, Quantity: 2},
	})
	require.NoError(t, err)
	return sale
}

func TestSaleRepo_AppendIsolatesStoredSale(t *testing.T) {
	ctx := context.Background()
	repo := NewSaleRepo()
	sale := newTestSale(t, "s1", time.Now(), "Ana")

	require.NoError(t, repo.Append(ctx, sale))
	sale.Items[0].Quantity = 99

	stored, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Items[0].Quantity)

	stored.Items[0].Quantity = 77
	stored, _ = repo.GetByID(ctx, "s1")
	assert.Equal(t, int64(2), stored.Items[0].Quantity)

	require.Error(t, repo.Append(ctx, sale))
	assert.Equal(t, 1, repo.Len())

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, e.ErrSaleNotFound)
}

func TestSaleRepo_ListOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewSaleRepo()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, newTestSale(t, "s1", base, "Ana")))
	require.NoError(t, repo.Append(ctx, newTestSale(t, "s2", base.Add(2*time.Hour), "Luis")))
	require.NoError(t, repo.Append(ctx, newTestSale(t, "s3", base.Add(time.Hour), "Ana María")))
	require.NoError(t, repo.Append(ctx, newTestSale(t, "s4", base.AddDate(0, 0, 1), "Pedro")))

	all, err := repo.List(ctx, usecase.SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"s4", "s2", "s3", "s1"}, saleIDs(all))

	from, to := usecase.DayRange(base)
	day, err := repo.List(ctx, usecase.SaleFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s3", "s1"}, saleIDs(day))

	ana, err := repo.List(ctx, usecase.SaleFilter{Customer: "ana"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s3", "s1"}, saleIDs(ana))

	byDoc, err := repo.List(ctx, usecase.SaleFilter{Customer: "doc-pedro"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s4"}, saleIDs(byDoc))

	page, err := repo.List(ctx, usecase.SaleFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s3"}, saleIDs(page))

	empty, err := repo.List(ctx, usecase.SaleFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func saleIDs(sales []domain.Sale) []string {
	ids := make([]string, 0, len(sales))
	for _, s := range sales {
		ids = append(ids, s.ID)
	}
	return ids
}
