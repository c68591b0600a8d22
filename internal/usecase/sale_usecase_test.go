package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

func appendSales(t *testing.T, f *fixture, n int, start time.Time, price int64) []string {
	t.Helper()

	ids := make([]string, 0, n)
	for i := range n {
		sale, err := domain.NewSale(
			start.Format("0102")+"-"+string(rune('a'+i)),
			start.Add(time.Duration(i)*time.Minute),
			ana(),
			[]domain.CartLine{{ProductID: 1, Name: "P1", UnitPrice: price, Quantity: 1}},
		)
		require.NoError(t, err)
		require.NoError(t, f.sales.Append(context.Background(), sale))
		ids = append([]string{sale.ID}, ids...)
	}

	return ids
}

func collect(t *testing.T, seq func(yield func(domain.Sale, error) bool)) []string {
	t.Helper()

	ids := make([]string, 0)
	for sale, err := range seq {
		require.NoError(t, err)
		ids = append(ids, sale.ID)
	}
	return ids
}

func TestSaleUC_AllPagesAndRestarts(t *testing.T) {
	f := newFixture(t, fixtureOpts{pageSize: 2}, p1)
	want := appendSales(t, f, 5, day.Add(9*time.Hour), 100)

	seq := f.saleUC.All(context.Background(), usecase.SaleFilter{})
	assert.Equal(t, want, collect(t, seq))
	// повторный запуск начинает обход заново
	assert.Equal(t, want, collect(t, seq))

	limited := f.saleUC.All(context.Background(), usecase.SaleFilter{Limit: 3})
	assert.Equal(t, want[:3], collect(t, limited))

	offset := f.saleUC.All(context.Background(), usecase.SaleFilter{Offset: 4})
	assert.Equal(t, want[4:], collect(t, offset))
}

func TestSaleUC_AllStopsEarly(t *testing.T) {
	f := newFixture(t, fixtureOpts{pageSize: 2}, p1)
	want := appendSales(t, f, 5, day, 100)

	got := make([]string, 0)
	for sale, err := range f.saleUC.All(context.Background(), usecase.SaleFilter{}) {
		require.NoError(t, err)
		got = append(got, sale.ID)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, want[:3], got)
}

type brokenLedger struct{}

func (brokenLedger) List(ctx context.Context, filter usecase.SaleFilter) ([]domain.Sale, error) {
	return nil, errors.New("timeout")
}

func (brokenLedger) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	return nil, errors.New("timeout")
}

func TestSaleUC_StoreErrorsAreUnavailable(t *testing.T) {
	f := newFixture(t, fixtureOpts{}, p1)
	uc := usecase.NewSaleUC(brokenLedger{}, f.catalogUC, nil, logger.NewNopLogger(), 10)

	for _, err := range uc.All(context.Background(), usecase.SaleFilter{}) {
		require.ErrorIs(t, err, e.ErrStoreUnavailable)
	}

	_, err := uc.GetByID(context.Background(), "s1")
	require.ErrorIs(t, err, e.ErrStoreUnavailable)

	_, err = f.saleUC.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, e.ErrSaleNotFound)
}

func TestSaleUC_ListCapsPage(t *testing.T) {
	f := newFixture(t, fixtureOpts{pageSize: 2}, p1)
	want := appendSales(t, f, 3, day, 100)

	sales, err := f.saleUC.List(context.Background(), usecase.SaleFilter{Limit: 50})
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, want[0], sales[0].ID)
}

func TestSaleUC_Summary(t *testing.T) {
	f := newFixture(t, fixtureOpts{pageSize: 2}, p1, domain.Product{ID: 2, Name: "P2", Price: 100, Stock: 50})
	appendSales(t, f, 3, day.Add(8*time.Hour), 250)
	appendSales(t, f, 2, day.AddDate(0, 0, 1), 999)
	appendSales(t, f, 1, day.Add(-time.Minute), 999)

	summary, err := f.saleUC.Summary(context.Background(), day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, day, summary.Date)
	assert.Equal(t, 3, summary.SalesCount)
	assert.Equal(t, int64(750), summary.Total)
	// P1 с остатком 5 ниже порога 10, P2 нет
	assert.Equal(t, 1, summary.LowStockCount)
}

func TestSaleUC_ArchiveDay(t *testing.T) {
	archive := &archiveStub{}
	f := newFixture(t, fixtureOpts{archive: archive}, p1)
	appendSales(t, f, 2, day.Add(10*time.Hour), 250)
	appendSales(t, f, 1, day.AddDate(0, 0, 2), 250)

	res, err := f.saleUC.ArchiveDay(context.Background(), day.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "sales/2026-05-20.json", res.Key)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, day, archive.day)
	assert.Len(t, archive.sales, 2)

	noArchive := newFixture(t, fixtureOpts{}, p1)
	_, err = noArchive.saleUC.ArchiveDay(context.Background(), day)
	require.ErrorIs(t, err, e.ErrArchiveNotConfigured)
}
