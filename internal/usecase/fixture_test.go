package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/repository/memory"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	catalog   *memory.CatalogRepo
	sales     *memory.SaleRepo
	cache     *memory.CacheRepo
	catalogUC *usecase.CatalogUseCase
	commitUC  *usecase.CommitUseCase
	cartUC    *usecase.CartUseCase
	saleUC    *usecase.SaleUseCase
}

type fixtureOpts struct {
	stock      usecase.StockRepository
	ledger     usecase.SaleRepository
	archive    usecase.ArchiveRepository
	pageSize   int
	commitOpts []usecase.CommitOption
}

func newFixture(t *testing.T, opts fixtureOpts, products ...domain.Product) *fixture {
	t.Helper()

	log := logger.NewNopLogger()
	f := &fixture{
		catalog: memory.NewCatalogRepo(),
		sales:   memory.NewSaleRepo(),
		cache:   memory.NewCacheRepo(time.Minute),
	}
	f.catalog.Seed(products...)

	var stock usecase.StockRepository = f.catalog
	if opts.stock != nil {
		stock = opts.stock
	}

	var ledger usecase.SaleRepository = f.sales
	if opts.ledger != nil {
		ledger = opts.ledger
	}

	tx := memory.NewTxManager()
	f.catalogUC = usecase.NewCatalogUC(f.catalog, f.catalog, f.catalog, tx, f.cache, log, 10)
	f.commitUC = usecase.NewCommitUC(f.catalog, stock, ledger, tx, f.cache, log, opts.commitOpts...)
	f.cartUC = usecase.NewCartUC(f.catalogUC, f.commitUC, log, time.Hour)
	f.saleUC = usecase.NewSaleUC(f.sales, f.catalogUC, opts.archive, log, opts.pageSize)

	return f
}

func (f *fixture) stockOf(t *testing.T, id int64) int64 {
	t.Helper()

	product, err := f.catalog.FindByID(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func (f *fixture) newCart(t *testing.T) string {
	t.Helper()

	view, err := f.cartUC.Create(context.Background())
	require.NoError(t, err)
	return view.ID
}

// failingStock отказывает в списании выбранного товара.
type failingStock struct {
	*memory.CatalogRepo
	failOn int64
	err    error
}

func (f *failingStock) DecrementStock(ctx context.Context, id int64, amount int64) (int64, error) {
	if id == f.failOn {
		return 0, f.err
	}
	return f.CatalogRepo.DecrementStock(ctx, id, amount)
}

type failingLedger struct {
	*memory.SaleRepo
}

func (f *failingLedger) Append(ctx context.Context, sale *domain.Sale) error {
	return errors.New("disk full")
}

type archiveStub struct {
	day   time.Time
	sales []domain.Sale
}

func (a *archiveStub) SaveDay(ctx context.Context, day time.Time, sales []domain.Sale) (string, error) {
	a.day = day
	a.sales = sales
	return "sales/" + day.Format(time.DateOnly) + ".json", nil
}

var (
	p1 = domain.Product{ID: 1, Name: "P1", Price: 250, Stock: 5}
	p2 = domain.Product{ID: 2, Name: "P2", Price: 1999, Stock: 10}
)

func ana() domain.Customer {
	return domain.NewCustomer("Ana Torres", "0102030405")
}
