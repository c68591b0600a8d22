package usecase

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/google/uuid"
)

// CommitUseCase проводит продажу по схеме «проверка, затем применение».
// Остатки и журнал продаж меняются по принципу «всё или ничего».
type CommitUseCase struct {
	catalog   CatalogRepository
	stockRepo StockRepository
	saleRepo  SaleRepository
	txManager TxManager
	cacheRepo CacheRepository
	outbox    OutboxWriter
	encoder   EventEncoder
	logger    logger.Logger
	now       func() time.Time
	newID     func() string
}

type CommitOption func(*CommitUseCase)

// WithOutbox включает запись события о продаже в outbox. Требует транзакционного TxManager:
// событие пишется в той же транзакции, что и продажа.
func WithOutbox(outbox OutboxWriter, encoder EventEncoder) CommitOption {
	return func(c *CommitUseCase) {
		c.outbox = outbox
		c.encoder = encoder
	}
}

// WithClock подменяет источник времени и генератор идентификаторов продаж.
func WithClock(now func() time.Time, newID func() string) CommitOption {
	return func(c *CommitUseCase) {
		c.now = now
		c.newID = newID
	}
}

func NewCommitUC(
	catalog CatalogRepository,
	stockRepo StockRepository,
	saleRepo SaleRepository,
	txManager TxManager,
	cacheRepo CacheRepository,
	logger logger.Logger,
	opts ...CommitOption,
) *CommitUseCase {
	c := &CommitUseCase{
		catalog:   catalog,
		stockRepo: stockRepo,
		saleRepo:  saleRepo,
		txManager: txManager,
		cacheRepo: cacheRepo,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Commit проверяет строки по свежим остаткам, списывает их, записывает продажу и возвращает её копию.
// При любой ошибке остатки возвращаются к исходным значениям, продажа не записывается.
func (c *CommitUseCase) Commit(ctx context.Context, lines []domain.CartLine, customer domain.Customer) (*domain.Sale, error) {
	const op = "CommitUseCase.Commit"

	// Проверка без побочных эффектов
	if err := CheckPreconditions(ctx, c.catalog, lines, customer); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Итоги считаются до списания, переполнение суммы отклоняет продажу без изменений
	sale, err := domain.NewSale(c.newID(), c.now().UTC(), customer, lines)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = c.txManager.Do(ctx, func(ctx context.Context) error {
		if err := c.applyStock(ctx, lines); err != nil {
			return err
		}

		if err := c.saleRepo.Append(ctx, sale); err != nil {
			c.restoreStock(ctx, lines)
			return e.Unavailable(err)
		}

		if c.outbox != nil {
			if err := c.recordEvent(ctx, sale); err != nil {
				c.restoreStock(ctx, lines)
				return e.Unavailable(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша устаревших остатков
	ids := slices.Sorted(maps.Keys(sale.Quantities()))
	if err := c.cacheRepo.DeleteProducts(ctx, ids); err != nil {
		c.logger.Warnf("Failed to invalidate products after sale %s: %v", sale.ID, e.Wrap(op, err))
	}

	c.logger.Infof("sale committed: id=%s items=%d total=%d", sale.ID, len(sale.Items), sale.Total)
	return sale.Clone(), nil
}

// applyStock списывает остатки построчно. При неудаче уже списанные строки этой попытки возвращаются.
func (c *CommitUseCase) applyStock(ctx context.Context, lines []domain.CartLine) error {
	for i, line := range lines {
		if _, err := c.stockRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			c.restoreStock(ctx, lines[:i])

			if errors.Is(err, e.ErrInsufficientStock) || errors.Is(err, e.ErrProductNotFound) {
				return e.NewCommitConflict(line.ProductID, err)
			}

			return e.Unavailable(err)
		}
	}

	return nil
}

// restoreStock компенсирует списания, если хранилище не откатывает их само.
// Выполняется и при отменённом контексте запроса.
func (c *CommitUseCase) restoreStock(ctx context.Context, lines []domain.CartLine) {
	if c.txManager.Atomic() {
		return
	}

	ctx = context.WithoutCancel(ctx)
	for _, line := range lines {
		if err := c.stockRepo.RestoreStock(ctx, line.ProductID, line.Quantity); err != nil {
			c.logger.Errorf(err, "failed to restore stock: product_id=%d quantity=%d", line.ProductID, line.Quantity)
		}
	}
}

func (c *CommitUseCase) recordEvent(ctx context.Context, sale *domain.Sale) error {
	payload, err := c.encoder.EncodeSaleCommitted(sale)
	if err != nil {
		return err
	}

	_, err = c.outbox.Create(ctx, NewSaleCommittedEvent(sale, payload, c.now().UTC()))
	return err
}

// CheckPreconditions — фаза проверки без побочных эффектов: непустая корзина,
// данные покупателя и достаточность свежих остатков по каждой строке.
func CheckPreconditions(ctx context.Context, catalog CatalogRepository, lines []domain.CartLine, customer domain.Customer) error {
	if len(lines) == 0 {
		return e.ErrEmptyCart
	}

	if err := customer.Validate(); err != nil {
		return err
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return e.ErrInvalidQuantity
		}

		product, err := catalog.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, e.ErrProductNotFound) {
				return e.NewInsufficientStock(line.ProductID, line.Name, line.Quantity, 0)
			}
			return e.Unavailable(err)
		}

		if line.Quantity > product.Stock {
			return e.NewInsufficientStock(product.ID, product.Name, line.Quantity, product.Stock)
		}
	}

	return nil
}
