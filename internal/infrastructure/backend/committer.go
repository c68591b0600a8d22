package backend

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/DRSN-tech/minimarket/pkg/money"
)

// Committer проводит продажу через POST /ventas. Списание остатков и запись продажи
// выполняет бэкенд одной операцией; локально выполняется только предварительная проверка.
// После продажи проданные товары удаляются из кэша каталога.
type Committer struct {
	client    *Client
	catalog   usecase.CatalogRepository
	cacheRepo usecase.CacheRepository
	logger    logger.Logger
	now       func() time.Time
}

func NewCommitter(client *Client, catalog usecase.CatalogRepository, cacheRepo usecase.CacheRepository, logger logger.Logger) *Committer {
	return &Committer{
		client:    client,
		catalog:   catalog,
		cacheRepo: cacheRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (c *Committer) Commit(ctx context.Context, lines []domain.CartLine, customer domain.Customer) (*domain.Sale, error) {
	const op = "Committer.Commit"

	if err := usecase.CheckPreconditions(ctx, c.catalog, lines, customer); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Итоги считаются до отправки: переполнение не должно доходить до бэкенда
	local, err := domain.NewSale("", c.now().UTC(), customer, lines)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var res createSaleRes
	if err := c.client.Post(ctx, "/ventas", newCreateSaleReq(lines, customer), &res); err != nil {
		return nil, e.Wrap(op, c.mapCommitError(ctx, lines, err))
	}

	if res.ID == "" {
		return nil, e.Wrap(op, e.Unavailable(errors.New("backend returned sale without id")))
	}
	local.ID = string(res.ID)

	if !res.Total.IsZero() {
		if total, err := money.FromDecimal(res.Total); err == nil && total != local.Total {
			c.logger.Warnf("backend total differs for sale %s: local=%s backend=%s",
				local.ID, money.Format(local.Total), money.Format(total))
		}
	}

	// Удаление из кэша устаревших остатков
	ids := slices.Sorted(maps.Keys(local.Quantities()))
	if err := c.cacheRepo.DeleteProducts(ctx, ids); err != nil {
		c.logger.Warnf("Failed to invalidate products after sale %s: %v", local.ID, e.Wrap(op, err))
	}

	c.logger.Infof("sale committed via backend: id=%s items=%d total=%d", local.ID, len(local.Items), local.Total)
	return local, nil
}

// mapCommitError отличает отказ по остатку от прочих отказов. При отказе по остатку
// свежие остатки перечитываются, чтобы вернуть товар и доступное количество.
func (c *Committer) mapCommitError(ctx context.Context, lines []domain.CartLine, err error) error {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || !stockRejection(statusErr) {
		return mapError(err, nil)
	}

	for _, line := range lines {
		product, findErr := c.catalog.FindByID(ctx, line.ProductID)
		if findErr != nil {
			if errors.Is(findErr, e.ErrProductNotFound) {
				return e.NewCommitConflict(line.ProductID, e.NewInsufficientStock(line.ProductID, line.Name, line.Quantity, 0))
			}
			continue
		}

		if line.Quantity > product.Stock {
			return e.NewCommitConflict(line.ProductID, e.NewInsufficientStock(product.ID, product.Name, line.Quantity, product.Stock))
		}
	}

	var productID int64
	if len(lines) == 1 {
		productID = lines[0].ProductID
	}
	return e.NewCommitConflict(productID, e.Wrap(statusErr.Message, e.ErrInsufficientStock))
}

func stockRejection(err *StatusError) bool {
	switch err.Status {
	case http.StatusConflict:
		return true
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		msg := strings.ToLower(err.Message)
		return strings.Contains(msg, "stock") || strings.Contains(msg, "insuficiente")
	default:
		return false
	}
}
