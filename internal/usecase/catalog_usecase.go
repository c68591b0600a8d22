package usecase

import (
	"context"
	"strings"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/DRSN-tech/minimarket/pkg/money"
)

// CatalogUseCase реализует чтение каталога с кэшем и регистрацию товаров.
// Кэш используется для проверок при редактировании корзины; проведение продажи
// всегда читает остатки напрямую из хранилища.
type CatalogUseCase struct {
	catalog           CatalogRepository
	productRepo       ProductRepository  // nil, если хранилище не поддерживает запись каталога
	categoryRepo      CategoryRepository // nil вместе с productRepo
	txManager         TxManager
	cacheRepo         CacheRepository
	logger            logger.Logger
	lowStockThreshold int64
}

func NewCatalogUC(
	catalog CatalogRepository,
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	txManager TxManager,
	cacheRepo CacheRepository,
	logger logger.Logger,
	lowStockThreshold int64,
) *CatalogUseCase {
	return &CatalogUseCase{
		catalog:           catalog,
		productRepo:       productRepo,
		categoryRepo:      categoryRepo,
		txManager:         txManager,
		cacheRepo:         cacheRepo,
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
	}
}

// GetProduct возвращает товар из кэша, при промахе читает хранилище и кэширует результат.
func (c *CatalogUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "CatalogUseCase.GetProduct"

	cached, err := c.cacheRepo.GetProducts(ctx, []int64{id})
	if err != nil {
		c.logger.Warnf("catalog cache read failed, falling back to store: %v", e.Wrap(op, err))
	} else if product, ok := cached[id]; ok {
		return &product, nil
	}

	product, err := c.FreshProduct(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := c.cacheRepo.SetProducts(ctx, []domain.Product{*product}); err != nil {
		c.logger.Warnf("Failed to cache product %d: %v", id, e.Wrap(op, err))
	}

	return product, nil
}

// FreshProduct читает товар из хранилища в обход кэша.
func (c *CatalogUseCase) FreshProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := c.catalog.FindByID(ctx, id)
	if err != nil {
		if e.IsDomain(err) {
			return nil, err
		}
		return nil, e.Unavailable(err)
	}

	return product, nil
}

func (c *CatalogUseCase) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	const op = "CatalogUseCase.ListProducts"

	products, err := c.catalog.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, e.Unavailable(err))
	}

	return products, nil
}

// LowStock возвращает товары с остатком ниже порога.
func (c *CatalogUseCase) LowStock(ctx context.Context) ([]domain.Product, error) {
	const op = "CatalogUseCase.LowStock"

	products, err := c.ListProducts(ctx, ProductFilter{})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := make([]domain.Product, 0)
	for _, p := range products {
		if p.IsLowStock(c.lowStockThreshold) {
			res = append(res, p)
		}
	}

	return res, nil
}

// CountLowStock считает товары с остатком ниже порога.
func (c *CatalogUseCase) CountLowStock(ctx context.Context) (int, error) {
	products, err := c.LowStock(ctx)
	if err != nil {
		return 0, err
	}

	return len(products), nil
}

// RegisterProduct идемпотентно создаёт категорию и товар (по уникальному имени) в одной транзакции.
func (c *CatalogUseCase) RegisterProduct(ctx context.Context, req *RegisterProductReq) (*UpsertProductRes, error) {
	const op = "CatalogUseCase.RegisterProduct"

	if c.productRepo == nil || c.categoryRepo == nil {
		return nil, e.Wrap(op, e.ErrNotSupported)
	}

	if err := c.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var res *UpsertProductRes
	err := c.txManager.Do(ctx, func(ctx context.Context) error {
		category, err := c.categoryRepo.Create(ctx, domain.NewCategory(strings.TrimSpace(req.CategoryName)))
		if err != nil {
			return err
		}

		product := domain.NewProduct(strings.TrimSpace(req.Name), req.Price, req.Stock, category.ID)
		product.MinStock = req.MinStock
		product.ExpiryDate = req.ExpiryDate
		product.CategoryName = category.Name

		res, err = c.productRepo.Upsert(ctx, product)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша старых данных товара
	c.Invalidate(ctx, []int64{res.Product.ID})

	return res, nil
}

// Refresh перечитывает каталог из хранилища и прогревает кэш. Возвращает количество товаров.
func (c *CatalogUseCase) Refresh(ctx context.Context) (int, error) {
	const op = "CatalogUseCase.Refresh"

	products, err := c.ListProducts(ctx, ProductFilter{})
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	if err := c.cacheRepo.SetProducts(ctx, products); err != nil {
		return 0, e.Wrap(op, err)
	}

	c.logger.Infof("catalog snapshot refreshed: %d products", len(products))
	return len(products), nil
}

// Invalidate удаляет товары из кэша. Ошибка кэша только логируется.
func (c *CatalogUseCase) Invalidate(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}

	if err := c.cacheRepo.DeleteProducts(ctx, ids); err != nil {
		c.logger.Warnf("Failed to invalidate products %v: %v", ids, err)
	}
}

// validateProduct проверяет корректность входных данных запроса на добавление продукта.
func (c *CatalogUseCase) validateProduct(req *RegisterProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if strings.TrimSpace(req.CategoryName) == "" {
		return e.ErrCategoryRequired
	}

	if req.Price < 0 || req.Price > money.MaxPrice {
		return e.ErrInvalidPrice
	}

	if req.Stock < 0 || (req.MinStock != nil && *req.MinStock < 0) {
		return e.ErrInvalidStock
	}

	return nil
}
