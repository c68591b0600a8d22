// Package memory содержит хранилища в памяти процесса: каталог, журнал продаж и кэш.
// Используются в режиме STORE_MODE=memory и в тестах.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
)

// CatalogRepo — каталог товаров и категорий под одним мьютексом.
// Проверка и списание остатка выполняются под блокировкой, поэтому остаток не уходит в минус.
type CatalogRepo struct {
	mu         sync.RWMutex
	products   map[int64]*domain.Product
	categories map[string]*domain.Category
	nextID     int64
	nextCatID  int64
	now        func() time.Time
}

func NewCatalogRepo() *CatalogRepo {
	return &CatalogRepo{
		products:   make(map[int64]*domain.Product),
		categories: make(map[string]*domain.Category),
		now:        time.Now,
	}
}

// Seed добавляет товары как есть. Товар без ID получает следующий свободный идентификатор.
func (r *CatalogRepo) Seed(products ...domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range products {
		if p.ID == 0 {
			r.nextID++
			p.ID = r.nextID
		}
		r.nextID = max(r.nextID, p.ID)

		if p.CreatedAt.IsZero() {
			p.CreatedAt = r.now()
		}

		product := p
		r.products[p.ID] = &product
	}
}

func (r *CatalogRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok || product.IsArchived {
		return nil, e.ErrProductNotFound
	}

	res := *product
	return &res, nil
}

// List возвращает товары по возрастанию ID.
func (r *CatalogRepo) List(ctx context.Context, filter usecase.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]domain.Product, 0, len(r.products))
	for _, product := range r.products {
		if filter.Match(product) {
			res = append(res, *product)
		}
	}

	slices.SortFunc(res, func(a, b domain.Product) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return res, nil
}

func (r *CatalogRepo) DecrementStock(ctx context.Context, id int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, e.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || product.IsArchived {
		return 0, e.ErrProductNotFound
	}

	if product.Stock < amount {
		return product.Stock, e.NewInsufficientStock(product.ID, product.Name, amount, product.Stock)
	}

	product.Stock -= amount
	return product.Stock, nil
}

func (r *CatalogRepo) RestoreStock(ctx context.Context, id int64, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return e.ErrProductNotFound
	}

	product.Stock += amount
	return nil
}

// SetPrice меняет цену товара.
func (r *CatalogRepo) SetPrice(id int64, price int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return e.ErrProductNotFound
	}

	product.Price = price
	product.UpdatedAt = ptr(r.now())
	return nil
}

// Upsert создаёт товар или обновляет существующий с тем же именем (без учёта регистра).
func (r *CatalogRepo) Upsert(ctx context.Context, product *domain.Product) (*usecase.UpsertProductRes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if !strings.EqualFold(existing.Name, product.Name) {
			continue
		}

		if sameProduct(existing, product) {
			res := *existing
			return usecase.NewUpsertProductRes(&res, true), nil
		}

		existing.Price = product.Price
		existing.Stock = product.Stock
		existing.MinStock = product.MinStock
		existing.ExpiryDate = product.ExpiryDate
		existing.CategoryID = product.CategoryID
		existing.CategoryName = product.CategoryName
		existing.UpdatedAt = ptr(r.now())

		res := *existing
		return usecase.NewUpsertProductRes(&res, false), nil
	}

	r.nextID++
	created := *product
	created.ID = r.nextID
	created.CreatedAt = r.now()
	r.products[created.ID] = &created

	res := created
	return usecase.NewUpsertProductRes(&res, false), nil
}

// Create возвращает существующую категорию с тем же именем или создаёт новую.
func (r *CatalogRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(category.Name)
	if existing, ok := r.categories[key]; ok {
		res := *existing
		return &res, nil
	}

	r.nextCatID++
	created := *category
	created.ID = r.nextCatID
	created.CreatedAt = r.now()
	r.categories[key] = &created

	res := created
	return &res, nil
}

func sameProduct(a, b *domain.Product) bool {
	return a.Price == b.Price &&
		a.Stock == b.Stock &&
		a.CategoryID == b.CategoryID &&
		equalPtr(a.MinStock, b.MinStock) &&
		equalTimePtr(a.ExpiryDate, b.ExpiryDate)
}

func equalPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func ptr[T any](v T) *T {
	return &v
}
