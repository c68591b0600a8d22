package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
)

// CatalogRepository — источник истины по товарам: цены и остатки.
type CatalogRepository interface {
	// FindByID возвращает e.ErrProductNotFound, если товара нет.
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
}

// StockRepository изменяет остатки. DecrementStock атомарен относительно других списаний
// того же товара и никогда не уводит остаток ниже нуля.
type StockRepository interface {
	// DecrementStock возвращает новый остаток или *e.InsufficientStockError, не меняя остаток.
	DecrementStock(ctx context.Context, id int64, amount int64) (int64, error)
	// RestoreStock возвращает ранее списанное количество (компенсация).
	RestoreStock(ctx context.Context, id int64, amount int64) error
}

type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) (*UpsertProductRes, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
}

// SaleReader — чтение журнала продаж.
type SaleReader interface {
	// List возвращает продажи по убыванию времени.
	List(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
	// GetByID возвращает e.ErrSaleNotFound, если продажи нет.
	GetByID(ctx context.Context, id string) (*domain.Sale, error)
}

// SaleRepository — журнал продаж только на добавление.
type SaleRepository interface {
	SaleReader
	Append(ctx context.Context, sale *domain.Sale) error
}

// CacheRepository кэширует снимок каталога для проверок при редактировании корзины.
type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	SetProducts(ctx context.Context, products []domain.Product) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type OutboxWriter interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
}

type OutboxRepository interface {
	OutboxWriter
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
}

// ArchiveRepository сохраняет выгрузку продаж за день во внешнее хранилище.
type ArchiveRepository interface {
	SaveDay(ctx context.Context, day time.Time, sales []domain.Sale) (string, error)
}

// TxManager выполняет fn как одну единицу работы.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	// Atomic сообщает, откатывает ли хранилище изменения fn при ошибке.
	// Если нет, вызывающий сам компенсирует уже сделанные изменения.
	Atomic() bool
}
