package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
)

type CatalogUC interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	LowStock(ctx context.Context) ([]domain.Product, error)
	RegisterProduct(ctx context.Context, req *RegisterProductReq) (*UpsertProductRes, error)
	Refresh(ctx context.Context) (int, error)
}

type CartUC interface {
	Create(ctx context.Context) (*CartView, error)
	Get(ctx context.Context, cartID string) (*CartView, error)
	AddItem(ctx context.Context, cartID string, productID int64, quantity int64) (*CartView, error)
	SetQuantity(ctx context.Context, cartID string, productID int64, quantity int64) (*CartView, error)
	RemoveItem(ctx context.Context, cartID string, productID int64) (*CartView, error)
	Clear(ctx context.Context, cartID string) (*CartView, error)
	Delete(ctx context.Context, cartID string) error
	Checkout(ctx context.Context, cartID string, customer domain.Customer) (*domain.Sale, error)
}

type SaleUC interface {
	List(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
	All(ctx context.Context, filter SaleFilter) iter.Seq2[domain.Sale, error]
	GetByID(ctx context.Context, id string) (*domain.Sale, error)
	Summary(ctx context.Context, day time.Time) (*domain.SaleSummary, error)
	ArchiveDay(ctx context.Context, day time.Time) (*ArchiveRes, error)
}
