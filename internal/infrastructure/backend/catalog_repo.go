package backend

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
)

// CatalogRepo читает каталог бэкенда. Остатки списывает сам бэкенд при POST /ventas.
type CatalogRepo struct {
	client *Client
}

func NewCatalogRepo(client *Client) *CatalogRepo {
	return &CatalogRepo{client: client}
}

func (r *CatalogRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "CatalogRepo.FindByID"

	var dto productDTO
	if err := r.client.Get(ctx, fmt.Sprintf("/productos/%d", id), nil, &dto); err != nil {
		return nil, e.Wrap(op, mapError(err, e.ErrProductNotFound))
	}

	product, err := dto.toEntity()
	if err != nil {
		return nil, e.Wrap(op, e.Unavailable(err))
	}

	return product, nil
}

// List запрашивает товары с фильтрами и повторно применяет фильтр локально:
// бэкенд может игнорировать неизвестные параметры.
func (r *CatalogRepo) List(ctx context.Context, filter usecase.ProductFilter) ([]domain.Product, error) {
	const op = "CatalogRepo.List"

	query := url.Values{}
	if filter.CategoryID != 0 {
		query.Set("categoria_id", strconv.FormatInt(filter.CategoryID, 10))
	}
	if filter.Search != "" {
		query.Set("buscar", filter.Search)
	}

	var dtos []productDTO
	if err := r.client.Get(ctx, "/productos", query, &dtos); err != nil {
		return nil, e.Wrap(op, mapError(err, nil))
	}

	products := make([]domain.Product, 0, len(dtos))
	for i := range dtos {
		product, err := dtos[i].toEntity()
		if err != nil {
			return nil, e.Wrap(op, e.Unavailable(err))
		}

		if filter.Match(product) {
			products = append(products, *product)
		}
	}

	slices.SortFunc(products, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return products, nil
}
