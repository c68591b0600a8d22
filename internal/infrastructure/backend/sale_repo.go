package backend

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
)

// SaleRepo читает журнал продаж бэкенда.
type SaleRepo struct {
	client *Client
}

func NewSaleRepo(client *Client) *SaleRepo {
	return &SaleRepo{client: client}
}

// List передаёт фильтр и страницу бэкенду. Ответ дополнительно фильтруется,
// сортируется по убыванию времени и обрезается до Limit.
func (r *SaleRepo) List(ctx context.Context, filter usecase.SaleFilter) ([]domain.Sale, error) {
	const op = "SaleRepo.List"

	query := url.Values{}
	if filter.From != nil {
		query.Set("fecha_inicio", filter.From.UTC().Format(time.RFC3339))
	}
	if filter.To != nil {
		query.Set("fecha_fin", filter.To.UTC().Format(time.RFC3339))
	}
	if filter.Customer != "" {
		query.Set("cliente", filter.Customer)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		query.Set("offset", strconv.Itoa(filter.Offset))
	}

	var dtos []saleDTO
	if err := r.client.Get(ctx, "/ventas", query, &dtos); err != nil {
		return nil, e.Wrap(op, mapError(err, nil))
	}

	sales := make([]domain.Sale, 0, len(dtos))
	for i := range dtos {
		sale, err := dtos[i].toEntity()
		if err != nil {
			return nil, e.Wrap(op, e.Unavailable(err))
		}

		if filter.Match(sale) {
			sales = append(sales, *sale)
		}
	}

	slices.SortStableFunc(sales, func(a, b domain.Sale) int { return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano()) })
	if filter.Limit > 0 && len(sales) > filter.Limit {
		sales = sales[:filter.Limit]
	}

	return sales, nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	const op = "SaleRepo.GetByID"

	var dto saleDTO
	if err := r.client.Get(ctx, "/ventas/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, e.Wrap(op, mapError(err, e.ErrSaleNotFound))
	}

	sale, err := dto.toEntity()
	if err != nil {
		return nil, e.Wrap(op, e.Unavailable(err))
	}

	return sale, nil
}
