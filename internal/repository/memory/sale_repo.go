package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
)

// SaleRepo — журнал продаж только на добавление. Продажи копируются на входе и на выходе,
// поэтому записанную продажу нельзя изменить через возвращённые значения.
type SaleRepo struct {
	mu    sync.RWMutex
	sales []*domain.Sale
	index map[string]int
}

func NewSaleRepo() *SaleRepo {
	return &SaleRepo{index: make(map[string]int)}
}

func (r *SaleRepo) Append(ctx context.Context, sale *domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[sale.ID]; ok {
		return e.Wrap(sale.ID, e.ErrStatusBadRequest)
	}

	r.index[sale.ID] = len(r.sales)
	r.sales = append(r.sales, sale.Clone())
	return nil
}

// List возвращает продажи по убыванию времени; при равном времени первой идёт добавленная позже.
func (r *SaleRepo) List(ctx context.Context, filter usecase.SaleFilter) ([]domain.Sale, error) {
	r.mu.RLock()
	matched := make([]int, 0)
	for i, sale := range r.sales {
		if filter.Match(sale) {
			matched = append(matched, i)
		}
	}

	slices.SortStableFunc(matched, func(a, b int) int {
		if c := r.sales[b].CreatedAt.Compare(r.sales[a].CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})

	offset := min(max(filter.Offset, 0), len(matched))
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	res := make([]domain.Sale, 0, len(matched))
	for _, i := range matched {
		res = append(res, *r.sales[i].Clone())
	}
	r.mu.RUnlock()

	return res, nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, e.ErrSaleNotFound
	}

	return r.sales[i].Clone(), nil
}

// Len возвращает количество продаж в журнале.
func (r *SaleRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sales)
}
