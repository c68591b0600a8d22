package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/DRSN-tech/minimarket/pkg/money"
)

// LowStockCounter считает товары, которые пора дозаказать.
type LowStockCounter interface {
	CountLowStock(ctx context.Context) (int, error)
}

// SaleUseCase — запросы к журналу продаж. Журнал только читается: продажи
// добавляет исключительно CommitUseCase.
type SaleUseCase struct {
	ledger   SaleReader
	stock    LowStockCounter
	archive  ArchiveRepository // nil, если архив не настроен
	logger   logger.Logger
	pageSize int
}

func NewSaleUC(ledger SaleReader, stock LowStockCounter, archive ArchiveRepository, logger logger.Logger, pageSize int) *SaleUseCase {
	if pageSize <= 0 {
		pageSize = 100
	}

	return &SaleUseCase{
		ledger:   ledger,
		stock:    stock,
		archive:  archive,
		logger:   logger,
		pageSize: pageSize,
	}
}

// List возвращает одну страницу продаж по убыванию времени. Без Limit размер страницы стандартный.
func (s *SaleUseCase) List(ctx context.Context, filter SaleFilter) ([]domain.Sale, error) {
	const op = "SaleUseCase.List"

	if filter.Limit <= 0 || filter.Limit > s.pageSize {
		filter.Limit = s.pageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	sales, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, e.Unavailable(err))
	}

	return sales, nil
}

// All обходит журнал постранично. Каждый запуск последовательности начинает обход заново,
// состояние курсора между запусками не разделяется. filter.Limit ограничивает общее
// количество продаж, 0 означает без ограничения.
func (s *SaleUseCase) All(ctx context.Context, filter SaleFilter) iter.Seq2[domain.Sale, error] {
	return func(yield func(domain.Sale, error) bool) {
		page := filter
		page.Offset = max(filter.Offset, 0)
		remaining := filter.Limit

		for {
			page.Limit = s.pageSize
			if filter.Limit > 0 {
				page.Limit = min(s.pageSize, remaining)
			}

			sales, err := s.ledger.List(ctx, page)
			if err != nil {
				yield(domain.Sale{}, e.Wrap("SaleUseCase.All", e.Unavailable(err)))
				return
			}

			for _, sale := range sales {
				if !yield(sale, nil) {
					return
				}
			}

			if filter.Limit > 0 {
				remaining -= len(sales)
				if remaining <= 0 {
					return
				}
			}

			if len(sales) < page.Limit {
				return
			}
			page.Offset += len(sales)
		}
	}
}

func (s *SaleUseCase) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	const op = "SaleUseCase.GetByID"

	sale, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		if e.IsDomain(err) {
			return nil, e.Wrap(op, err)
		}
		return nil, e.Wrap(op, e.Unavailable(err))
	}

	return sale, nil
}

// Summary считает продажи за календарный день (UTC) и количество товаров с низким остатком.
func (s *SaleUseCase) Summary(ctx context.Context, day time.Time) (*domain.SaleSummary, error) {
	const op = "SaleUseCase.Summary"

	from, to := DayRange(day)
	summary := &domain.SaleSummary{Date: from}

	for sale, err := range s.All(ctx, SaleFilter{From: &from, To: &to}) {
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		summary.SalesCount++
		if summary.Total, err = money.Add(summary.Total, sale.Total); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	lowStock, err := s.stock.CountLowStock(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	summary.LowStockCount = lowStock

	return summary, nil
}

// ArchiveDay выгружает продажи за день в архив. Повторная выгрузка перезаписывает объект дня.
func (s *SaleUseCase) ArchiveDay(ctx context.Context, day time.Time) (*ArchiveRes, error) {
	const op = "SaleUseCase.ArchiveDay"

	if s.archive == nil {
		return nil, e.Wrap(op, e.ErrArchiveNotConfigured)
	}

	from, to := DayRange(day)
	sales := make([]domain.Sale, 0)
	for sale, err := range s.All(ctx, SaleFilter{From: &from, To: &to}) {
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		sales = append(sales, sale)
	}

	key, err := s.archive.SaveDay(ctx, from, sales)
	if err != nil {
		return nil, e.Wrap(op, e.Unavailable(err))
	}

	s.logger.Infof("sales archived: day=%s count=%d key=%s", from.Format(time.DateOnly), len(sales), key)
	return &ArchiveRes{Key: key, Count: len(sales)}, nil
}
