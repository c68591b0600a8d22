package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// SaleRepo — журнал продаж в таблицах sales и sale_items. Запросов UPDATE и DELETE нет.
type SaleRepo struct {
	pool *pgxpool.Pool
	conv converter.SaleConverter
}

func NewSaleRepo(pool *pgxpool.Pool, conv converter.SaleConverter) *SaleRepo {
	return &SaleRepo{pool: pool, conv: conv}
}

// Append записывает продажу и её строки одним пакетом.
func (s *SaleRepo) Append(ctx context.Context, sale *domain.Sale) error {
	model, items := s.conv.ToModel(sale)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO sales (id, created_at, customer_name, customer_document, total)
		VALUES ($1, $2, $3, $4, $5)
	`, model.ID, model.CreatedAt, model.CustomerName, model.CustomerDocument, model.Total)

	for _, item := range items {
		batch.Queue(`
			INSERT INTO sale_items (sale_id, position, product_id, name, unit_price, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.SaleID, item.Position, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.LineTotal)
	}

	results := conn(ctx, s.pool).SendBatch(ctx, batch)
	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if postgresDuplicate(err) {
				return e.Wrap(sale.ID, e.ErrStatusBadRequest)
			}
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	if err := results.Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// List возвращает продажи по убыванию времени. Limit 0 означает без ограничения.
func (s *SaleRepo) List(ctx context.Context, filter usecase.SaleFilter) ([]domain.Sale, error) {
	query := `
		SELECT id, created_at, customer_name, customer_document, total
		FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		  AND ($3::text = '' OR customer_name ILIKE '%' || $3 || '%' OR customer_document ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($4::int, 0) OFFSET $5
	`

	q := conn(ctx, s.pool)
	rows, err := q.Query(ctx, query, filter.From, filter.To, filter.Customer, filter.Limit, max(filter.Offset, 0))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models := make([]converter.SaleModel, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var model converter.SaleModel
		if err := rows.Scan(&model.ID, &model.CreatedAt, &model.CustomerName, &model.CustomerDocument, &model.Total); err != nil {
			rows.Close()
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
		ids = append(ids, model.ID)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items, err := s.loadItems(ctx, q, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make([]domain.Sale, 0, len(models))
	for i := range models {
		result = append(result, *s.conv.ToEntity(&models[i], items[models[i].ID]))
	}

	return result, nil
}

func (s *SaleRepo) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	q := conn(ctx, s.pool)

	var model converter.SaleModel
	err := q.QueryRow(ctx, `
		SELECT id, created_at, customer_name, customer_document, total
		FROM sales
		WHERE id = $1
	`, id).Scan(&model.ID, &model.CreatedAt, &model.CustomerName, &model.CustomerDocument, &model.Total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrSaleNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items, err := s.loadItems(ctx, q, []string{id})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return s.conv.ToEntity(&model, items[id]), nil
}

func (s *SaleRepo) loadItems(ctx context.Context, q querier, ids []string) (map[string][]converter.SaleItemModel, error) {
	res := make(map[string][]converter.SaleItemModel, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	rows, err := q.Query(ctx, `
		SELECT sale_id, position, product_id, name, unit_price, quantity, line_total
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item converter.SaleItemModel
		if err := rows.Scan(
			&item.SaleID, &item.Position, &item.ProductID, &item.Name,
			&item.UnitPrice, &item.Quantity, &item.LineTotal,
		); err != nil {
			return nil, err
		}

		res[item.SaleID] = append(res[item.SaleID], item)
	}

	return res, rows.Err()
}
