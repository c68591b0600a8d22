package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `
	pr.id, pr.name, pr.price, pr.stock, pr.min_stock, pr.expiry_date,
	pr.category_id, cat.name, pr.created_at, pr.updated_at, pr.is_archived
`

// ProductRepo реализует каталог и остатки поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func (p *ProductRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products pr
		LEFT JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = $1 AND NOT pr.is_archived
	`

	model, err := scanProduct(conn(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// List возвращает неархивные товары по возрастанию ID.
func (p *ProductRepo) List(ctx context.Context, filter usecase.ProductFilter) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products pr
		LEFT JOIN categories cat ON pr.category_id = cat.id
		WHERE NOT pr.is_archived
		  AND ($1::bigint = 0 OR pr.category_id = $1)
		  AND ($2::text = '' OR pr.name ILIKE '%' || $2 || '%')
		ORDER BY pr.id
	`

	rows, err := conn(ctx, p.pool).Query(ctx, query, filter.CategoryID, filter.Search)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		model, err := scanProduct(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *p.conv.ToEntity(model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// DecrementStock списывает остаток одним условным UPDATE: строка блокируется,
// и условие stock >= amount перепроверяется по последнему зафиксированному значению.
func (p *ProductRepo) DecrementStock(ctx context.Context, id int64, amount int64) (int64, error) {
	q := conn(ctx, p.pool)

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_archived AND stock >= $2
		RETURNING stock
	`

	var left int64
	err := q.QueryRow(ctx, query, id, amount).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	// Строка не обновлена: товара нет или остатка не хватает
	var name string
	var stock int64
	err = q.QueryRow(ctx, `SELECT name, stock FROM products WHERE id = $1 AND NOT is_archived`, id).Scan(&name, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, e.ErrProductNotFound
		}
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return stock, e.NewInsufficientStock(id, name, amount, stock)
}

func (p *ProductRepo) RestoreStock(ctx context.Context, id int64, amount int64) error {
	tag, err := conn(ctx, p.pool).Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, id, amount)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

// Upsert идемпотентно создаёт или обновляет продукт по уникальному имени.
// Запись обновляется только при изменении цены, остатка, порога, срока годности или категории.
func (p *ProductRepo) Upsert(ctx context.Context, product *domain.Product) (*usecase.UpsertProductRes, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// VALUES ($1..$6) name, price, stock, min_stock, expiry_date, category_id
	query := `
		WITH upsert AS (
		INSERT INTO products (name, price, stock, min_stock, expiry_date, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name)
		DO UPDATE SET
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			min_stock = EXCLUDED.min_stock,
			expiry_date = EXCLUDED.expiry_date,
			category_id = EXCLUDED.category_id,
			updated_at = NOW()
		WHERE
			products.price IS DISTINCT FROM EXCLUDED.price OR
			products.stock IS DISTINCT FROM EXCLUDED.stock OR
			products.min_stock IS DISTINCT FROM EXCLUDED.min_stock OR
			products.expiry_date IS DISTINCT FROM EXCLUDED.expiry_date OR
			products.category_id IS DISTINCT FROM EXCLUDED.category_id
		RETURNING
			id, name, price, stock, min_stock, expiry_date, category_id, created_at, updated_at, is_archived
		)
		SELECT
			id, name, price, stock, min_stock, expiry_date, category_id, created_at, updated_at, is_archived,
			false AS no_changes
		FROM upsert

		UNION ALL

		SELECT
			id, name, price, stock, min_stock, expiry_date, category_id, created_at, updated_at, is_archived,
			true AS no_changes
		FROM products
		WHERE name = $1
		  AND NOT EXISTS (SELECT 1 FROM upsert);
	`

	var model converter.ProductModel
	var noChanges bool
	err = tx.QueryRow(ctx, query,
		product.Name, product.Price, product.Stock, product.MinStock, product.ExpiryDate, product.CategoryID,
	).Scan(
		&model.ID, &model.Name, &model.Price, &model.Stock, &model.MinStock, &model.ExpiryDate,
		&model.CategoryID, &model.CreatedAt, &model.UpdatedAt, &model.IsArchived, &noChanges,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	entity := p.conv.ToEntity(&model)
	entity.CategoryName = product.CategoryName

	return usecase.NewUpsertProductRes(entity, noChanges), nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID, &model.Name, &model.Price, &model.Stock, &model.MinStock, &model.ExpiryDate,
		&model.CategoryID, &model.CategoryName, &model.CreatedAt, &model.UpdatedAt, &model.IsArchived,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
