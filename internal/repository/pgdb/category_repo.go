package pgdb

import (
	"context"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CategoryRepo — категории товаров в PostgreSQL.
type CategoryRepo struct {
	pool *pgxpool.Pool
	conv converter.CategoryConverter
}

func NewCategoryRepo(pool *pgxpool.Pool, conv converter.CategoryConverter) *CategoryRepo {
	return &CategoryRepo{pool: pool, conv: conv}
}

// Create возвращает категорию с именем category.Name, создавая её при отсутствии.
// Регистрация товара в существующей категории должна получить её ID, а при
// ON CONFLICT DO NOTHING строка в RETURNING не попадает. Поэтому конфликт
// обрабатывается пустым DO UPDATE.
func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	q := conn(ctx, c.pool)

	query := `
		INSERT INTO categories(name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at, updated_at, is_archived;
	`

	var model converter.CategoryModel
	if err := q.QueryRow(ctx, query, category.Name).
		Scan(&model.ID, &model.Name, &model.CreatedAt, &model.UpdatedAt, &model.IsArchived); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToEntity(&model), nil
}
