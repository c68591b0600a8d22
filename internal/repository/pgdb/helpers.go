package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/minimarket/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// querier — общее подмножество pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// conn возвращает транзакцию из контекста, если она есть, иначе пул.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}

	return pool
}

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
