package pgdb

import (
	"context"

	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/DRSN-tech/minimarket/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// TxManager выполняет единицу работы в транзакции PostgreSQL.
// Транзакция кладётся в контекст, репозитории берут её через tr.TxFromCtx.
type TxManager struct {
	db     transaction.Transactional
	logger logger.Logger
}

func NewTxManager(db transaction.Transactional, logger logger.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// Do откатывает транзакцию, если fn вернула ошибку или запаниковала.
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "TxManager.Do"

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, m.db)
	if err != nil {
		return e.Wrap(op, e.Unavailable(err))
	}

	defer func() {
		p := recover()
		if (err != nil || p != nil) && tx.IsActive() {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				m.logger.Errorf(rbErr, "failed to rollback transaction")
			}
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(tr.WithTx(ctx, tx.Transaction())); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, e.Unavailable(err))
	}

	return nil
}

func (m *TxManager) Atomic() bool {
	return true
}
