package pgdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DRSN-tech/minimarket/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// OutboxChannel — канал LISTEN/NOTIFY, в который сообщается о новых событиях.
const OutboxChannel = "outbox_pending"

type OutboxEventRepo struct {
	pool *pgxpool.Pool
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(pool *pgxpool.Pool, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{
		pool: pool,
		conv: conv,
	}
}

// Create записывает событие в транзакции продажи. NOTIFY доставляется только после коммита.
func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (
			event_id,
			event_type,
			aggregate_id,
			payload,
			status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`

	if err := tx.QueryRow(ctx, query,
		model.EventID,
		model.EventType,
		model.AggregateID,
		model.Payload,
		model.Status,
		model.CreatedAt,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		if postgresDuplicate(err) {
			return nil, fmt.Errorf("%s: event with id %s already exists", whereami.WhereAmI(), event.EventID)
		}

		return nil, fmt.Errorf("%s: failed to insert event: %w", whereami.WhereAmI(), err)
	}

	_, err = tx.Exec(ctx, "NOTIFY "+OutboxChannel+";")
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing забирает до limit ожидающих событий. Параллельные воркеры
// не получают одни и те же события благодаря FOR UPDATE SKIP LOCKED.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) (events []*usecase.OutboxEvent, err error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = now()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $2
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id, event_type, aggregate_id, payload, status, created_at, processed_at
	`

	rows, err := tx.Query(ctx, query, usecase.Processing, usecase.Pending, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query pending events: %w", whereami.WhereAmI(), err)
	}

	var models []*converter.OutboxEventModel
	for rows.Next() {
		var model converter.OutboxEventModel
		var processedAt sql.NullTime

		if err = rows.Scan(
			&model.ID,
			&model.EventID,
			&model.EventType,
			&model.AggregateID,
			&model.Payload,
			&model.Status,
			&model.CreatedAt,
			&processedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%s: failed to scan event: %w", whereami.WhereAmI(), err)
		}

		if processedAt.Valid {
			model.ProcessedAt = &processedAt.Time
		}

		models = append(models, &model)
	}
	rows.Close()

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iterator error: %w", whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	return o.setStatus(ctx, id, usecase.Processed, "processed_at = NOW()")
}

// MarkAsPending возвращает событие в очередь после неудачной отправки.
func (o *OutboxEventRepo) MarkAsPending(ctx context.Context, id int64) error {
	return o.setStatus(ctx, id, usecase.Pending, "processing_started_at = NULL")
}

// ReclaimStale возвращает в очередь события, застрявшие в обработке дольше olderThan
// (например, после падения воркера). Возвращает количество возвращённых событий.
func (o *OutboxEventRepo) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := o.pool.Exec(ctx, `
		UPDATE outbox_events
		SET status = $1, processing_started_at = NULL
		WHERE status = $2 AND processing_started_at < NOW() - $3::interval
	`, usecase.Pending, usecase.Processing, olderThan)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}

func (o *OutboxEventRepo) setStatus(ctx context.Context, id int64, status usecase.OutboxStatus, set string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, ` + set + `
		WHERE id = $2 AND status = $3
	`

	// Ноль затронутых строк: событие уже обработано другим воркером
	if _, err := o.pool.Exec(ctx, query, status, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to mark event %d as %s: %w", whereami.WhereAmI(), id, status, err)
	}

	return nil
}
