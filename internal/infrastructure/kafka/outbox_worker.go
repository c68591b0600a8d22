package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/jitter"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	batchSize       = 10
	pollInterval    = 30 * time.Second
	staleProcessing = 5 * time.Minute
	reconnectBase   = 2 * time.Second
	reconnectMax    = time.Minute
)

// staleReclaimer возвращает в очередь события, оставшиеся в обработке после падения воркера.
type staleReclaimer interface {
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// OutboxWorker переносит события из outbox в Kafka. Будится по NOTIFY, а без уведомлений
// опрашивает таблицу раз в pollInterval.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	channel   string
	stop      chan struct{}
	stopOnce  sync.Once
	wake      chan struct{}
	wg        sync.WaitGroup
	dbConnStr string
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
	channel string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		channel:   channel,
		stop:      make(chan struct{}),
		wake:      make(chan struct{}, 1),
		dbConnStr: dbConnStr,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		defer cancel()
		w.run(ctx)
	}()

	// Слушатель уведомлений только будит основной цикл
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

// Stop останавливает воркер и ждёт завершения текущей пачки.
func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	w.reclaim(ctx)

	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped by context cancellation")
			return
		case <-w.stop:
			w.logger.Infof("Outbox worker stopped")
			return
		case <-w.wake:
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.drain(ctx)
		case <-ticker.C:
			w.reclaim(ctx)
			w.drain(ctx)
		}
	}
}

// drain обрабатывает пачки, пока в очереди есть события.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) reclaim(ctx context.Context) {
	reclaimer, ok := w.repo.(staleReclaimer)
	if !ok {
		return
	}

	n, err := reclaimer.ReclaimStale(ctx, staleProcessing)
	if err != nil {
		w.logger.Warnf("reclaim stale outbox events failed: %v", err)
		return
	}
	if n > 0 {
		w.logger.Infof("reclaimed %d stale outbox events", n)
	}
}

func (w *OutboxWorker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		c, err := pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err := c.Exec(ctx, "LISTEN "+w.channel); err != nil {
			c.Close(context.WithoutCancel(ctx))
			return e.Wrap("failed to LISTEN", err)
		}

		conn = c
		w.logger.Infof("Subscribed to '%s' channel", w.channel)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for attempt := 0; ; {
		if conn == nil {
			if err := connect(); err != nil {
				w.logger.Warnf("LISTEN connect failed, falling back to polling: %v", err)
				if jitter.Sleep(ctx, jitter.ExponentialBackoff(reconnectBase, reconnectMax, attempt, jitter.DefaultJitter)) != nil {
					return
				}
				attempt++
				continue
			}
			attempt = 0
		}

		notif, err := conn.WaitForNotification(ctx)
		if err != nil {
			conn.Close(context.WithoutCancel(ctx))
			conn = nil

			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			continue
		}

		if notif != nil && notif.Channel == w.channel {
			w.notify()
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, batchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	failed := 0
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			failed++
			w.logger.Warnf("event %s not delivered: %v", event.EventID, err)

			// Событие возвращается в очередь, иначе оно навсегда останется в processing
			if err := w.repo.MarkAsPending(context.WithoutCancel(ctx), event.ID); err != nil {
				w.logger.Warnf("mark pending failed: %v", err)
			}
			continue
		}

		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	// Вся пачка не ушла: брокер недоступен, следующая попытка по таймеру
	if failed == len(events) {
		return false, nil
	}

	return len(events) == batchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	if err := w.SendBytes(ctx, event.AggregateID, event.Payload); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}
	return nil
}

func (w *OutboxWorker) SendBytes(ctx context.Context, key string, payload []byte) error {
	return w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(key, payload))
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
