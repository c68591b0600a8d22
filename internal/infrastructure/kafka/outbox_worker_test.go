package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outboxStub struct {
	mu        sync.Mutex
	queue     []*usecase.OutboxEvent
	processed []int64
	pending   []int64
	reclaimed int
}

func (o *outboxStub) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	event.ID = int64(len(o.queue) + 1)
	o.queue = append(o.queue, event)
	return event, nil
}

func (o *outboxStub) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := min(limit, len(o.queue))
	batch := o.queue[:n]
	o.queue = o.queue[n:]
	return batch, nil
}

func (o *outboxStub) MarkAsProcessed(ctx context.Context, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.processed = append(o.processed, id)
	return nil
}

func (o *outboxStub) MarkAsPending(ctx context.Context, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending = append(o.pending, id)
	return nil
}

func (o *outboxStub) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.reclaimed++
	return 0, nil
}

type producerStub struct {
	mu   sync.Mutex
	fail map[string]error
	sent []*usecase.WriteRawMessageReq
}

func (p *producerStub) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.fail[req.Key]; err != nil {
		return err
	}
	p.sent = append(p.sent, req)
	return nil
}

func enqueue(t *testing.T, repo *outboxStub, keys ...string) {
	t.Helper()

	for _, key := range keys {
		_, err := repo.Create(context.Background(), &usecase.OutboxEvent{
			EventID:     "ev-" + key,
			EventType:   usecase.SaleCommitted,
			AggregateID: key,
			Payload:     []byte("payload-" + key),
			Status:      usecase.Pending,
		})
		require.NoError(t, err)
	}
}

func TestOutboxWorker_ProcessBatch(t *testing.T) {
	repo := &outboxStub{}
	producer := &producerStub{}
	w := NewOutboxWorker(repo, logger.NewNopLogger(), producer, "", "outbox_pending")

	enqueue(t, repo, "s1", "s2")

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)

	require.Len(t, producer.sent, 2)
	assert.Equal(t, "s1", producer.sent[0].Key)
	assert.Equal(t, []byte("payload-s1"), producer.sent[0].Payload)
	assert.Equal(t, []int64{1, 2}, repo.processed)
	assert.Empty(t, repo.pending)
}

func TestOutboxWorker_FailedEventReturnsToQueue(t *testing.T) {
	repo := &outboxStub{}
	producer := &producerStub{fail: map[string]error{"s2": errors.New("dial tcp: connection refused")}}
	w := NewOutboxWorker(repo, logger.NewNopLogger(), producer, "", "outbox_pending")

	enqueue(t, repo, "s1", "s2", "s3")

	_, err := w.processBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3}, repo.processed)
	assert.Equal(t, []int64{2}, repo.pending)
}

func TestOutboxWorker_DrainFullBatches(t *testing.T) {
	repo := &outboxStub{}
	producer := &producerStub{}
	w := NewOutboxWorker(repo, logger.NewNopLogger(), producer, "", "outbox_pending")

	keys := make([]string, 0, batchSize+3)
	for i := range batchSize + 3 {
		keys = append(keys, string(rune('a'+i)))
	}
	enqueue(t, repo, keys...)

	w.drain(context.Background())

	assert.Len(t, producer.sent, batchSize+3)
	assert.Len(t, repo.processed, batchSize+3)
}

func TestOutboxWorker_BrokerDownStopsDrain(t *testing.T) {
	repo := &outboxStub{}
	fail := make(map[string]error)
	keys := make([]string, 0, batchSize)
	for i := range batchSize {
		key := string(rune('a' + i))
		keys = append(keys, key)
		fail[key] = errors.New("broker not available")
	}
	w := NewOutboxWorker(repo, logger.NewNopLogger(), &producerStub{fail: fail}, "", "outbox_pending")
	enqueue(t, repo, keys...)

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Len(t, repo.pending, batchSize)
}

func TestOutboxWorker_ReclaimsOnStart(t *testing.T) {
	repo := &outboxStub{}
	w := NewOutboxWorker(repo, logger.NewNopLogger(), &producerStub{}, "", "outbox_pending")

	w.reclaim(context.Background())
	assert.Equal(t, 1, repo.reclaimed)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("dial tcp 127.0.0.1:9092: connect: Connection Refused")))
	assert.True(t, isRetryableError(errors.New("read: i/o timeout")))
	assert.False(t, isRetryableError(errors.New("message too large")))
	assert.False(t, isRetryableError(nil))
}
