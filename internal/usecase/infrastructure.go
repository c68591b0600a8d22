package usecase

import (
	"context"

	"github.com/DRSN-tech/minimarket/internal/domain"
)

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// EventEncoder сериализует события продаж для outbox.
type EventEncoder interface {
	EncodeSaleCommitted(sale *domain.Sale) ([]byte, error)
}

// Committer проводит продажу: проверка, списание остатков и запись в журнал как одна операция.
type Committer interface {
	Commit(ctx context.Context, lines []domain.CartLine, customer domain.Customer) (*domain.Sale, error)
}
