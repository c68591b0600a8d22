package memory

import "context"

// TxManager выполняет fn без транзакции. Откат не поддерживается:
// вызывающий компенсирует изменения сам.
type TxManager struct{}

func NewTxManager() *TxManager {
	return &TxManager{}
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *TxManager) Atomic() bool {
	return false
}
