package e

import (
	"errors"
	"fmt"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrUnknownStoreMode     = fmt.Errorf("unknown store mode")

	// Ошибки корзины и продажи
	ErrInvalidQuantity     = fmt.Errorf("invalid quantity")
	ErrInsufficientStock   = fmt.Errorf("insufficient stock")
	ErrEmptyCart           = fmt.Errorf("cart is empty")
	ErrMissingCustomerInfo = fmt.Errorf("customer name and document are required")
	ErrCommitConflict      = fmt.Errorf("commit conflict, revalidate and retry")
	ErrStoreUnavailable    = fmt.Errorf("store unavailable")

	// 404 Not Found
	ErrProductNotFound  = fmt.Errorf("product not found")
	ErrSaleNotFound     = fmt.Errorf("sale not found")
	ErrCartNotFound     = fmt.Errorf("cart not found")
	ErrCartLineNotFound = fmt.Errorf("product is not in the cart")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidStock         = fmt.Errorf("stock must be a non-negative integer")
	ErrInvalidDate          = fmt.Errorf("invalid date, expected YYYY-MM-DD")
	ErrProductNameRequired  = fmt.Errorf("product name is required")
	ErrCategoryRequired     = fmt.Errorf("category is required")
	ErrBackendRejected      = fmt.Errorf("request rejected by backend")
	ErrAmountOverflow       = fmt.Errorf("amount overflow")
	ErrArchiveNotConfigured = fmt.Errorf("sales archive is not configured")
	ErrNotSupported         = fmt.Errorf("operation is not supported by the configured store")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// InsufficientStockError описывает нехватку остатка по конкретному товару.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int64
	Available   int64
}

func (err *InsufficientStockError) Error() string {
	name := err.ProductName
	if name == "" {
		name = fmt.Sprintf("#%d", err.ProductID)
	}

	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", name, err.Requested, err.Available)
}

func (err *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInsufficientStock создаёт ошибку нехватки остатка.
func NewInsufficientStock(productID int64, name string, requested, available int64) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   productID,
		ProductName: name,
		Requested:   requested,
		Available:   available,
	}
}

// CommitConflictError — сбой фазы применения после успешной предварительной проверки.
// Повторяемая ошибка: оператор должен перепроверить корзину и повторить продажу.
type CommitConflictError struct {
	ProductID int64
	Cause     error
}

func (err *CommitConflictError) Error() string {
	return fmt.Sprintf("commit conflict on product #%d: %v", err.ProductID, err.Cause)
}

func (err *CommitConflictError) Is(target error) bool {
	return target == ErrCommitConflict
}

func (err *CommitConflictError) Unwrap() error {
	return err.Cause
}

// NewCommitConflict создаёт ошибку конфликта фиксации продажи.
func NewCommitConflict(productID int64, cause error) *CommitConflictError {
	return &CommitConflictError{ProductID: productID, Cause: cause}
}

// Unavailable помечает ошибку хранилища как ErrStoreUnavailable, сохраняя исходную причину.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// IsDomain сообщает, является ли ошибка ожидаемой ошибкой предметной области,
// а не сбоем хранилища.
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrInvalidQuantity,
		ErrInsufficientStock,
		ErrEmptyCart,
		ErrMissingCustomerInfo,
		ErrCommitConflict,
		ErrProductNotFound,
		ErrSaleNotFound,
		ErrCartNotFound,
		ErrCartLineNotFound,
		ErrBackendRejected,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
