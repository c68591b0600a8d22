package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const maxBodySize = 1 << 20

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// StockErrorDetails — подробности отказа по остатку.
type StockErrorDetails struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}

type ConflictDetails struct {
	ProductID int64              `json:"product_id"`
	Retryable bool               `json:"retryable"`
	Stock     *StockErrorDetails `json:"stock,omitempty"`
}

func NewErrorResponse(code int, message string, details any) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ToHTTPResponse переводит ошибку в код ответа, сообщение и подробности.
// Внутренние причины ошибок хранилища наружу не отдаются.
func ToHTTPResponse(err error) (int, string, any) {
	var (
		conflictErr *e.CommitConflictError
		stockErr    *e.InsufficientStockError
	)

	switch {
	case errors.As(err, &conflictErr):
		details := ConflictDetails{ProductID: conflictErr.ProductID, Retryable: true}
		if errors.As(conflictErr.Cause, &stockErr) {
			details.Stock = stockDetails(stockErr)
		}
		return http.StatusConflict, e.ErrCommitConflict.Error(), details
	case errors.As(err, &stockErr):
		return http.StatusUnprocessableEntity, stockErr.Error(), stockDetails(stockErr)
	case errors.Is(err, e.ErrCommitConflict):
		return http.StatusConflict, e.ErrCommitConflict.Error(), nil

	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error(), nil
	case errors.Is(err, e.ErrSaleNotFound):
		return http.StatusNotFound, e.ErrSaleNotFound.Error(), nil
	case errors.Is(err, e.ErrCartNotFound):
		return http.StatusNotFound, e.ErrCartNotFound.Error(), nil
	case errors.Is(err, e.ErrCartLineNotFound):
		return http.StatusNotFound, e.ErrCartLineNotFound.Error(), nil

	case errors.Is(err, e.ErrEmptyCart):
		return http.StatusUnprocessableEntity, e.ErrEmptyCart.Error(), nil
	case errors.Is(err, e.ErrMissingCustomerInfo):
		return http.StatusUnprocessableEntity, e.ErrMissingCustomerInfo.Error(), nil
	case errors.Is(err, e.ErrAmountOverflow):
		return http.StatusUnprocessableEntity, e.ErrAmountOverflow.Error(), nil
	case errors.Is(err, e.ErrBackendRejected):
		return http.StatusUnprocessableEntity, err.Error(), nil

	case errors.Is(err, e.ErrInvalidQuantity):
		return http.StatusBadRequest, e.ErrInvalidQuantity.Error(), nil
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error(), nil
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error(), nil
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error(), nil
	case errors.Is(err, e.ErrInvalidStock):
		return http.StatusBadRequest, e.ErrInvalidStock.Error(), nil
	case errors.Is(err, e.ErrInvalidDate):
		return http.StatusBadRequest, e.ErrInvalidDate.Error(), nil
	case errors.Is(err, e.ErrProductNameRequired):
		return http.StatusBadRequest, e.ErrProductNameRequired.Error(), nil
	case errors.Is(err, e.ErrCategoryRequired):
		return http.StatusBadRequest, e.ErrCategoryRequired.Error(), nil
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error(), nil

	case errors.Is(err, e.ErrNotSupported):
		return http.StatusNotImplemented, e.ErrNotSupported.Error(), nil
	case errors.Is(err, e.ErrArchiveNotConfigured):
		return http.StatusNotImplemented, e.ErrArchiveNotConfigured.Error(), nil
	case errors.Is(err, e.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, e.ErrStoreUnavailable.Error(), nil
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error(), nil
	}
}

func stockDetails(err *e.InsufficientStockError) *StockErrorDetails {
	return &StockErrorDetails{
		ProductID:   err.ProductID,
		ProductName: err.ProductName,
		Requested:   err.Requested,
		Available:   err.Available,
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg, details := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg, details))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// decodeJSON читает тело запроса в dst. Лишние поля запрещены.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return e.Wrap("empty body", e.ErrStatusBadRequest)
		}
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	return nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(fmt.Sprintf("%s: %q", name, raw), e.ErrStatusBadRequest)
	}

	return id, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, e.Wrap(fmt.Sprintf("%s: %q", name, raw), e.ErrStatusBadRequest)
	}

	return n, nil
}

// parseDay разбирает дату YYYY-MM-DD как календарный день UTC.
func parseDay(raw string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, e.Wrap(whereami.WhereAmI(), e.ErrInvalidDate)
	}

	return day, nil
}

// dayQuery возвращает день из параметра запроса или текущий день, если параметр пуст.
func dayQuery(r *http.Request, name string, now time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if strings.TrimSpace(raw) == "" {
		return now.UTC(), nil
	}

	return parseDay(raw)
}

func optionalDay(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	day, err := parseDay(raw)
	if err != nil {
		return nil, err
	}

	return &day, nil
}
