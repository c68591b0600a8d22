package usecase

import (
	"strings"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/google/uuid"
)

// CATALOG USECASE

// ProductFilter — фильтр списка товаров. Пустые поля не ограничивают выборку.
type ProductFilter struct {
	CategoryID int64
	Search     string // подстрока названия, без учёта регистра
}

// Match сообщает, проходит ли товар фильтр. Архивные товары не проходят никогда.
func (f ProductFilter) Match(p *domain.Product) bool {
	if p.IsArchived {
		return false
	}

	if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
		return false
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	return search == "" || strings.Contains(strings.ToLower(p.Name), search)
}

// RegisterProductReq — запрос на добавление или обновление товара.
type RegisterProductReq struct {
	Name         string
	CategoryName string
	Price        int64 // центы
	Stock        int64
	MinStock     *int64
	ExpiryDate   *time.Time
}

// CART USECASE

// CartView — снимок корзины для ответа оператору.
type CartView struct {
	ID        string
	Lines     []domain.CartLine
	Total     int64 // центы
	UpdatedAt time.Time
}

// SALE USECASE

// SaleFilter — фильтр журнала продаж: полуинтервал [From, To), подстрока имени или документа покупателя.
type SaleFilter struct {
	From     *time.Time
	To       *time.Time
	Customer string
	Limit    int
	Offset   int
}

// Match сообщает, проходит ли продажа фильтр. Limit и Offset не учитываются.
func (f SaleFilter) Match(sale *domain.Sale) bool {
	if f.From != nil && sale.CreatedAt.Before(*f.From) {
		return false
	}

	if f.To != nil && !sale.CreatedAt.Before(*f.To) {
		return false
	}

	customer := strings.ToLower(strings.TrimSpace(f.Customer))
	if customer == "" {
		return true
	}

	return strings.Contains(strings.ToLower(sale.Customer.Name), customer) ||
		strings.Contains(strings.ToLower(sale.Customer.DocumentID), customer)
}

// ArchiveRes — результат выгрузки продаж за день.
type ArchiveRes struct {
	Key   string
	Count int
}

// REPOSITORIES

type UpsertProductRes struct {
	Product   *domain.Product
	NoChanges bool
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	SaleCommitted OutboxEventType = "sale.committed"
)

// OutboxEvent — событие, записанное в той же транзакции, что и продажа.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	AggregateID string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// INFRASTUCTURE

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// MAPPERS

func NewUpsertProductRes(product *domain.Product, noChanges bool) *UpsertProductRes {
	return &UpsertProductRes{
		Product:   product,
		NoChanges: noChanges,
	}
}

func NewRegisterProductReq(name, category string, price, stock int64, minStock *int64, expiry *time.Time) *RegisterProductReq {
	return &RegisterProductReq{
		Name:         name,
		CategoryName: category,
		Price:        price,
		Stock:        stock,
		MinStock:     minStock,
		ExpiryDate:   expiry,
	}
}

func NewCartView(cart *domain.Cart, total int64) *CartView {
	return &CartView{
		ID:        cart.ID,
		Lines:     cart.Lines(),
		Total:     total,
		UpdatedAt: cart.UpdatedAt,
	}
}

func NewSaleCommittedEvent(sale *domain.Sale, payload []byte, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:     uuid.NewString(),
		EventType:   SaleCommitted,
		AggregateID: sale.ID,
		Payload:     payload,
		Status:      Pending,
		CreatedAt:   createdAt,
	}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
	}
}

// DayRange возвращает полуинтервал [начало дня, начало следующего дня) в UTC.
func DayRange(day time.Time) (time.Time, time.Time) {
	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}
