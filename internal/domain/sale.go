package domain

import (
	"time"

	"github.com/DRSN-tech/minimarket/pkg/money"
)

// SaleItem — зафиксированная строка продажи.
type SaleItem struct {
	ProductID int64
	Name      string
	UnitPrice int64 // центы
	Quantity  int64
	LineTotal int64 // центы
}

// Sale — проведённая продажа. После создания не изменяется:
// журнал продаж хранит и отдаёт только копии.
type Sale struct {
	ID        string
	CreatedAt time.Time
	Customer  Customer
	Items     []SaleItem
	Total     int64 // центы, точная сумма LineTotal
}

// NewSale собирает продажу из копии строк корзины и считает итоги в центах.
func NewSale(id string, createdAt time.Time, customer Customer, lines []CartLine) (*Sale, error) {
	items := make([]SaleItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		lineTotal, err := line.Total()
		if err != nil {
			return nil, err
		}

		if total, err = money.Add(total, lineTotal); err != nil {
			return nil, err
		}

		items = append(items, SaleItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
	}

	return &Sale{
		ID:        id,
		CreatedAt: createdAt,
		Customer:  customer,
		Items:     items,
		Total:     total,
	}, nil
}

// Clone возвращает глубокую копию продажи.
func (s *Sale) Clone() *Sale {
	clone := *s
	clone.Items = make([]SaleItem, len(s.Items))
	copy(clone.Items, s.Items)
	return &clone
}

// Quantities возвращает количество по каждому товару продажи.
func (s *Sale) Quantities() map[int64]int64 {
	res := make(map[int64]int64, len(s.Items))
	for _, item := range s.Items {
		res[item.ProductID] += item.Quantity
	}

	return res
}

// SaleSummary — сводка продаж за день.
type SaleSummary struct {
	Date          time.Time
	SalesCount    int
	Total         int64 // центы
	LowStockCount int
}
