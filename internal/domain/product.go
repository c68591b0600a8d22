package domain

import "time"

// Product описывает товар каталога
type Product struct {
	ID           int64
	Name         string
	Price        int64 // Цена хранится в центах
	Stock        int64 // Остаток на складе, всегда >= 0
	MinStock     *int64
	ExpiryDate   *time.Time
	CategoryID   int64
	CategoryName string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	IsArchived   bool
}

func NewProduct(name string, price int64, stock int64, categoryID int64) *Product {
	return &Product{
		Name:       name,
		Price:      price,
		Stock:      stock,
		CategoryID: categoryID,
	}
}

// IsLowStock сообщает, что остаток ниже порога товара или, если порог не задан, ниже defaultThreshold.
func (p *Product) IsLowStock(defaultThreshold int64) bool {
	threshold := defaultThreshold
	if p.MinStock != nil {
		threshold = *p.MinStock
	}

	return p.Stock < threshold
}
