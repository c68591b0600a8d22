package http

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/money"
)

// Деньги в ответах передаются десятичными строками ("7.50")

type ProductResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        string  `json:"price"`
	Stock        int64   `json:"stock"`
	MinStock     *int64  `json:"min_stock,omitempty"`
	ExpiryDate   *string `json:"expiry_date,omitempty"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
}

type RegisterProductRequest struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      string  `json:"price"`
	Stock      int64   `json:"stock"`
	MinStock   *int64  `json:"min_stock,omitempty"`
	ExpiryDate *string `json:"expiry_date,omitempty"`
}

type RegisterProductResponse struct {
	Product ProductResponse `json:"product"`
	Changed bool            `json:"changed"`
}

type RefreshResponse struct {
	Products int `json:"products"`
}

type CartLineResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartResponse struct {
	ID        string             `json:"id"`
	Lines     []CartLineResponse `json:"lines"`
	Total     string             `json:"total"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddItemRequest — количество передаётся строкой или числом; дробные значения отклоняются.
type AddItemRequest struct {
	ProductID int64        `json:"product_id"`
	Quantity  QuantityJSON `json:"quantity"`
}

// QuantityJSON хранит количество как есть, проверка выполняется в Int64.
type QuantityJSON string

func (q *QuantityJSON) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = QuantityJSON(s)
		return nil
	}

	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}

	*q = QuantityJSON(data)
	return nil
}

func (q QuantityJSON) Int64() (int64, error) {
	if q == "" {
		return 0, e.ErrInvalidQuantity
	}

	return money.ParseQuantity(string(q))
}

type SetQuantityRequest struct {
	Quantity QuantityJSON `json:"quantity"`
}

type CheckoutRequest struct {
	CustomerName     string `json:"customer_name"`
	CustomerDocument string `json:"customer_document"`
}

type SaleItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type SaleResponse struct {
	ID               string             `json:"id"`
	CreatedAt        time.Time          `json:"created_at"`
	CustomerName     string             `json:"customer_name"`
	CustomerDocument string             `json:"customer_document"`
	Items            []SaleItemResponse `json:"items"`
	Total            string             `json:"total"`
}

type SaleListResponse struct {
	Sales  []SaleResponse `json:"sales"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type SummaryResponse struct {
	Date          string `json:"date"`
	SalesCount    int    `json:"sales_count"`
	Total         string `json:"total"`
	LowStockCount int    `json:"low_stock_count"`
}

type ArchiveRequest struct {
	Date string `json:"date"`
}

type ArchiveResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// MAPPERS

func toProductResponse(p *domain.Product) ProductResponse {
	res := ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        money.Format(p.Price),
		Stock:        p.Stock,
		MinStock:     p.MinStock,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
	}

	if p.ExpiryDate != nil {
		expiry := p.ExpiryDate.Format(time.DateOnly)
		res.ExpiryDate = &expiry
	}

	return res
}

func toProductsResponse(products []domain.Product) []ProductResponse {
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}

	return res
}

func toCartResponse(view *usecase.CartView) CartResponse {
	lines := make([]CartLineResponse, 0, len(view.Lines))
	for _, line := range view.Lines {
		// Итог корзины уже проверен на переполнение
		subtotal, _ := line.Total()
		lines = append(lines, CartLineResponse{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: money.Format(line.UnitPrice),
			Quantity:  line.Quantity,
			Subtotal:  money.Format(subtotal),
		})
	}

	return CartResponse{
		ID:        view.ID,
		Lines:     lines,
		Total:     money.Format(view.Total),
		UpdatedAt: view.UpdatedAt,
	}
}

func toSaleResponse(sale *domain.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, SaleItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: money.Format(item.UnitPrice),
			Quantity:  item.Quantity,
			LineTotal: money.Format(item.LineTotal),
		})
	}

	return SaleResponse{
		ID:               sale.ID,
		CreatedAt:        sale.CreatedAt,
		CustomerName:     sale.Customer.Name,
		CustomerDocument: sale.Customer.DocumentID,
		Items:            items,
		Total:            money.Format(sale.Total),
	}
}

func toSummaryResponse(summary *domain.SaleSummary) SummaryResponse {
	return SummaryResponse{
		Date:          summary.Date.Format(time.DateOnly),
		SalesCount:    summary.SalesCount,
		Total:         money.Format(summary.Total),
		LowStockCount: summary.LowStockCount,
	}
}
