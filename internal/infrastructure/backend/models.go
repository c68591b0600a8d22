package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/pkg/money"
	"github.com/shopspring/decimal"
)

// flexID принимает идентификатор и строкой, и числом.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = flexID(n.String())
	return nil
}

type productDTO struct {
	ID               int64           `json:"id"`
	Nombre           string          `json:"nombre"`
	Precio           decimal.Decimal `json:"precio"`
	Stock            int64           `json:"stock"`
	StockMinimo      *int64          `json:"stock_minimo,omitempty"`
	FechaVencimiento *string         `json:"fecha_vencimiento,omitempty"`
	CategoriaID      int64           `json:"categoria_id"`
	CategoriaNombre  string          `json:"categoria_nombre,omitempty"`
	Activo           *bool           `json:"activo,omitempty"`
}

func (p *productDTO) toEntity() (*domain.Product, error) {
	price, err := money.FromDecimal(p.Precio)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", p.ID, err)
	}

	product := &domain.Product{
		ID:           p.ID,
		Name:         p.Nombre,
		Price:        price,
		Stock:        max(p.Stock, 0),
		MinStock:     p.StockMinimo,
		CategoryID:   p.CategoriaID,
		CategoryName: p.CategoriaNombre,
		IsArchived:   p.Activo != nil && !*p.Activo,
	}

	if p.FechaVencimiento != nil && *p.FechaVencimiento != "" {
		if expiry, err := parseTime(*p.FechaVencimiento); err == nil {
			product.ExpiryDate = &expiry
		}
	}

	return product, nil
}

type customerDTO struct {
	Nombre string `json:"nombre"`
	Cedula string `json:"cedula"`
}

type saleItemDTO struct {
	ProductoID     int64           `json:"producto_id"`
	Nombre         string          `json:"nombre,omitempty"`
	ProductoNombre string          `json:"producto_nombre,omitempty"`
	Cantidad       int64           `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

type saleDTO struct {
	ID            flexID          `json:"id"`
	Fecha         string          `json:"fecha"`
	ClienteNombre string          `json:"cliente_nombre"`
	ClienteCedula string          `json:"cliente_cedula"`
	Cliente       *customerDTO    `json:"cliente,omitempty"`
	Items         []saleItemDTO   `json:"items"`
	Detalles      []saleItemDTO   `json:"detalles,omitempty"`
	Total         decimal.Decimal `json:"total"`
}

// toEntity собирает продажу. Итоги пересчитываются в центах по строкам;
// если строк в ответе нет (краткий список), берётся итог бэкенда.
func (s *saleDTO) toEntity() (*domain.Sale, error) {
	customer := domain.NewCustomer(s.ClienteNombre, s.ClienteCedula)
	if s.Cliente != nil && customer.Name == "" {
		customer = domain.NewCustomer(s.Cliente.Nombre, s.Cliente.Cedula)
	}

	var createdAt time.Time
	if s.Fecha != "" {
		t, err := parseTime(s.Fecha)
		if err != nil {
			return nil, fmt.Errorf("sale %s: %w", s.ID, err)
		}
		createdAt = t
	}

	items := s.Items
	if len(items) == 0 {
		items = s.Detalles
	}

	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		price, err := money.FromDecimal(item.PrecioUnitario)
		if err != nil {
			return nil, fmt.Errorf("sale %s: %w", s.ID, err)
		}

		name := item.Nombre
		if name == "" {
			name = item.ProductoNombre
		}

		lines = append(lines, domain.CartLine{
			ProductID: item.ProductoID,
			Name:      name,
			UnitPrice: price,
			Quantity:  item.Cantidad,
		})
	}

	sale, err := domain.NewSale(string(s.ID), createdAt, customer, lines)
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		if sale.Total, err = money.FromDecimal(s.Total); err != nil {
			return nil, fmt.Errorf("sale %s: %w", s.ID, err)
		}
	}

	return sale, nil
}

type createSaleItemReq struct {
	ProductoID     int64           `json:"producto_id"`
	Cantidad       int64           `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

type createSaleReq struct {
	ClienteNombre string              `json:"cliente_nombre"`
	ClienteCedula string              `json:"cliente_cedula"`
	Items         []createSaleItemReq `json:"items"`
}

type createSaleRes struct {
	ID    flexID          `json:"id"`
	Total decimal.Decimal `json:"total"`
}

func newCreateSaleReq(lines []domain.CartLine, customer domain.Customer) *createSaleReq {
	items := make([]createSaleItemReq, 0, len(lines))
	for _, line := range lines {
		items = append(items, createSaleItemReq{
			ProductoID:     line.ProductID,
			Cantidad:       line.Quantity,
			PrecioUnitario: money.ToDecimal(line.UnitPrice),
		})
	}

	return &createSaleReq{
		ClienteNombre: customer.Name,
		ClienteCedula: customer.DocumentID,
		Items:         items,
	}
}

// parseTime принимает RFC 3339, формат без зоны и просто дату. Время без зоны считается UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported time format %q", s)
}
