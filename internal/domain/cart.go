package domain

import (
	"time"

	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/money"
)

// CartLine — строка корзины. Цена и название фиксируются в момент добавления
// и не меняются при последующем изменении каталога.
type CartLine struct {
	ProductID int64
	Name      string
	UnitPrice int64 // центы
	Quantity  int64
}

// Total возвращает стоимость строки в центах.
func (l CartLine) Total() (int64, error) {
	return money.LineTotal(l.UnitPrice, l.Quantity)
}

// Cart — временная корзина одной кассовой сессии. Не потокобезопасна.
// На один товар приходится не более одной строки, порядок добавления сохраняется.
type Cart struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	lines     []CartLine
}

func NewCart(id string, now time.Time) *Cart {
	return &Cart{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Add добавляет quantity единиц товара. Уже лежащее в корзине количество учитывается
// при проверке остатка. Новая строка получает текущую цену товара.
func (c *Cart) Add(product *Product, quantity int64) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	idx := c.indexOf(product.ID)
	staged := int64(0)
	if idx >= 0 {
		staged = c.lines[idx].Quantity
	}

	if quantity > product.Stock-staged {
		return e.NewInsufficientStock(product.ID, product.Name, staged+quantity, product.Stock)
	}

	lines := c.Lines()
	if idx >= 0 {
		lines[idx].Quantity += quantity
	} else {
		lines = append(lines, CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
		})
	}

	return c.replace(lines)
}

// SetQuantity заменяет количество в существующей строке. Проверка остатка ведётся
// по новому значению, а не по сумме с уже добавленным.
func (c *Cart) SetQuantity(product *Product, quantity int64) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	idx := c.indexOf(product.ID)
	if idx < 0 {
		return e.ErrCartLineNotFound
	}

	if quantity > product.Stock {
		return e.NewInsufficientStock(product.ID, product.Name, quantity, product.Stock)
	}

	lines := c.Lines()
	lines[idx].Quantity = quantity

	return c.replace(lines)
}

// Remove удаляет строку товара. Отсутствие строки не является ошибкой.
func (c *Cart) Remove(productID int64) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}

	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	c.touch()
}

func (c *Cart) Clear() {
	c.lines = nil
	c.touch()
}

// Lines возвращает копию строк корзины.
func (c *Cart) Lines() []CartLine {
	lines := make([]CartLine, len(c.lines))
	copy(lines, c.lines)
	return lines
}

func (c *Cart) Line(productID int64) (CartLine, bool) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return CartLine{}, false
	}

	return c.lines[idx], true
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Total — сумма по строкам в центах. Только целочисленная арифметика.
func (c *Cart) Total() (int64, error) {
	return linesTotal(c.lines)
}

// replace подменяет строки корзины, только если их сумма представима в центах.
// При переполнении корзина остаётся прежней.
func (c *Cart) replace(lines []CartLine) error {
	if _, err := linesTotal(lines); err != nil {
		return err
	}

	c.lines = lines
	c.touch()

	return nil
}

func linesTotal(lines []CartLine) (int64, error) {
	var total int64
	for _, line := range lines {
		lineTotal, err := line.Total()
		if err != nil {
			return 0, err
		}

		if total, err = money.Add(total, lineTotal); err != nil {
			return 0, err
		}
	}

	return total, nil
}

func (c *Cart) indexOf(productID int64) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}

	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

func validateQuantity(quantity int64) error {
	if quantity <= 0 || quantity > money.MaxQuantity {
		return e.ErrInvalidQuantity
	}

	return nil
}
