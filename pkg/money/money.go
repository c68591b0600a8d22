// Package money конвертирует денежные суммы между десятичным представлением
// и целыми минорными единицами (центами). Все вычисления ведутся в int64.
package money

import (
	"math"
	"strings"

	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/shopspring/decimal"
)

const (
	// Scale — количество знаков после запятой у минорной единицы.
	Scale = 2

	// MaxPrice — верхняя граница цены в центах (1 млрд денежных единиц).
	MaxPrice int64 = 1_000_000_000 * 100

	// MaxQuantity — верхняя граница количества в одной строке.
	MaxQuantity int64 = 1_000_000
)

var hundred = decimal.NewFromInt(100)

// ParsePrice преобразует строку вида "599.99" или "600" в центы.
// Возвращает ошибку, если формат неверен, знаков после запятой больше двух,
// значение отрицательно или превышает MaxPrice.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -Scale && !d.Equal(d.Round(Scale)) {
		return 0, e.ErrPricePrecision
	}

	return checkPrice(d.Mul(hundred).Round(0).IntPart(), d)
}

// FromDecimal переводит десятичную сумму в центы с округлением от нуля.
// Используется для значений, пришедших из внешнего API.
func FromDecimal(d decimal.Decimal) (int64, error) {
	return checkPrice(d.Round(Scale).Mul(hundred).IntPart(), d)
}

func checkPrice(cents int64, d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, e.ErrInvalidPrice
	}

	if d.GreaterThan(decimal.NewFromInt(MaxPrice / 100)) {
		return 0, e.ErrInvalidPrice
	}

	return cents, nil
}

// ToDecimal переводит центы в десятичную сумму.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -Scale)
}

// Format возвращает сумму с двумя знаками после запятой: 750 -> "7.50".
func Format(cents int64) string {
	return ToDecimal(cents).StringFixed(Scale)
}

// ParseQuantity разбирает количество. Допускается только запись из десятичных цифр:
// "3.0", "1e2" и "+3" отклоняются, так же как дробные и неположительные значения.
func ParseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, e.ErrInvalidQuantity
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidQuantity
	}

	if !d.IsInteger() || !d.IsPositive() {
		return 0, e.ErrInvalidQuantity
	}

	if d.GreaterThan(decimal.NewFromInt(MaxQuantity)) {
		return 0, e.ErrInvalidQuantity
	}

	return d.IntPart(), nil
}

// LineTotal считает стоимость строки: цена * количество.
func LineTotal(price, quantity int64) (int64, error) {
	if price < 0 || quantity < 0 {
		return 0, e.ErrAmountOverflow
	}

	if quantity != 0 && price > math.MaxInt64/quantity {
		return 0, e.ErrAmountOverflow
	}

	return price * quantity, nil
}

// Add складывает суммы с проверкой переполнения.
func Add(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, e.ErrAmountOverflow
	}

	return a + b, nil
}
