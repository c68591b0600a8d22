package domain

import (
	"math"
	"testing"
	"time"

	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(id int64, price, stock int64) *Product {
	return &Product{ID: id, Name: "product", Price: price, Stock: stock}
}

func TestCart_AddMergesAndChecksStagedQuantity(t *testing.T) {
	p1 := newTestProduct(1, 250, 5)
	cart := NewCart("c1", time.Now())

	require.NoError(t, cart.Add(p1, 3))
	require.NoError(t, cart.Add(p1, 2))
	assert.Equal(t, 1, cart.Len())

	line, ok := cart.Line(1)
	require.True(t, ok)
	assert.Equal(t, int64(5), line.Quantity)

	err := cart.Add(p1, 1)
	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(6), stockErr.Requested)
	assert.Equal(t, int64(5), stockErr.Available)
	assert.ErrorIs(t, err, e.ErrInsufficientStock)

	line, _ = cart.Line(1)
	assert.Equal(t, int64(5), line.Quantity)
}

func TestCart_InvalidQuantity(t *testing.T) {
	p1 := newTestProduct(1, 250, 5)
	cart := NewCart("c1", time.Now())

	require.ErrorIs(t, cart.Add(p1, 0), e.ErrInvalidQuantity)
	require.ErrorIs(t, cart.Add(p1, -1), e.ErrInvalidQuantity)
	require.NoError(t, cart.Add(p1, 1))
	require.ErrorIs(t, cart.SetQuantity(p1, 0), e.ErrInvalidQuantity)
	assert.True(t, !cart.IsEmpty())
}

func TestCart_SetQuantityReplaces(t *testing.T) {
	p1 := newTestProduct(1, 250, 5)
	cart := NewCart("c1", time.Now())
	require.NoError(t, cart.Add(p1, 3))

	// замена, а не добавление: 5 помещается, хотя 3+5 > 5
	require.NoError(t, cart.SetQuantity(p1, 5))
	require.ErrorIs(t, cart.SetQuantity(p1, 6), e.ErrInsufficientStock)

	line, _ := cart.Line(1)
	assert.Equal(t, int64(5), line.Quantity)

	require.ErrorIs(t, cart.SetQuantity(newTestProduct(2, 100, 10), 1), e.ErrCartLineNotFound)
}

func TestCart_RemoveIsIdempotent(t *testing.T) {
	cart := NewCart("c1", time.Now())
	require.NoError(t, cart.Add(newTestProduct(1, 250, 5), 1))
	require.NoError(t, cart.Add(newTestProduct(2, 100, 5), 1))

	cart.Remove(42)
	assert.Equal(t, 2, cart.Len())

	cart.Remove(1)
	cart.Remove(1)
	assert.Equal(t, 1, cart.Len())
	assert.Equal(t, int64(2), cart.Lines()[0].ProductID)
}

func TestCart_PriceSnapshot(t *testing.T) {
	p1 := newTestProduct(1, 250, 5)
	cart := NewCart("c1", time.Now())
	require.NoError(t, cart.Add(p1, 1))

	p1.Price = 999
	require.NoError(t, cart.Add(p1, 1))

	line, _ := cart.Line(1)
	assert.Equal(t, int64(250), line.UnitPrice)
}

func TestCart_TotalInCents(t *testing.T) {
	cart := NewCart("c1", time.Now())
	require.NoError(t, cart.Add(newTestProduct(1, 250, 5), 3))
	require.NoError(t, cart.Add(newTestProduct(2, 10, 100), 3))
	require.NoError(t, cart.Add(newTestProduct(3, 20, 100), 7))

	total, err := cart.Total()
	require.NoError(t, err)
	assert.Equal(t, int64(750+30+140), total)

	cart.Clear()
	total, err = cart.Total()
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.True(t, cart.IsEmpty())
}

func TestCart_OverflowLeavesCartUnchanged(t *testing.T) {
	cart := NewCart("c1", time.Now())
	require.NoError(t, cart.Add(newTestProduct(1, math.MaxInt64/2, 10), 1))

	// вторая строка переполняет сумму корзины
	require.ErrorIs(t, cart.Add(newTestProduct(2, math.MaxInt64/2, 10), 2), e.ErrAmountOverflow)
	assert.Equal(t, 1, cart.Len())
	_, ok := cart.Line(2)
	assert.False(t, ok)

	require.NoError(t, cart.Add(newTestProduct(2, 1, 10), 1))
	require.ErrorIs(t, cart.SetQuantity(newTestProduct(1, math.MaxInt64/2, 10), 3), e.ErrAmountOverflow)

	line, _ := cart.Line(1)
	assert.Equal(t, int64(1), line.Quantity)

	total, err := cart.Total()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64/2+1), total)
}

func TestCart_LinesReturnsCopy(t *testing.T) {
	cart := NewCart("c1", time.Now())
	require.NoError(t, cart.Add(newTestProduct(1, 250, 5), 1))

	lines := cart.Lines()
	lines[0].Quantity = 100

	line, _ := cart.Line(1)
	assert.Equal(t, int64(1), line.Quantity)
}

func TestNewSale_FreezesLines(t *testing.T) {
	lines := []CartLine{
		{ProductID: 1, Name: "Pan", UnitPrice: 250, Quantity: 3},
		{ProductID: 2, Name: "Leche", UnitPrice: 1999, Quantity: 2},
	}

	sale, err := NewSale("s1", time.Now(), NewCustomer(" Ana ", "0102"), lines)
	require.NoError(t, err)

	lines[0].Quantity = 50
	assert.Equal(t, int64(3), sale.Items[0].Quantity)
	assert.Equal(t, int64(750), sale.Items[0].LineTotal)
	assert.Equal(t, int64(750+3998), sale.Total)
	assert.Equal(t, "Ana", sale.Customer.Name)

	clone := sale.Clone()
	clone.Items[0].Quantity = 9
	assert.Equal(t, int64(3), sale.Items[0].Quantity)
	assert.Equal(t, map[int64]int64{1: 3, 2: 2}, sale.Quantities())
}

func TestCustomer_Validate(t *testing.T) {
	require.NoError(t, NewCustomer("Ana", "0102").Validate())
	require.ErrorIs(t, NewCustomer("  ", "0102").Validate(), e.ErrMissingCustomerInfo)
	require.ErrorIs(t, NewCustomer("Ana", "").Validate(), e.ErrMissingCustomerInfo)
}

func TestProduct_IsLowStock(t *testing.T) {
	p := &Product{Stock: 5}
	assert.True(t, p.IsLowStock(10))

	minStock := int64(3)
	p.MinStock = &minStock
	assert.False(t, p.IsLowStock(10))
}
