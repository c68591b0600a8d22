package money

import (
	"math"
	"testing"

	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{in: "2.50", want: 250},
		{in: "600", want: 60000},
		{in: " 19.99 ", want: 1999},
		{in: "0.1", want: 10},
		{in: "7.500", want: 750},
		{in: "0", want: 0},
		{in: "7.505", wantErr: e.ErrPricePrecision},
		{in: "-1", wantErr: e.ErrInvalidPrice},
		{in: "abc", wantErr: e.ErrInvalidPrice},
		{in: "", wantErr: e.ErrInvalidPrice},
		{in: "1000000001", wantErr: e.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromDecimal_RoundsHalfAwayFromZero(t *testing.T) {
	cents, err := FromDecimal(decimal.RequireFromString("0.125"))
	require.NoError(t, err)
	assert.Equal(t, int64(13), cents)

	cents, err = FromDecimal(decimal.NewFromFloat(19.99))
	require.NoError(t, err)
	assert.Equal(t, int64(1999), cents)

	_, err = FromDecimal(decimal.RequireFromString("-0.01"))
	require.ErrorIs(t, err, e.ErrInvalidPrice)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "7.50", Format(750))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "1234.01", Format(123401))
}

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity("3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), q)

	q, err = ParseQuantity(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), q)

	for _, in := range []string{"0", "-2", "1.5", "", "x", "1000001", "3.0", "1e2", "+3", "0x10", "00"} {
		_, err := ParseQuantity(in)
		assert.ErrorIs(t, err, e.ErrInvalidQuantity, in)
	}
}

func TestLineTotal_Overflow(t *testing.T) {
	total, err := LineTotal(250, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(750), total)

	_, err = LineTotal(math.MaxInt64/2, 3)
	require.ErrorIs(t, err, e.ErrAmountOverflow)

	_, err = Add(math.MaxInt64, 1)
	require.ErrorIs(t, err, e.ErrAmountOverflow)
}

// Сумма в центах не зависит от порядка суммирования, в отличие от float64.
func TestIntegerCentsAreOrderIndependent(t *testing.T) {
	prices := []string{"0.10", "0.20", "0.30", "19.99", "2.50", "0.01"}
	qtys := []int64{3, 7, 1, 2, 5, 9}

	var forward, backward int64
	for i := range prices {
		p, err := ParsePrice(prices[i])
		require.NoError(t, err)
		forward += p * qtys[i]
	}
	for i := len(prices) - 1; i >= 0; i-- {
		p, err := ParsePrice(prices[i])
		require.NoError(t, err)
		backward += p * qtys[i]
	}

	assert.Equal(t, forward, backward)
	assert.Equal(t, "54.57", Format(forward))
}
