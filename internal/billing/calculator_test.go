package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annapurna-pos/backend-billing/internal/money"
)

func mustLine(t *testing.T, name string, qty int, price money.Cents) Line {
	t.Helper()
	ln, err := MakeLine(name, qty, price)
	require.NoError(t, err)
	return ln
}

func TestComputeTotals(t *testing.T) {
	lines := []Line{
		mustLine(t, "Pizza", 2, 20000),
		mustLine(t, "Cold Drink", 1, 5000),
	}

	totals, err := ComputeTotals(lines, 0, 500)
	require.NoError(t, err)
	require.Equal(t, money.Cents(45000), totals.Subtotal)
	require.Equal(t, money.Cents(2250), totals.GST)
	require.Equal(t, money.Cents(0), totals.Discount)
	require.Equal(t, money.Cents(47250), totals.Total)
}

func TestComputeTotalsWithDiscount(t *testing.T) {
	lines := []Line{
		mustLine(t, "Pizza", 2, 20000),
		mustLine(t, "Cold Drink", 1, 5000),
	}

	totals, err := ComputeTotals(lines, 1000, 500)
	require.NoError(t, err)
	require.Equal(t, money.Cents(45000), totals.Subtotal)
	require.Equal(t, money.Cents(4500), totals.Discount)
	require.Equal(t, money.Cents(2250), totals.GST)
	require.Equal(t, money.Cents(42750), totals.Total)
}

func TestComputeTotalsOrderIndependent(t *testing.T) {
	a := []Line{
		mustLine(t, "Paneer Tikka", 3, 1850),
		mustLine(t, "Naan", 7, 499),
		mustLine(t, "Lassi", 1, 12075),
	}
	b := []Line{a[2], a[0], a[1]}

	ta, err := ComputeTotals(a, 750, 500)
	require.NoError(t, err)
	tb, err := ComputeTotals(b, 750, 500)
	require.NoError(t, err)
	require.Equal(t, ta, tb)
	require.Equal(t, ta.Subtotal+ta.GST-ta.Discount, ta.Total)
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	_, err := ComputeTotals(nil, 0, 500)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestMakeLineValidation(t *testing.T) {
	_, err := MakeLine("Pizza", 0, 20000)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = MakeLine("Pizza", -1, 20000)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = MakeLine("Pizza", 1, -1)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = MakeLine("", 1, 100)
	require.ErrorIs(t, err, ErrEmptyItemName)

	ln, err := MakeLine("Pizza", 2, 20000)
	require.NoError(t, err)
	require.Equal(t, money.Cents(40000), ln.LineTotal)
}

func TestParseMode(t *testing.T) {
	for _, raw := range []string{"Dine-In", "Dine-in", "dine in", "DINE_IN"} {
		mode, err := ParseMode(raw)
		require.NoError(t, err, raw)
		require.Equal(t, ModeDineIn, mode)
	}
	mode, err := ParseMode("takeaway")
	require.NoError(t, err)
	require.Equal(t, ModeTakeAway, mode)

	_, err = ParseMode("drive-through")
	require.ErrorIs(t, err, ErrInvalidMode)
	require.False(t, Mode("drive-through").Valid())
	require.True(t, ModeDelivery.Valid())
}
