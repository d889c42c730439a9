package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeEmptyCart(t *testing.T) {
	out, err := Compute(nil, Rates{DiscountPct: 10, ChargePct: 5, TaxPct: 8})
	require.NoError(t, err)
	require.Equal(t, Money(0), out.Subtotal)
	require.Zero(t, out.Total)
}

func TestComputeZeroRates(t *testing.T) {
	lines := []Line{{Qty: 3, UnitPrice: 1200}}
	out, err := Compute(lines, Rates{})
	require.NoError(t, err)
	require.Equal(t, Money(3600), out.Subtotal)
	require.Equal(t, float64(3600), out.Total)
	require.Zero(t, out.Discount)
	require.Zero(t, out.Charge)
	require.Zero(t, out.Tax)
}

func TestComputeReferenceScenario(t *testing.T) {
	// Item A: 5.00 x2, Item B: 3.00 x1 with 10% discount, 5% charge, 8% tax.
	lines := []Line{
		{Qty: 2, UnitPrice: 500},
		{Qty: 1, UnitPrice: 300},
	}
	out, err := Compute(lines, Rates{DiscountPct: 10, ChargePct: 5, TaxPct: 8})
	require.NoError(t, err)
	require.Equal(t, Money(1300), out.Subtotal)
	require.Equal(t, 130.0, out.Discount)
	require.Equal(t, 65.0, out.Charge)
	require.Equal(t, 104.0, out.Tax)
	require.Equal(t, 1339.0, out.Total)

	rounded := out.Round()
	require.Equal(t, Money(130), rounded.Discount)
	require.Equal(t, Money(65), rounded.Charge)
	require.Equal(t, Money(104), rounded.Tax)
	require.Equal(t, Money(1339), rounded.Total)
}

func TestComputeRatesNotCompounded(t *testing.T) {
	// Each percentage must apply to the subtotal, not to an already
	// discounted base. With compounding the tax here would be 90, not 100.
	lines := []Line{{Qty: 1, UnitPrice: 1000}}
	out, err := Compute(lines, Rates{DiscountPct: 10, TaxPct: 10})
	require.NoError(t, err)
	require.Equal(t, 100.0, out.Discount)
	require.Equal(t, 100.0, out.Tax)
	require.Equal(t, 1000.0, out.Total)
}

func TestComputeNegativeRateRejected(t *testing.T) {
	lines := []Line{{Qty: 1, UnitPrice: 500}}
	for _, rates := range []Rates{
		{DiscountPct: -1},
		{ChargePct: -0.5},
		{TaxPct: -10},
	} {
		_, err := Compute(lines, rates)
		require.ErrorIs(t, err, ErrInvalidRate)
	}
}

func TestComputeOrderIndependent(t *testing.T) {
	rates := Rates{DiscountPct: 7.5, ChargePct: 2, TaxPct: 11}
	a := []Line{{Qty: 2, UnitPrice: 450}, {Qty: 1, UnitPrice: 990}, {Qty: 4, UnitPrice: 125}}
	b := []Line{a[2], a[0], a[1]}
	first, err := Compute(a, rates)
	require.NoError(t, err)
	second, err := Compute(b, rates)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestComputeIdempotent(t *testing.T) {
	lines := []Line{{Qty: 3, UnitPrice: 333}}
	rates := Rates{DiscountPct: 12.5, ChargePct: 3.3, TaxPct: 8.25}
	first, err := Compute(lines, rates)
	require.NoError(t, err)
	second, err := Compute(lines, rates)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestComputeSkipsNonPositiveQty(t *testing.T) {
	lines := []Line{{Qty: 0, UnitPrice: 900}, {Qty: -2, UnitPrice: 900}, {Qty: 1, UnitPrice: 250}}
	out, err := Compute(lines, Rates{})
	require.NoError(t, err)
	require.Equal(t, Money(250), out.Subtotal)
}

func TestComputeAllowsRatesAboveHundred(t *testing.T) {
	lines := []Line{{Qty: 1, UnitPrice: 100}}
	out, err := Compute(lines, Rates{DiscountPct: 150})
	require.NoError(t, err)
	require.Equal(t, 150.0, out.Discount)
	require.Equal(t, -50.0, out.Total)
}
