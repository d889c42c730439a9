package billing

import (
	"errors"
	"math"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// ErrInvalidRate is returned when a rate configuration carries a negative percentage.
var ErrInvalidRate = errors.New("invalid rate config")

// Line describes a cart line used for bill calculation.
type Line struct {
	Qty       int
	UnitPrice Money
}

// Rates holds the externally sourced percentages applied to a bill.
// The zero value means no discount, no charge, and no tax.
type Rates struct {
	DiscountPct float64 `json:"discountPct"`
	ChargePct   float64 `json:"chargePct"`
	TaxPct      float64 `json:"taxPct"`
}

// Valid reports whether every percentage is non-negative. Percentages above
// 100 are allowed; only negative values are rejected.
func (r Rates) Valid() bool {
	return r.DiscountPct >= 0 && r.ChargePct >= 0 && r.TaxPct >= 0
}

// Breakdown aggregates the computed bill components. Amounts are kept in
// full-precision minor units; rounding happens only in Round.
type Breakdown struct {
	Subtotal Money
	Discount float64
	Charge   float64
	Tax      float64
	Total    float64
}

// Rounded is the presentation form of a Breakdown, rounded to whole minor units.
type Rounded struct {
	Subtotal Money `json:"subtotal"`
	Discount Money `json:"discount"`
	Charge   Money `json:"charge"`
	Tax      Money `json:"tax"`
	Total    Money `json:"total"`
}

// Compute calculates bill totals for the provided lines and rates.
//
// Discount, charge, and tax are each taken from the subtotal independently;
// none of them changes the base the others are computed from. The result is
// a pure function of its inputs: no state is read or written, and identical
// inputs produce identical output.
func Compute(lines []Line, rates Rates) (Breakdown, error) {
	if !rates.Valid() {
		return Breakdown{}, ErrInvalidRate
	}
	var subtotal Money
	for _, ln := range lines {
		if ln.Qty <= 0 {
			continue
		}
		subtotal += Money(ln.Qty) * ln.UnitPrice
	}
	base := float64(subtotal)
	discount := base * rates.DiscountPct / 100
	charge := base * rates.ChargePct / 100
	tax := base * rates.TaxPct / 100
	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		Charge:   charge,
		Tax:      tax,
		Total:    base - discount + charge + tax,
	}, nil
}

// Round converts the breakdown to whole minor units for presentation.
func (b Breakdown) Round() Rounded {
	return Rounded{
		Subtotal: b.Subtotal,
		Discount: roundMinor(b.Discount),
		Charge:   roundMinor(b.Charge),
		Tax:      roundMinor(b.Tax),
		Total:    roundMinor(b.Total),
	}
}

func roundMinor(v float64) Money {
	return Money(math.Round(v))
}
