// Package pricing computes order totals from priced line items and the
// currently active percentage rules. It is pure: callers persist the result.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line is one (quantity, unit price) pair, already in the order's currency.
type Line struct {
	Quantity  int32
	UnitPrice decimal.Decimal
}

// Quote is the monetary breakdown stored on an order. All four values carry
// exactly two fraction digits and satisfy
// Total == Subtotal - DiscountAmount + TaxAmount.
type Quote struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Price computes the quote for the given lines. discountPct and taxPct are
// percentages in [0, 100]; pass zero when no rule of that kind is active.
//
// Intermediate arithmetic is exact; banker's rounding to two places is applied
// to the discount and tax once, and the total is assembled from the rounded
// parts so the stored invariant holds without a reconciliation step.
func Price(lines []Line, discountPct, taxPct decimal.Decimal) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		subtotal = subtotal.Add(l.UnitPrice.Mul(qty))
	}
	subtotal = subtotal.RoundBank(2)

	discount := subtotal.Mul(discountPct).Div(hundred).RoundBank(2)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxPct).Div(hundred).RoundBank(2)

	return Quote{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable.Add(tax),
	}
}
