package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the single-letter payment state stored on an order.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "P"
	PaymentComplete  PaymentStatus = "C"
	PaymentFailed    PaymentStatus = "F"
	PaymentCancelled PaymentStatus = "X"
)

// Terminal reports whether no further transitions are allowed from s.
// Failed is not terminal: a failed payment may still be cancelled or retried.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentComplete || s == PaymentCancelled
}

type Order struct {
	ID              string
	CreatedAt       time.Time
	PaymentStatus   PaymentStatus
	PaymentIntentID string
	Currency        string

	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal

	Items []OrderLineItem
}

// OrderLineItem is a snapshot of one purchased item. UnitPrice is fixed in the
// order's currency at build time and does not follow later catalog changes.
type OrderLineItem struct {
	ID        string
	Item      Item
	Quantity  int32
	UnitPrice decimal.Decimal
}
