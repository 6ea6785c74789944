package entities

import "time"

// Cart is a pre-order staging list. It is consumed and deleted in full when an
// order is successfully built from it.
type Cart struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []CartLineItem
}

type CartLineItem struct {
	ID       string
	Item     Item
	Quantity int32
}
