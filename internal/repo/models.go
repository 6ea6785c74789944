package repo

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evgkirov/shop-service/internal/entities"
)

type Item struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description sql.NullString  `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Currency    string          `db:"currency"`
}

type Order struct {
	ID              string          `db:"id"`
	CreatedAt       time.Time       `db:"created_at"`
	PaymentStatus   string          `db:"payment_status"`
	PaymentIntentID sql.NullString  `db:"stripe_payment_intent_id"`
	Currency        string          `db:"order_currency"`
	Subtotal        decimal.Decimal `db:"subtotal"`
	DiscountAmount  decimal.Decimal `db:"discount_amount"`
	TaxAmount       decimal.Decimal `db:"tax_amount"`
	Total           decimal.Decimal `db:"total"`
}

// OrderItem is an order line joined with its catalog item.
type OrderItem struct {
	ID        string          `db:"id"`
	OrderID   string          `db:"order_id"`
	Quantity  int32           `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`

	ItemID          string          `db:"item_id"`
	ItemName        string          `db:"item_name"`
	ItemDescription sql.NullString  `db:"item_description"`
	ItemPrice       decimal.Decimal `db:"item_price"`
	ItemCurrency    string          `db:"item_currency"`
}

type Rule struct {
	ID         string          `db:"id"`
	Kind       string          `db:"kind"`
	Name       string          `db:"name"`
	Percentage decimal.Decimal `db:"percentage"`
	IsActive   bool            `db:"is_active"`
}

type Cart struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CartItem is a cart line joined with its catalog item.
type CartItem struct {
	ID       string `db:"id"`
	CartID   string `db:"cart_id"`
	Quantity int32  `db:"quantity"`

	ItemID          string          `db:"item_id"`
	ItemName        string          `db:"item_name"`
	ItemDescription sql.NullString  `db:"item_description"`
	ItemPrice       decimal.Decimal `db:"item_price"`
	ItemCurrency    string          `db:"item_currency"`
}

func ItemToEntity(i Item) entities.Item {
	return entities.Item{
		ID:          i.ID,
		Name:        i.Name,
		Description: nullStringToString(i.Description),
		Price:       i.Price,
		Currency:    i.Currency,
	}
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:              o.ID,
		CreatedAt:       o.CreatedAt,
		PaymentStatus:   entities.PaymentStatus(o.PaymentStatus),
		PaymentIntentID: nullStringToString(o.PaymentIntentID),
		Currency:        o.Currency,
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		TaxAmount:       o.TaxAmount,
		Total:           o.Total,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderLineItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, entities.OrderLineItem{
				ID:        it.ID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				Item: entities.Item{
					ID:          it.ItemID,
					Name:        it.ItemName,
					Description: nullStringToString(it.ItemDescription),
					Price:       it.ItemPrice,
					Currency:    it.ItemCurrency,
				},
			})
		}
	}

	return order
}

func RuleToEntity(r Rule) entities.Rule {
	return entities.Rule{
		ID:         r.ID,
		Kind:       entities.RuleKind(r.Kind),
		Name:       r.Name,
		Percentage: r.Percentage,
		IsActive:   r.IsActive,
	}
}

func CartToEntity(c Cart, items []CartItem) entities.Cart {
	cart := entities.Cart{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	if len(items) > 0 {
		cart.Items = make([]entities.CartLineItem, 0, len(items))
		for _, it := range items {
			cart.Items = append(cart.Items, entities.CartLineItem{
				ID:       it.ID,
				Quantity: it.Quantity,
				Item: entities.Item{
					ID:          it.ItemID,
					Name:        it.ItemName,
					Description: nullStringToString(it.ItemDescription),
					Price:       it.ItemPrice,
					Currency:    it.ItemCurrency,
				},
			})
		}
	}

	return cart
}
