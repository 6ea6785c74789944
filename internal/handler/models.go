package handler

import (
	"time"

	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/internal/service"
)

// Item представляет товар каталога
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
}

// Order представляет заказ с рассчитанными суммами
type Order struct {
	ID                    string          `json:"id"`
	CreatedAt             time.Time       `json:"created_at"`
	PaymentStatus         string          `json:"payment_status"`
	StripePaymentIntentID string          `json:"stripe_payment_intent_id,omitempty"`
	Items                 []OrderLineItem `json:"items"`
	Subtotal              string          `json:"subtotal"`
	DiscountAmount        string          `json:"discount_amount"`
	TaxAmount             string          `json:"tax_amount"`
	Total                 string          `json:"total"`
	OrderCurrency         string          `json:"order_currency"`
}

type OrderLineItem struct {
	ID        string `json:"id"`
	Item      Item   `json:"item"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type Cart struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Items     []CartLineItem `json:"items"`
}

type CartLineItem struct {
	ID       string `json:"id"`
	Item     Item   `json:"item"`
	Quantity int32  `json:"quantity"`
}

type Rule struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Percentage string `json:"percentage"`
	IsActive   bool   `json:"is_active"`
}

type PaymentSession struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

type ConfirmResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateOrderRequest struct {
	CartID   string `json:"cart_id" validate:"required,uuid4"`
	Currency string `json:"currency" validate:"required,len=3"`
}

type AddCartItemRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid4"`
	Quantity int32  `json:"quantity" validate:"omitempty,gte=1"`
}

type PaymentRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid4"`
}

type CreateRuleRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=discount tax"`
	Name       string `json:"name" validate:"required"`
	Percentage string `json:"percentage" validate:"required"`
}

func ItemEntityToJSON(i entities.Item) Item {
	return Item{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price.StringFixed(2),
		Currency:    i.Currency,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderLineItem, 0, len(o.Items))
	for _, line := range o.Items {
		items = append(items, OrderLineItem{
			ID:        line.ID,
			Item:      ItemEntityToJSON(line.Item),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
		})
	}

	return Order{
		ID:                    o.ID,
		CreatedAt:             o.CreatedAt,
		PaymentStatus:         string(o.PaymentStatus),
		StripePaymentIntentID: o.PaymentIntentID,
		Items:                 items,
		Subtotal:              o.Subtotal.StringFixed(2),
		DiscountAmount:        o.DiscountAmount.StringFixed(2),
		TaxAmount:             o.TaxAmount.StringFixed(2),
		Total:                 o.Total.StringFixed(2),
		OrderCurrency:         o.Currency,
	}
}

func CartEntityToJSON(c entities.Cart) Cart {
	items := make([]CartLineItem, 0, len(c.Items))
	for _, line := range c.Items {
		items = append(items, CartLineItem{
			ID:       line.ID,
			Item:     ItemEntityToJSON(line.Item),
			Quantity: line.Quantity,
		})
	}

	return Cart{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Items:     items,
	}
}

func RuleEntityToJSON(r entities.Rule) Rule {
	return Rule{
		ID:         r.ID,
		Kind:       string(r.Kind),
		Name:       r.Name,
		Percentage: r.Percentage.StringFixed(2),
		IsActive:   r.IsActive,
	}
}

func SessionToJSON(s service.Session) PaymentSession {
	return PaymentSession{
		ClientSecret:    s.ClientSecret,
		PaymentIntentID: s.PaymentIntentID,
		Amount:          s.Amount.StringFixed(2),
		Currency:        s.Currency,
	}
}
