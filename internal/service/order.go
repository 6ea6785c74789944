package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/internal/pricing"
	"github.com/evgkirov/shop-service/pkg/trm"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, o entities.Order) error
	SaveLineItems(ctx context.Context, orderID string, items []entities.OrderLineItem) error
	UpdateTotals(ctx context.Context, orderID string, quote pricing.Quote) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
}

type CartRepo interface {
	GetCartForUpdate(ctx context.Context, cartID string) (entities.Cart, error)
	DeleteCart(ctx context.Context, cartID string) error
}

type ItemGetter interface {
	GetItemByID(ctx context.Context, itemID string) (entities.Item, error)
}

type RuleReader interface {
	GetActiveRule(ctx context.Context, kind entities.RuleKind) (*entities.Rule, error)
}

// Converter converts catalog prices into the order's currency.
type Converter interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
	Supported(code string) bool
	Base() string
}

// EventPublisher emits order lifecycle events. Implementations must not fail
// the calling operation.
type EventPublisher interface {
	OrderCreated(ctx context.Context, order entities.Order)
	PaymentStatusChanged(ctx context.Context, orderID string, from, to entities.PaymentStatus)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	carts     CartRepo
	items     ItemGetter
	rules     RuleReader
	converter Converter
	events    EventPublisher
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders OrderRepo,
	carts CartRepo,
	items ItemGetter,
	rules RuleReader,
	converter Converter,
	events EventPublisher,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		carts:     carts,
		items:     items,
		rules:     rules,
		converter: converter,
		events:    events,
	}
}

// BuildOrderFromCart builds a priced order from the cart's contents and
// consumes the cart. Everything runs in one transaction: a failure at any step
// leaves no order and an intact cart, and a concurrent build of the same cart
// serializes on the cart row lock and fails with ErrCartNotFound.
func (s *orderService) BuildOrderFromCart(ctx context.Context, cartID, targetCurrency string) (entities.Order, error) {
	if !s.converter.Supported(targetCurrency) {
		return entities.Order{}, fmt.Errorf("%w: %s", entities.ErrUnsupportedCurrency, targetCurrency)
	}

	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetCartForUpdate(ctx, cartID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return entities.ErrCartEmpty
		}

		sources := make([]sourceLine, 0, len(cart.Items))
		for _, line := range cart.Items {
			sources = append(sources, sourceLine{item: line.Item, quantity: line.Quantity})
		}

		order, err = s.buildOrder(ctx, sources, targetCurrency)
		if err != nil {
			return err
		}

		return s.carts.DeleteCart(ctx, cartID)
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Debug("order built from cart",
		slog.String("order_id", order.ID), slog.String("cart_id", cartID))
	s.events.OrderCreated(ctx, order)
	return order, nil
}

// BuildOrderFromItem builds an order for a single catalog item with quantity 1.
func (s *orderService) BuildOrderFromItem(ctx context.Context, itemID, targetCurrency string) (entities.Order, error) {
	if !s.converter.Supported(targetCurrency) {
		return entities.Order{}, fmt.Errorf("%w: %s", entities.ErrUnsupportedCurrency, targetCurrency)
	}

	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		item, err := s.items.GetItemByID(ctx, itemID)
		if err != nil {
			return err
		}

		order, err = s.buildOrder(ctx, []sourceLine{{item: item, quantity: 1}}, targetCurrency)
		return err
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Debug("order built from item",
		slog.String("order_id", order.ID), slog.String("item_id", itemID))
	s.events.OrderCreated(ctx, order)
	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	return s.orders.GetOrderByID(ctx, orderID)
}

type sourceLine struct {
	item     entities.Item
	quantity int32
}

// buildOrder runs inside the caller's transaction: creates the order shell,
// snapshots converted unit prices, persists the lines in bulk, prices the
// order with the currently active rules and writes the totals.
func (s *orderService) buildOrder(ctx context.Context, sources []sourceLine, targetCurrency string) (entities.Order, error) {
	order := entities.Order{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		PaymentStatus: entities.PaymentPending,
		Currency:      targetCurrency,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return entities.Order{}, err
	}

	lines := make([]entities.OrderLineItem, 0, len(sources))
	for _, src := range sources {
		unitPrice, err := s.converter.Convert(src.item.Price, src.item.Currency, targetCurrency)
		if err != nil {
			return entities.Order{}, err
		}

		lines = append(lines, entities.OrderLineItem{
			ID:        uuid.NewString(),
			Item:      src.item,
			Quantity:  src.quantity,
			UnitPrice: unitPrice.RoundBank(2),
		})
	}

	if err := s.orders.SaveLineItems(ctx, order.ID, lines); err != nil {
		return entities.Order{}, err
	}

	discountPct, taxPct := decimal.Zero, decimal.Zero
	if rule, err := s.rules.GetActiveRule(ctx, entities.RuleDiscount); err != nil {
		return entities.Order{}, err
	} else if rule != nil {
		discountPct = rule.Percentage
	}
	if rule, err := s.rules.GetActiveRule(ctx, entities.RuleTax); err != nil {
		return entities.Order{}, err
	} else if rule != nil {
		taxPct = rule.Percentage
	}

	priceLines := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		priceLines = append(priceLines, pricing.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	quote := pricing.Price(priceLines, discountPct, taxPct)

	if err := s.orders.UpdateTotals(ctx, order.ID, quote); err != nil {
		return entities.Order{}, err
	}

	order.Items = lines
	order.Subtotal = quote.Subtotal
	order.DiscountAmount = quote.DiscountAmount
	order.TaxAmount = quote.TaxAmount
	order.Total = quote.Total
	return order, nil
}
