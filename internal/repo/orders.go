package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/internal/pricing"
)

type orderRepo struct {
	base
}

func NewOrderRepo(db *sqlx.DB) *orderRepo {
	return &orderRepo{base: newBase(db)}
}

var orderColumns = []string{
	"id", "created_at", "payment_status", "stripe_payment_intent_id",
	"order_currency", "subtotal", "discount_amount", "tax_amount", "total",
}

// CreateOrder inserts the order shell. Totals start at zero and are written
// once by UpdateTotals within the same build transaction.
func (r *orderRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns("id", "created_at", "payment_status", "order_currency").
		Values(o.ID, o.CreatedAt, string(o.PaymentStatus), o.Currency).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepo) SaveLineItems(ctx context.Context, orderID string, items []entities.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("id", "order_id", "item_id", "quantity", "unit_price")

	for _, it := range items {
		q = q.Values(it.ID, orderID, it.Item.ID, it.Quantity, it.UnitPrice)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order items: %w", err)
	}
	return nil
}

func (r *orderRepo) UpdateTotals(ctx context.Context, orderID string, quote pricing.Quote) error {
	query, args := r.qb.Update("orders").
		Set("subtotal", quote.Subtotal).
		Set("discount_amount", quote.DiscountAmount).
		Set("tax_amount", quote.TaxAmount).
		Set("total", quote.Total).
		Where(sq.Eq{"id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	return requireOrderAffected(res)
}

func (r *orderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.orderItems(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items), nil
}

// GetOrderForUpdate locks the order row for the rest of the surrounding
// transaction. Line items are not loaded; the payment state machine only needs
// the order's own fields.
func (r *orderRepo) GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		Suffix("FOR UPDATE").
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to lock order: %w", err)
	}

	return OrderToEntity(order, nil), nil
}

func (r *orderRepo) SetPaymentIntent(ctx context.Context, orderID, intentID string) error {
	query, args := r.qb.Update("orders").
		Set("stripe_payment_intent_id", nullString(intentID)).
		Where(sq.Eq{"id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	return requireOrderAffected(res)
}

func (r *orderRepo) UpdatePaymentStatus(ctx context.Context, orderID string, status entities.PaymentStatus) error {
	query, args := r.qb.Update("orders").
		Set("payment_status", string(status)).
		Where(sq.Eq{"id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return requireOrderAffected(res)
}

func (r *orderRepo) orderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	query, args := r.qb.Select(
		"oi.id", "oi.order_id", "oi.quantity", "oi.unit_price",
		"i.id AS item_id", "i.name AS item_name", "i.description AS item_description",
		"i.price AS item_price", "i.currency AS item_currency",
	).
		From("order_items oi").
		Join("items i ON i.id = oi.item_id").
		Where(sq.Eq{"oi.order_id": orderID}).
		OrderBy("oi.id").
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}
	return items, nil
}

func requireOrderAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}
