package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/evgkirov/shop-service/internal/entities"
)

type cartRepo struct {
	base
}

func NewCartRepo(db *sqlx.DB) *cartRepo {
	return &cartRepo{base: newBase(db)}
}

func (r *cartRepo) CreateCart(ctx context.Context, cart entities.Cart) error {
	query, args := r.qb.Insert("carts").
		Columns("id", "created_at", "updated_at").
		Values(cart.ID, cart.CreatedAt, cart.UpdatedAt).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (r *cartRepo) GetCart(ctx context.Context, cartID string) (entities.Cart, error) {
	return r.getCart(ctx, cartID, false)
}

// GetCartForUpdate locks the cart row for the surrounding transaction. Order
// builds lock the cart first so concurrent builds of the same cart serialize,
// and the loser observes the deleted cart.
func (r *cartRepo) GetCartForUpdate(ctx context.Context, cartID string) (entities.Cart, error) {
	return r.getCart(ctx, cartID, true)
}

func (r *cartRepo) getCart(ctx context.Context, cartID string, forUpdate bool) (entities.Cart, error) {
	q := r.qb.Select("id", "created_at", "updated_at").
		From("carts").
		Where(sq.Eq{"id": cartID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	query, args := q.MustSql()

	var cart Cart
	err := r.getContext(ctx, &cart, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Cart{}, entities.ErrCartNotFound
	}
	if err != nil {
		return entities.Cart{}, fmt.Errorf("failed to get cart: %w", err)
	}

	items, err := r.cartItems(ctx, cartID)
	if err != nil {
		return entities.Cart{}, err
	}

	return CartToEntity(cart, items), nil
}

// AddItem adds the item to the cart or increments the existing line. The
// cart's updated_at bump doubles as the existence check.
func (r *cartRepo) AddItem(ctx context.Context, lineID, cartID, itemID string, quantity int32) error {
	query, args := r.qb.Update("carts").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": cartID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrCartNotFound
	}

	query, args = r.qb.Insert("cart_items").
		Columns("id", "cart_id", "item_id", "quantity").
		Values(lineID, cartID, itemID, quantity).
		Suffix("ON CONFLICT (cart_id, item_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// DeleteCart removes the cart; line items go with it via ON DELETE CASCADE.
func (r *cartRepo) DeleteCart(ctx context.Context, cartID string) error {
	query, args := r.qb.Delete("carts").
		Where(sq.Eq{"id": cartID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrCartNotFound
	}
	return nil
}

func (r *cartRepo) cartItems(ctx context.Context, cartID string) ([]CartItem, error) {
	query, args := r.qb.Select(
		"ci.id", "ci.cart_id", "ci.quantity",
		"i.id AS item_id", "i.name AS item_name", "i.description AS item_description",
		"i.price AS item_price", "i.currency AS item_currency",
	).
		From("cart_items ci").
		Join("items i ON i.id = ci.item_id").
		Where(sq.Eq{"ci.cart_id": cartID}).
		OrderBy("ci.id").
		MustSql()

	var items []CartItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select cart items: %w", err)
	}
	return items, nil
}
