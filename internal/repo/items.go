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

type itemRepo struct {
	base
}

func NewItemRepo(db *sqlx.DB) *itemRepo {
	return &itemRepo{base: newBase(db)}
}

func (r *itemRepo) ListItems(ctx context.Context) ([]entities.Item, error) {
	query, args := r.qb.Select("id", "name", "description", "price", "currency").
		From("items").
		OrderBy("name").
		MustSql()

	var items []Item
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}

	result := make([]entities.Item, 0, len(items))
	for _, it := range items {
		result = append(result, ItemToEntity(it))
	}
	return result, nil
}

func (r *itemRepo) GetItemByID(ctx context.Context, itemID string) (entities.Item, error) {
	query, args := r.qb.Select("id", "name", "description", "price", "currency").
		From("items").
		Where(sq.Eq{"id": itemID}).
		MustSql()

	var item Item
	err := r.getContext(ctx, &item, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Item{}, entities.ErrItemNotFound
	}
	if err != nil {
		return entities.Item{}, fmt.Errorf("failed to get item: %w", err)
	}

	return ItemToEntity(item), nil
}
