package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/evgkirov/shop-service/internal/entities"
)

type CartStore interface {
	CreateCart(ctx context.Context, cart entities.Cart) error
	GetCart(ctx context.Context, cartID string) (entities.Cart, error)
	AddItem(ctx context.Context, lineID, cartID, itemID string, quantity int32) error
	DeleteCart(ctx context.Context, cartID string) error
}

type cartService struct {
	logger *slog.Logger
	repo   CartStore
	items  ItemGetter
}

func NewCartService(logger *slog.Logger, repo CartStore, items ItemGetter) *cartService {
	return &cartService{
		logger: logger.With(slog.String("service", "cart")),
		repo:   repo,
		items:  items,
	}
}

func (s *cartService) CreateCart(ctx context.Context) (entities.Cart, error) {
	now := time.Now().UTC()
	cart := entities.Cart{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return entities.Cart{}, err
	}

	s.logger.Debug("cart created", slog.String("cart_id", cart.ID))
	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, cartID string) (entities.Cart, error) {
	return s.repo.GetCart(ctx, cartID)
}

// AddItem adds quantity units of the item to the cart, merging with an
// existing line for the same item.
func (s *cartService) AddItem(ctx context.Context, cartID, itemID string, quantity int32) (entities.Cart, error) {
	if _, err := s.items.GetItemByID(ctx, itemID); err != nil {
		return entities.Cart{}, err
	}
	if err := s.repo.AddItem(ctx, uuid.NewString(), cartID, itemID, quantity); err != nil {
		return entities.Cart{}, err
	}
	return s.repo.GetCart(ctx, cartID)
}

func (s *cartService) DeleteCart(ctx context.Context, cartID string) error {
	return s.repo.DeleteCart(ctx, cartID)
}
