package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/pkg/utils"
)

type ItemRepo interface {
	ListItems(ctx context.Context) ([]entities.Item, error)
	GetItemByID(ctx context.Context, itemID string) (entities.Item, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type itemService struct {
	logger *slog.Logger
	repo   ItemRepo
	cache  Cache
}

func NewItemService(logger *slog.Logger, repo ItemRepo, cache Cache) *itemService {
	return &itemService{
		logger: logger.With(slog.String("service", "item")),
		repo:   repo,
		cache:  cache,
	}
}

func (s *itemService) ListItems(ctx context.Context) ([]entities.Item, error) {
	var items []entities.Item
	fn := func() error {
		var err error
		items, err = s.repo.ListItems(ctx)
		return err
	}
	if err := utils.Retry(readRetryConfig, fn); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *itemService) GetItemByID(ctx context.Context, itemID string) (entities.Item, error) {
	if data, ok := s.cache.Get(itemID); ok {
		var item entities.Item
		if err := item.Unmarshal(data); err != nil {
			s.logger.Error("failed to unmarshal item", slog.String("item_id", itemID), slog.Any("error", err))
			return entities.Item{}, err
		}
		return item, nil
	}

	var item entities.Item
	fn := func() error {
		var err error
		item, err = s.repo.GetItemByID(ctx, itemID)
		return err
	}
	if err := utils.Retry(readRetryConfig, fn, entities.ErrItemNotFound); err != nil {
		return entities.Item{}, err
	}

	data, err := item.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal item", slog.String("item_id", itemID), slog.Any("error", err))
		return entities.Item{}, err
	}
	s.cache.Set(itemID, data)
	return item, nil
}

var readRetryConfig = utils.RetryConfig{
	InitialDelay: 100 * time.Millisecond,
	MaxAttempts:  5,
	Multiplier:   2,
}
