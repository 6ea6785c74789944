package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/pkg/trm"
)

type RuleRepo interface {
	CreateRule(ctx context.Context, rule entities.Rule) error
	ListRules(ctx context.Context, kind entities.RuleKind) ([]entities.Rule, error)
	GetActiveRule(ctx context.Context, kind entities.RuleKind) (*entities.Rule, error)
	ActivateRule(ctx context.Context, ruleID string) error
}

type ruleService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      RuleRepo
}

func NewRuleService(logger *slog.Logger, txManager trm.Manager, repo RuleRepo) *ruleService {
	return &ruleService{
		logger:    logger.With(slog.String("service", "rule")),
		txManager: txManager,
		repo:      repo,
	}
}

func (s *ruleService) CreateRule(ctx context.Context, kind entities.RuleKind, name string, percentage decimal.Decimal) (entities.Rule, error) {
	rule := entities.Rule{
		ID:         uuid.NewString(),
		Kind:       kind,
		Name:       name,
		Percentage: percentage,
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return entities.Rule{}, err
	}

	s.logger.Debug("rule created", slog.String("rule_id", rule.ID), slog.String("kind", string(kind)))
	return rule, nil
}

func (s *ruleService) ListRules(ctx context.Context, kind entities.RuleKind) ([]entities.Rule, error) {
	return s.repo.ListRules(ctx, kind)
}

// ActivateRule makes the rule the only active one of its kind. Deactivation
// and activation run in one transaction so at most one rule per kind is ever
// active.
func (s *ruleService) ActivateRule(ctx context.Context, ruleID string) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.ActivateRule(ctx, ruleID)
	})
}

func (s *ruleService) GetActiveRule(ctx context.Context, kind entities.RuleKind) (*entities.Rule, error) {
	return s.repo.GetActiveRule(ctx, kind)
}
