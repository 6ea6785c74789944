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

type ruleRepo struct {
	base
}

func NewRuleRepo(db *sqlx.DB) *ruleRepo {
	return &ruleRepo{base: newBase(db)}
}

var ruleColumns = []string{"id", "kind", "name", "percentage", "is_active"}

func (r *ruleRepo) CreateRule(ctx context.Context, rule entities.Rule) error {
	query, args := r.qb.Insert("rules").
		Columns(ruleColumns...).
		Values(rule.ID, string(rule.Kind), rule.Name, rule.Percentage, rule.IsActive).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

func (r *ruleRepo) ListRules(ctx context.Context, kind entities.RuleKind) ([]entities.Rule, error) {
	q := r.qb.Select(ruleColumns...).From("rules").OrderBy("kind", "name")
	if kind != "" {
		q = q.Where(sq.Eq{"kind": string(kind)})
	}
	query, args := q.MustSql()

	var rules []Rule
	if err := r.selectContext(ctx, &rules, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select rules: %w", err)
	}

	result := make([]entities.Rule, 0, len(rules))
	for _, rl := range rules {
		result = append(result, RuleToEntity(rl))
	}
	return result, nil
}

// GetActiveRule returns the single active rule of the given kind, or nil when
// none is active.
func (r *ruleRepo) GetActiveRule(ctx context.Context, kind entities.RuleKind) (*entities.Rule, error) {
	query, args := r.qb.Select(ruleColumns...).
		From("rules").
		Where(sq.Eq{"kind": string(kind), "is_active": true}).
		MustSql()

	var rule Rule
	err := r.getContext(ctx, &rule, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active rule: %w", err)
	}

	entity := RuleToEntity(rule)
	return &entity, nil
}

// ActivateRule deactivates every rule of the target's kind and activates the
// target. Callers run it inside a transaction so the two updates are atomic;
// a partial unique index on (kind) WHERE is_active backs the invariant.
func (r *ruleRepo) ActivateRule(ctx context.Context, ruleID string) error {
	query, args := r.qb.Update("rules").
		Set("is_active", false).
		Where(sq.Expr("kind = (SELECT kind FROM rules WHERE id = ?)", ruleID)).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to deactivate rules: %w", err)
	}

	query, args = r.qb.Update("rules").
		Set("is_active", true).
		Where(sq.Eq{"id": ruleID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to activate rule: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrRuleNotFound
	}
	return nil
}
