package entities

import "github.com/shopspring/decimal"

// RuleKind distinguishes the two percentage rule tables' rows.
type RuleKind string

const (
	RuleDiscount RuleKind = "discount"
	RuleTax      RuleKind = "tax"
)

func (k RuleKind) Valid() bool {
	return k == RuleDiscount || k == RuleTax
}

// Rule is a percentage applied during pricing. At most one rule of each kind
// is active at any time; activating a rule deactivates its siblings.
type Rule struct {
	ID         string
	Kind       RuleKind
	Name       string
	Percentage decimal.Decimal
	IsActive   bool
}
