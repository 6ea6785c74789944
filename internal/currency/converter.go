// Package currency converts catalog prices between the two supported
// currencies using a static configured rate.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/evgkirov/shop-service/internal/entities"
)

// Converter holds the two supported currency codes and the base→secondary
// rate. Only the identity path and base→secondary are supported: catalog
// prices are always denominated in the base currency, so no inverse path
// exists.
type Converter struct {
	base      string
	secondary string
	rate      decimal.Decimal
}

func NewConverter(base, secondary string, rate decimal.Decimal) *Converter {
	return &Converter{base: base, secondary: secondary, rate: rate}
}

func (c *Converter) Base() string { return c.base }

// Supported reports whether code is one of the two configured currencies.
func (c *Converter) Supported(code string) bool {
	return code == c.base || code == c.secondary
}

// Convert returns amount expressed in the target currency. The result is not
// rounded; callers round when snapshotting the value.
func (c *Converter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if !c.Supported(from) {
		return decimal.Zero, fmt.Errorf("%w: %s", entities.ErrUnsupportedCurrency, from)
	}
	if !c.Supported(to) {
		return decimal.Zero, fmt.Errorf("%w: %s", entities.ErrUnsupportedCurrency, to)
	}
	if from == to {
		return amount, nil
	}
	if from != c.base {
		return decimal.Zero, fmt.Errorf("%w: no conversion path from %s to %s",
			entities.ErrUnsupportedCurrency, from, to)
	}
	return amount.Mul(c.rate), nil
}
