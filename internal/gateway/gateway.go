// Package gateway mediates all traffic to the external payment provider.
// Orders hold an opaque intent reference; everything else about the charge
// lives on the provider side.
package gateway

import "context"

// Intent mirrors the provider's charge-attempt object.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
	Currency     string
}

// Settled reports the provider's terminal success state.
func (i *Intent) Settled() bool {
	return i.Status == "succeeded"
}

// CreateIntentParams carries everything needed to open a payment session.
// Currency selects the provider account: the two supported currencies are
// charged through independent credential sets.
type CreateIntentParams struct {
	// AmountMinor is the charge amount in the currency's smallest unit.
	AmountMinor int64
	Currency    string
	OrderID     string

	// IdempotencyKey collapses repeated create calls for the same order into
	// one provider-side intent.
	IdempotencyKey string
}

// Client is the request/response contract with the payment provider. Every
// method picks the credential set from the currency passed in, never from
// process-global state.
type Client interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	GetIntent(ctx context.Context, currency, intentID string) (*Intent, error)
	CancelIntent(ctx context.Context, currency, intentID string) error
}
