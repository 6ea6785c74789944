package entities

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrRuleNotFound  = errors.New("rule not found")

	// ErrCartNotFound covers both a missing cart and a cart consumed by a
	// concurrent order build.
	ErrCartNotFound = errors.New("cart not found")
	ErrCartEmpty    = errors.New("cart is empty")

	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrNoPaymentSession is returned by confirm when no payment session has
	// been created for the order yet.
	ErrNoPaymentSession = errors.New("order has no payment session")
)

// InvalidStateError is a guard-clause rejection from the payment state
// machine. Reason names the offending state and is safe to show to clients.
type InvalidStateError struct {
	Status PaymentStatus
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

func NewInvalidState(status PaymentStatus, reason string) *InvalidStateError {
	return &InvalidStateError{Status: status, Reason: reason}
}

// GatewayError wraps a payment provider failure. No local state is mutated
// when one is returned.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
