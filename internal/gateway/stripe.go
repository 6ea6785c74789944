package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/evgkirov/shop-service/internal/entities"
)

// StripeClient implements Client over the Stripe payment-intents API with one
// API client per supported currency.
type StripeClient struct {
	accounts map[string]*client.API
}

// NewStripeClient builds a client from a currency→secret-key mapping. Keys of
// the map define which currencies can be charged.
func NewStripeClient(secretKeys map[string]string) *StripeClient {
	accounts := make(map[string]*client.API, len(secretKeys))
	for cur, key := range secretKeys {
		api := &client.API{}
		api.Init(key, nil)
		accounts[cur] = api
	}
	return &StripeClient{accounts: accounts}
}

func (c *StripeClient) account(currency string) (*client.API, error) {
	api, ok := c.accounts[currency]
	if !ok {
		return nil, fmt.Errorf("%w: no gateway account for %s", entities.ErrUnsupportedCurrency, currency)
	}
	return api, nil
}

func (c *StripeClient) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	api, err := c.account(params.Currency)
	if err != nil {
		return nil, err
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountMinor),
		Currency: stripe.String(strings.ToLower(params.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	piParams.Context = ctx
	piParams.AddMetadata("order_id", params.OrderID)
	if params.IdempotencyKey != "" {
		piParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	pi, err := api.PaymentIntents.New(piParams)
	if err != nil {
		return nil, wrapStripeErr(err)
	}
	return intentFromStripe(pi), nil
}

func (c *StripeClient) GetIntent(ctx context.Context, currency, intentID string) (*Intent, error) {
	api, err := c.account(currency)
	if err != nil {
		return nil, err
	}

	piParams := &stripe.PaymentIntentParams{}
	piParams.Context = ctx

	pi, err := api.PaymentIntents.Get(intentID, piParams)
	if err != nil {
		return nil, wrapStripeErr(err)
	}
	return intentFromStripe(pi), nil
}

func (c *StripeClient) CancelIntent(ctx context.Context, currency, intentID string) error {
	api, err := c.account(currency)
	if err != nil {
		return err
	}

	cancelParams := &stripe.PaymentIntentCancelParams{}
	cancelParams.Context = ctx

	if _, err := api.PaymentIntents.Cancel(intentID, cancelParams); err != nil {
		return wrapStripeErr(err)
	}
	return nil
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
	}
}

// wrapStripeErr converts SDK errors into the shared gateway error type. The
// provider's message is preserved so the boundary can surface it.
func wrapStripeErr(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		msg := sErr.Msg
		if msg == "" {
			msg = string(sErr.Code)
		}
		return &entities.GatewayError{Message: msg, Err: err}
	}
	return &entities.GatewayError{Message: err.Error(), Err: err}
}
