package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/internal/gateway"
	"github.com/evgkirov/shop-service/internal/pricing"
	"github.com/evgkirov/shop-service/internal/service"
	"github.com/evgkirov/shop-service/pkg/trm"
)

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

// fakeTxManager runs callbacks directly; repositories under test are in-memory.
type fakeTxManager struct{}

func (fakeTxManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	return ctx, fakeTx{}, nil
}

func (fakeTxManager) Do(ctx context.Context, cb func(ctx context.Context) error) error {
	return cb(ctx)
}

type fakeOrderStore struct {
	orders map[string]entities.Order

	updateTotalsErr error
	deletedCarts    []string
}

func newFakeOrderStore(orders ...entities.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: make(map[string]entities.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeOrderStore) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeOrderStore) GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	return s.GetOrderByID(ctx, orderID)
}

func (s *fakeOrderStore) SetPaymentIntent(ctx context.Context, orderID, intentID string) error {
	o, ok := s.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.PaymentIntentID = intentID
	s.orders[orderID] = o
	return nil
}

func (s *fakeOrderStore) UpdatePaymentStatus(ctx context.Context, orderID string, status entities.PaymentStatus) error {
	o, ok := s.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.PaymentStatus = status
	s.orders[orderID] = o
	return nil
}

func (s *fakeOrderStore) CreateOrder(ctx context.Context, o entities.Order) error {
	s.orders[o.ID] = o
	return nil
}

func (s *fakeOrderStore) SaveLineItems(ctx context.Context, orderID string, items []entities.OrderLineItem) error {
	o, ok := s.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.Items = items
	s.orders[orderID] = o
	return nil
}

func (s *fakeOrderStore) UpdateTotals(ctx context.Context, orderID string, quote pricing.Quote) error {
	if s.updateTotalsErr != nil {
		return s.updateTotalsErr
	}
	o, ok := s.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.Subtotal = quote.Subtotal
	o.DiscountAmount = quote.DiscountAmount
	o.TaxAmount = quote.TaxAmount
	o.Total = quote.Total
	s.orders[orderID] = o
	return nil
}

type fakeGateway struct {
	intentStatus string
	createErr    error
	getErr       error
	cancelErr    error

	createCalls int
	cancelCalls int
	lastCreate  gateway.CreateIntentParams
}

func (g *fakeGateway) CreateIntent(ctx context.Context, params gateway.CreateIntentParams) (*gateway.Intent, error) {
	g.createCalls++
	g.lastCreate = params
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &gateway.Intent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
		Status:       "requires_payment_method",
		AmountMinor:  params.AmountMinor,
		Currency:     params.Currency,
	}, nil
}

func (g *fakeGateway) GetIntent(ctx context.Context, currency, intentID string) (*gateway.Intent, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	return &gateway.Intent{ID: intentID, Status: g.intentStatus, Currency: currency}, nil
}

func (g *fakeGateway) CancelIntent(ctx context.Context, currency, intentID string) error {
	g.cancelCalls++
	return g.cancelErr
}

type fakePublisher struct {
	created     []string
	transitions []entities.PaymentStatus
}

func (p *fakePublisher) OrderCreated(ctx context.Context, order entities.Order) {
	p.created = append(p.created, order.ID)
}

func (p *fakePublisher) PaymentStatusChanged(ctx context.Context, orderID string, from, to entities.PaymentStatus) {
	p.transitions = append(p.transitions, to)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingOrder(id string) entities.Order {
	return entities.Order{
		ID:            id,
		PaymentStatus: entities.PaymentPending,
		Currency:      "USD",
		Total:         decimal.RequireFromString("24.10"),
	}
}

func TestPaymentService_CreateSession(t *testing.T) {
	testCases := []struct {
		name       string
		status     entities.PaymentStatus
		createErr  error
		wantReason string
		wantCalls  int
	}{
		{name: "pending order", status: entities.PaymentPending, wantCalls: 1},
		{name: "failed order is retryable", status: entities.PaymentFailed, wantCalls: 1},
		{name: "cancelled order rejected", status: entities.PaymentCancelled, wantReason: "Order is cancelled"},
		{name: "completed order rejected", status: entities.PaymentComplete, wantReason: "Order already completed"},
		{
			name:      "gateway refusal surfaces",
			status:    entities.PaymentPending,
			createErr: &entities.GatewayError{Message: "card testing suspected"},
			wantCalls: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			order := pendingOrder("order-1")
			order.PaymentStatus = tc.status

			store := newFakeOrderStore(order)
			gw := &fakeGateway{createErr: tc.createErr}
			svc := service.NewPaymentService(testLogger(), fakeTxManager{}, store, gw, &fakePublisher{})

			session, err := svc.CreateSession(context.Background(), "order-1")

			assert.Equal(t, tc.wantCalls, gw.createCalls)

			if tc.wantReason != "" {
				var invalidState *entities.InvalidStateError
				require.ErrorAs(t, err, &invalidState)
				assert.Equal(t, tc.wantReason, invalidState.Reason)
				assert.Empty(t, store.orders["order-1"].PaymentIntentID)
				return
			}

			if tc.createErr != nil {
				var gwErr *entities.GatewayError
				require.ErrorAs(t, err, &gwErr)
				assert.Empty(t, store.orders["order-1"].PaymentIntentID)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "pi_test", session.PaymentIntentID)
			assert.Equal(t, "pi_test_secret", session.ClientSecret)
			assert.Equal(t, "USD", session.Currency)
			assert.Equal(t, "pi_test", store.orders["order-1"].PaymentIntentID)

			// status never changes on session creation
			assert.Equal(t, tc.status, store.orders["order-1"].PaymentStatus)
		})
	}
}

func TestPaymentService_CreateSession_AmountAndIdempotency(t *testing.T) {
	store := newFakeOrderStore(pendingOrder("order-1"))
	gw := &fakeGateway{}
	svc := service.NewPaymentService(testLogger(), fakeTxManager{}, store, gw, &fakePublisher{})

	_, err := svc.CreateSession(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2410), gw.lastCreate.AmountMinor)
	assert.Equal(t, "order-session-order-1", gw.lastCreate.IdempotencyKey)
	assert.Equal(t, "order-1", gw.lastCreate.OrderID)
}

func TestPaymentService_Confirm(t *testing.T) {
	testCases := []struct {
		name         string
		status       entities.PaymentStatus
		intentID     string
		intentStatus string
		wantErr      error
		wantReason   string
		wantStatus   entities.PaymentStatus
		wantSettled  bool
	}{
		{
			name:         "settled intent completes order",
			status:       entities.PaymentPending,
			intentID:     "pi_1",
			intentStatus: "succeeded",
			wantStatus:   entities.PaymentComplete,
			wantSettled:  true,
		},
		{
			name:         "unsettled intent fails order",
			status:       entities.PaymentPending,
			intentID:     "pi_1",
			intentStatus: "requires_payment_method",
			wantStatus:   entities.PaymentFailed,
		},
		{
			name:         "failed order can confirm again",
			status:       entities.PaymentFailed,
			intentID:     "pi_1",
			intentStatus: "succeeded",
			wantStatus:   entities.PaymentComplete,
			wantSettled:  true,
		},
		{
			name:    "no session",
			status:  entities.PaymentPending,
			wantErr: entities.ErrNoPaymentSession,
		},
		{
			name:       "completed order rejected",
			status:     entities.PaymentComplete,
			intentID:   "pi_1",
			wantReason: "Order already completed",
		},
		{
			name:       "cancelled order rejected",
			status:     entities.PaymentCancelled,
			intentID:   "pi_1",
			wantReason: "Order is cancelled",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			order := pendingOrder("order-1")
			order.PaymentStatus = tc.status
			order.PaymentIntentID = tc.intentID

			store := newFakeOrderStore(order)
			gw := &fakeGateway{intentStatus: tc.intentStatus}
			pub := &fakePublisher{}
			svc := service.NewPaymentService(testLogger(), fakeTxManager{}, store, gw, pub)

			result, err := svc.Confirm(context.Background(), "order-1")

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			if tc.wantReason != "" {
				var invalidState *entities.InvalidStateError
				require.ErrorAs(t, err, &invalidState)
				assert.Equal(t, tc.wantReason, invalidState.Reason)
				assert.Equal(t, tc.status, store.orders["order-1"].PaymentStatus)
				assert.Empty(t, pub.transitions)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, result.Status)
			assert.Equal(t, tc.wantSettled, result.Settled)
			assert.Equal(t, tc.wantStatus, store.orders["order-1"].PaymentStatus)
			assert.Equal(t, []entities.PaymentStatus{tc.wantStatus}, pub.transitions)
		})
	}
}

func TestPaymentService_Confirm_ThenConfirmAgain(t *testing.T) {
	order := pendingOrder("order-1")
	order.PaymentIntentID = "pi_1"

	store := newFakeOrderStore(order)
	gw := &fakeGateway{intentStatus: "succeeded"}
	svc := service.NewPaymentService(testLogger(), fakeTxManager{}, store, gw, &fakePublisher{})

	result, err := svc.Confirm(context.Background(), "order-1")
	require.NoError(t, err)
	require.True(t, result.Settled)

	_, err = svc.Confirm(context.Background(), "order-1")
	var invalidState *entities.InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	assert.Equal(t, "Order already completed", invalidState.Reason)
}

func TestPaymentService_Cancel(t *testing.T) {
	testCases := []struct {
		name            string
		status          entities.PaymentStatus
		intentID        string
		cancelErr       error
		wantReason      string
		wantGatewayCall bool
	}{
		{name: "pending with intent", status: entities.PaymentPending, intentID: "pi_1", wantGatewayCall: true},
		{name: "pending without intent", status: entities.PaymentPending},
		{name: "failed order skips gateway", status: entities.PaymentFailed, intentID: "pi_1"},
		{name: "completed order rejected", status: entities.PaymentComplete, wantReason: "Cannot cancel processed order"},
		{name: "cancelled order rejected", status: entities.PaymentCancelled, wantReason: "Cannot cancel processed order"},
		{
			name:            "gateway refusal keeps state",
			status:          entities.PaymentPending,
			intentID:        "pi_1",
			cancelErr:       &entities.GatewayError{Message: "intent already captured"},
			wantGatewayCall: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			order := pendingOrder("order-1")
			order.PaymentStatus = tc.status
			order.PaymentIntentID = tc.intentID

			store := newFakeOrderStore(order)
			gw := &fakeGateway{cancelErr: tc.cancelErr}
			svc := service.NewPaymentService(testLogger(), fakeTxManager{}, store, gw, &fakePublisher{})

			err := svc.Cancel(context.Background(), "order-1")

			if tc.wantGatewayCall {
				assert.Equal(t, 1, gw.cancelCalls)
			} else {
				assert.Zero(t, gw.cancelCalls)
			}

			if tc.wantReason != "" {
				var invalidState *entities.InvalidStateError
				require.ErrorAs(t, err, &invalidState)
				assert.Equal(t, tc.wantReason, invalidState.Reason)
				assert.Equal(t, tc.status, store.orders["order-1"].PaymentStatus)
				return
			}
			if tc.cancelErr != nil {
				var gwErr *entities.GatewayError
				require.ErrorAs(t, err, &gwErr)
				assert.Equal(t, tc.status, store.orders["order-1"].PaymentStatus)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, entities.PaymentCancelled, store.orders["order-1"].PaymentStatus)
		})
	}
}

func TestPaymentService_UnknownOrder(t *testing.T) {
	store := newFakeOrderStore()
	svc := service.NewPaymentService(testLogger(), fakeTxManager{}, store, &fakeGateway{}, &fakePublisher{})

	_, err := svc.CreateSession(context.Background(), "missing")
	assert.ErrorIs(t, err, entities.ErrOrderNotFound)

	_, err = svc.Confirm(context.Background(), "missing")
	assert.ErrorIs(t, err, entities.ErrOrderNotFound)

	err = svc.Cancel(context.Background(), "missing")
	assert.ErrorIs(t, err, entities.ErrOrderNotFound)
}
