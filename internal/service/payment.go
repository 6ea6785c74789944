package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/internal/gateway"
	"github.com/evgkirov/shop-service/pkg/trm"
)

type PaymentOrderRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error)
	SetPaymentIntent(ctx context.Context, orderID, intentID string) error
	UpdatePaymentStatus(ctx context.Context, orderID string, status entities.PaymentStatus) error
}

// Session is everything a client needs to complete a payment.
type Session struct {
	ClientSecret    string
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        string
}

type ConfirmResult struct {
	OrderID string
	Status  entities.PaymentStatus
	Settled bool
}

type paymentService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    PaymentOrderRepo
	gw        gateway.Client
	events    EventPublisher
}

func NewPaymentService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders PaymentOrderRepo,
	gw gateway.Client,
	events EventPublisher,
) *paymentService {
	return &paymentService{
		logger:    logger.With(slog.String("service", "payment")),
		txManager: txManager,
		orders:    orders,
		gw:        gw,
		events:    events,
	}
}

// CreateSession registers a payment intent with the gateway for the order's
// total and stores the intent id on the order. Calling it again for a pending
// order replaces the stored intent; the idempotency key derived from the order
// id keeps the gateway from charging twice.
//
// The gateway call happens outside the row lock: only the guard check and the
// intent write hold it.
func (s *paymentService) CreateSession(ctx context.Context, orderID string) (Session, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return Session{}, err
	}
	if err := guardPayment(order.PaymentStatus); err != nil {
		return Session{}, err
	}

	intent, err := s.gw.CreateIntent(ctx, gateway.CreateIntentParams{
		AmountMinor:    minorUnits(order.Total),
		Currency:       order.Currency,
		OrderID:        order.ID,
		IdempotencyKey: "order-session-" + order.ID,
	})
	if err != nil {
		return Session{}, err
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		locked, err := s.orders.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guardPayment(locked.PaymentStatus); err != nil {
			return err
		}
		return s.orders.SetPaymentIntent(ctx, orderID, intent.ID)
	})
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("payment session created",
		slog.String("order_id", orderID), slog.String("intent_id", intent.ID))

	return Session{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          order.Total,
		Currency:        order.Currency,
	}, nil
}

// Confirm asks the gateway for the intent's outcome and records it: Complete
// when the intent settled, Failed otherwise. A failed order stays retryable
// through a new session.
func (s *paymentService) Confirm(ctx context.Context, orderID string) (ConfirmResult, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return ConfirmResult{}, err
	}
	if err := guardPayment(order.PaymentStatus); err != nil {
		return ConfirmResult{}, err
	}
	if order.PaymentIntentID == "" {
		return ConfirmResult{}, entities.ErrNoPaymentSession
	}

	intent, err := s.gw.GetIntent(ctx, order.Currency, order.PaymentIntentID)
	if err != nil {
		return ConfirmResult{}, err
	}

	next := entities.PaymentFailed
	if intent.Settled() {
		next = entities.PaymentComplete
	}

	var prev entities.PaymentStatus
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		locked, err := s.orders.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guardPayment(locked.PaymentStatus); err != nil {
			return err
		}
		prev = locked.PaymentStatus
		return s.orders.UpdatePaymentStatus(ctx, orderID, next)
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	s.logger.Info("payment confirmed",
		slog.String("order_id", orderID), slog.String("status", string(next)))
	s.events.PaymentStatusChanged(ctx, orderID, prev, next)

	return ConfirmResult{
		OrderID: orderID,
		Status:  next,
		Settled: next == entities.PaymentComplete,
	}, nil
}

// Cancel moves a pending or failed order to Cancelled. If the order has a
// live pending intent the gateway is told to cancel it first; a gateway
// refusal surfaces unchanged and leaves the order as it was.
func (s *paymentService) Cancel(ctx context.Context, orderID string) error {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := guardCancel(order.PaymentStatus); err != nil {
		return err
	}

	if order.PaymentIntentID != "" && order.PaymentStatus == entities.PaymentPending {
		if err := s.gw.CancelIntent(ctx, order.Currency, order.PaymentIntentID); err != nil {
			return err
		}
	}

	var prev entities.PaymentStatus
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		locked, err := s.orders.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guardCancel(locked.PaymentStatus); err != nil {
			return err
		}
		prev = locked.PaymentStatus
		return s.orders.UpdatePaymentStatus(ctx, orderID, entities.PaymentCancelled)
	})
	if err != nil {
		return err
	}

	s.logger.Info("order cancelled", slog.String("order_id", orderID))
	s.events.PaymentStatusChanged(ctx, orderID, prev, entities.PaymentCancelled)
	return nil
}

// guardPayment gates session creation and confirmation: terminal orders are
// immutable, everything else (including Failed, to allow retries) passes.
func guardPayment(status entities.PaymentStatus) error {
	if !status.Terminal() {
		return nil
	}
	if status == entities.PaymentCancelled {
		return entities.NewInvalidState(status, "Order is cancelled")
	}
	return entities.NewInvalidState(status, "Order already completed")
}

func guardCancel(status entities.PaymentStatus) error {
	if status != entities.PaymentPending && status != entities.PaymentFailed {
		return entities.NewInvalidState(status, "Cannot cancel processed order")
	}
	return nil
}

// minorUnits converts a rounded decimal amount to the gateway's integer
// representation (cents). Totals always carry at most two decimal places.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}
