package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/internal/service"
	"github.com/evgkirov/shop-service/pkg/utils"
)

type ItemReader interface {
	ListItems(ctx context.Context) ([]entities.Item, error)
	GetItemByID(ctx context.Context, itemID string) (entities.Item, error)
}

type CartManager interface {
	CreateCart(ctx context.Context) (entities.Cart, error)
	GetCart(ctx context.Context, cartID string) (entities.Cart, error)
	AddItem(ctx context.Context, cartID, itemID string, quantity int32) (entities.Cart, error)
	DeleteCart(ctx context.Context, cartID string) error
}

type OrderBuilder interface {
	BuildOrderFromCart(ctx context.Context, cartID, targetCurrency string) (entities.Order, error)
	BuildOrderFromItem(ctx context.Context, itemID, targetCurrency string) (entities.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
}

type PaymentManager interface {
	CreateSession(ctx context.Context, orderID string) (service.Session, error)
	Confirm(ctx context.Context, orderID string) (service.ConfirmResult, error)
	Cancel(ctx context.Context, orderID string) error
}

type RuleManager interface {
	CreateRule(ctx context.Context, kind entities.RuleKind, name string, percentage decimal.Decimal) (entities.Rule, error)
	ListRules(ctx context.Context, kind entities.RuleKind) ([]entities.Rule, error)
	ActivateRule(ctx context.Context, ruleID string) error
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	items    ItemReader
	carts    CartManager
	orders   OrderBuilder
	payments PaymentManager
	rules    RuleManager
}

func NewHTTPHandler(
	logger *slog.Logger,
	items ItemReader,
	carts CartManager,
	orders OrderBuilder,
	payments PaymentManager,
	rules RuleManager,
) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		items:    items,
		carts:    carts,
		orders:   orders,
		payments: payments,
		rules:    rules,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Get("/items", h.ListItems)
	r.Get("/items/{item_id}", h.GetItemByID)
	r.Get("/buy/{item_id}", h.BuyItem)

	r.Post("/carts", h.CreateCart)
	r.Get("/carts/{cart_id}", h.GetCart)
	r.Post("/carts/{cart_id}/items", h.AddCartItem)
	r.Delete("/carts/{cart_id}", h.DeleteCart)

	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/{order_id}", h.GetOrderByID)

	r.Post("/payment/sessions", h.CreatePaymentSession)
	r.Post("/payment/confirm", h.ConfirmPayment)
	r.Post("/payment/cancel", h.CancelPayment)

	r.Get("/rules", h.ListRules)
	r.Post("/rules", h.CreateRule)
	r.Post("/rules/{rule_id}/activate", h.ActivateRule)
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.items.ListItems(ctx)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to list items")
		return
	}

	res := make([]Item, 0, len(items))
	for _, item := range items {
		res = append(res, ItemEntityToJSON(item))
	}
	utils.WriteJSON(w, res, http.StatusOK)
}

func (h *HTTPHandler) GetItemByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "item_id")

	if err := h.validate.Var(itemID, "required,uuid4"); err != nil {
		utils.WriteError(w, "invalid item id", http.StatusBadRequest)
		return
	}

	item, err := h.items.GetItemByID(ctx, itemID)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to get item")
		return
	}

	utils.WriteJSON(w, ItemEntityToJSON(item), http.StatusOK)
}

func (h *HTTPHandler) BuyItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "item_id")
	currency := r.URL.Query().Get("cur")

	if err := h.validate.Var(itemID, "required,uuid4"); err != nil {
		utils.WriteError(w, "invalid item id", http.StatusBadRequest)
		return
	}
	if err := h.validate.Var(currency, "required,len=3"); err != nil {
		utils.WriteError(w, "invalid currency", http.StatusBadRequest)
		return
	}

	order, err := h.orders.BuildOrderFromItem(ctx, itemID, currency)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to build order from item")
		return
	}

	ordersBuilt.WithLabelValues("item").Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

func (h *HTTPHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cart, err := h.carts.CreateCart(ctx)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to create cart")
		return
	}

	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusCreated)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := chi.URLParam(r, "cart_id")

	if err := h.validate.Var(cartID, "required,uuid4"); err != nil {
		utils.WriteError(w, "invalid cart id", http.StatusBadRequest)
		return
	}

	cart, err := h.carts.GetCart(ctx, cartID)
	if errors.Is(err, entities.ErrCartNotFound) {
		utils.WriteError(w, "cart not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to get cart")
		return
	}

	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := chi.URLParam(r, "cart_id")

	if err := h.validate.Var(cartID, "required,uuid4"); err != nil {
		utils.WriteError(w, "invalid cart id", http.StatusBadRequest)
		return
	}

	var req AddCartItemRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.carts.AddItem(ctx, cartID, req.ItemID, req.Quantity)
	if errors.Is(err, entities.ErrCartNotFound) {
		utils.WriteError(w, "cart not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to add item to cart")
		return
	}

	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *HTTPHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := chi.URLParam(r, "cart_id")

	if err := h.validate.Var(cartID, "required,uuid4"); err != nil {
		utils.WriteError(w, "invalid cart id", http.StatusBadRequest)
		return
	}

	if err := h.carts.DeleteCart(ctx, cartID); err != nil {
		if errors.Is(err, entities.ErrCartNotFound) {
			utils.WriteError(w, "cart not found", http.StatusNotFound)
			return
		}
		h.writeDomainError(ctx, w, err, "failed to delete cart")
		return
	}

	utils.WriteJSON(w, MessageResponse{Message: "Cart deleted"}, http.StatusOK)
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.BuildOrderFromCart(ctx, req.CartID, req.Currency)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to build order from cart")
		return
	}

	ordersBuilt.WithLabelValues("cart").Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required,uuid4"); err != nil {
		utils.WriteError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := h.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to get order")
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) CreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PaymentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	session, err := h.payments.CreateSession(ctx, req.OrderID)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to create payment session")
		return
	}

	paymentSessions.Inc()
	utils.WriteJSON(w, SessionToJSON(session), http.StatusOK)
}

func (h *HTTPHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PaymentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	result, err := h.payments.Confirm(ctx, req.OrderID)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to confirm payment")
		return
	}

	res := ConfirmResponse{Status: "failed", Message: "Payment failed", OrderID: result.OrderID}
	if result.Settled {
		res.Status = "complete"
		res.Message = "Payment completed"
	}
	paymentTransitions.WithLabelValues(string(result.Status)).Inc()
	utils.WriteJSON(w, res, http.StatusOK)
}

func (h *HTTPHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PaymentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	if err := h.payments.Cancel(ctx, req.OrderID); err != nil {
		h.writeDomainError(ctx, w, err, "failed to cancel order")
		return
	}

	paymentTransitions.WithLabelValues(string(entities.PaymentCancelled)).Inc()
	utils.WriteJSON(w, MessageResponse{Message: "Order cancelled"}, http.StatusOK)
}

func (h *HTTPHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := r.URL.Query().Get("kind")

	if kind != "" && !entities.RuleKind(kind).Valid() {
		utils.WriteError(w, "invalid rule kind", http.StatusBadRequest)
		return
	}

	rules, err := h.rules.ListRules(ctx, entities.RuleKind(kind))
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to list rules")
		return
	}

	res := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		res = append(res, RuleEntityToJSON(rule))
	}
	utils.WriteJSON(w, res, http.StatusOK)
}

func (h *HTTPHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRuleRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	percentage, err := decimal.NewFromString(req.Percentage)
	if err != nil || percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		utils.WriteError(w, "percentage must be between 0 and 100", http.StatusBadRequest)
		return
	}

	rule, err := h.rules.CreateRule(ctx, entities.RuleKind(req.Kind), req.Name, percentage)
	if err != nil {
		h.writeDomainError(ctx, w, err, "failed to create rule")
		return
	}

	utils.WriteJSON(w, RuleEntityToJSON(rule), http.StatusCreated)
}

func (h *HTTPHandler) ActivateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID := chi.URLParam(r, "rule_id")

	if err := h.validate.Var(ruleID, "required,uuid4"); err != nil {
		utils.WriteError(w, "invalid rule id", http.StatusBadRequest)
		return
	}

	if err := h.rules.ActivateRule(ctx, ruleID); err != nil {
		h.writeDomainError(ctx, w, err, "failed to activate rule")
		return
	}

	utils.WriteJSON(w, MessageResponse{Message: "Rule activated"}, http.StatusOK)
}

// writeDomainError maps service errors onto the HTTP surface. Unknown resource
// ids are 404, build-source and state problems are 400, gateway refusals are
// 400 with the provider's message, everything else is a logged 500.
func (h *HTTPHandler) writeDomainError(ctx context.Context, w http.ResponseWriter, err error, logMsg string) {
	var invalidState *entities.InvalidStateError
	var gatewayErr *entities.GatewayError

	switch {
	case errors.Is(err, entities.ErrItemNotFound):
		utils.WriteError(w, "item not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrRuleNotFound):
		utils.WriteError(w, "rule not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrCartNotFound):
		utils.WriteError(w, "cart not found", http.StatusBadRequest)
	case errors.Is(err, entities.ErrCartEmpty):
		utils.WriteError(w, "cart is empty", http.StatusBadRequest)
	case errors.Is(err, entities.ErrUnsupportedCurrency):
		utils.WriteError(w, "unsupported currency", http.StatusBadRequest)
	case errors.Is(err, entities.ErrNoPaymentSession):
		utils.WriteError(w, "order has no payment session", http.StatusBadRequest)
	case errors.As(err, &invalidState):
		utils.WriteError(w, invalidState.Reason, http.StatusBadRequest)
	case errors.As(err, &gatewayErr):
		gatewayErrors.Inc()
		utils.WriteError(w, gatewayErr.Error(), http.StatusBadRequest)
	default:
		h.logger.ErrorContext(ctx, logMsg, slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
