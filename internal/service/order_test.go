package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgkirov/shop-service/internal/currency"
	"github.com/evgkirov/shop-service/internal/entities"
	"github.com/evgkirov/shop-service/internal/service"
)

type fakeCartStore struct {
	carts   map[string]entities.Cart
	deleted []string
}

func (s *fakeCartStore) GetCartForUpdate(ctx context.Context, cartID string) (entities.Cart, error) {
	cart, ok := s.carts[cartID]
	if !ok {
		return entities.Cart{}, entities.ErrCartNotFound
	}
	return cart, nil
}

func (s *fakeCartStore) DeleteCart(ctx context.Context, cartID string) error {
	if _, ok := s.carts[cartID]; !ok {
		return entities.ErrCartNotFound
	}
	delete(s.carts, cartID)
	s.deleted = append(s.deleted, cartID)
	return nil
}

type fakeItemGetter struct {
	items map[string]entities.Item
}

func (s *fakeItemGetter) GetItemByID(ctx context.Context, itemID string) (entities.Item, error) {
	item, ok := s.items[itemID]
	if !ok {
		return entities.Item{}, entities.ErrItemNotFound
	}
	return item, nil
}

type fakeRuleReader struct {
	discount *entities.Rule
	tax      *entities.Rule
}

func (s *fakeRuleReader) GetActiveRule(ctx context.Context, kind entities.RuleKind) (*entities.Rule, error) {
	if kind == entities.RuleDiscount {
		return s.discount, nil
	}
	return s.tax, nil
}

func usdItem(id, price string) entities.Item {
	return entities.Item{
		ID:       id,
		Name:     "item " + id,
		Price:    decimal.RequireFromString(price),
		Currency: "USD",
	}
}

func testConverter() *currency.Converter {
	return currency.NewConverter("USD", "EUR", decimal.RequireFromString("0.90"))
}

func pct(s string) *entities.Rule {
	return &entities.Rule{Percentage: decimal.RequireFromString(s), IsActive: true}
}

func TestOrderService_BuildOrderFromCart(t *testing.T) {
	cart := entities.Cart{
		ID: "cart-1",
		Items: []entities.CartLineItem{
			{ID: "line-1", Item: usdItem("item-1", "10.00"), Quantity: 2},
			{ID: "line-2", Item: usdItem("item-2", "5.50"), Quantity: 1},
		},
	}

	carts := &fakeCartStore{carts: map[string]entities.Cart{"cart-1": cart}}
	rules := &fakeRuleReader{discount: pct("10"), tax: pct("5")}
	store := newFakeOrderStore()
	pub := &fakePublisher{}

	svc := service.NewOrderService(testLogger(), fakeTxManager{}, store, carts,
		&fakeItemGetter{}, rules, testConverter(), pub)

	order, err := svc.BuildOrderFromCart(context.Background(), "cart-1", "USD")
	require.NoError(t, err)

	assert.Equal(t, entities.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "USD", order.Currency)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "25.50", order.Subtotal.StringFixed(2))
	assert.Equal(t, "2.55", order.DiscountAmount.StringFixed(2))
	assert.Equal(t, "1.15", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "24.10", order.Total.StringFixed(2))

	// total assembled from the rounded parts
	assert.True(t, order.Total.Equal(order.Subtotal.Sub(order.DiscountAmount).Add(order.TaxAmount)))

	// persisted copy matches what was returned
	saved := store.orders[order.ID]
	assert.True(t, saved.Total.Equal(order.Total))

	// the source cart is consumed
	assert.Equal(t, []string{"cart-1"}, carts.deleted)
	assert.Equal(t, []string{order.ID}, pub.created)
}

func TestOrderService_BuildOrderFromCart_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		cartID   string
		currency string
		carts    map[string]entities.Cart
		wantErr  error
	}{
		{
			name:     "missing cart",
			cartID:   "ghost",
			currency: "USD",
			carts:    map[string]entities.Cart{},
			wantErr:  entities.ErrCartNotFound,
		},
		{
			name:     "empty cart",
			cartID:   "cart-1",
			currency: "USD",
			carts:    map[string]entities.Cart{"cart-1": {ID: "cart-1"}},
			wantErr:  entities.ErrCartEmpty,
		},
		{
			name:     "unsupported currency",
			cartID:   "cart-1",
			currency: "GBP",
			carts: map[string]entities.Cart{"cart-1": {
				ID:    "cart-1",
				Items: []entities.CartLineItem{{Item: usdItem("item-1", "10.00"), Quantity: 1}},
			}},
			wantErr: entities.ErrUnsupportedCurrency,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			carts := &fakeCartStore{carts: tc.carts}
			store := newFakeOrderStore()
			pub := &fakePublisher{}

			svc := service.NewOrderService(testLogger(), fakeTxManager{}, store, carts,
				&fakeItemGetter{}, &fakeRuleReader{}, testConverter(), pub)

			_, err := svc.BuildOrderFromCart(context.Background(), tc.cartID, tc.currency)
			require.ErrorIs(t, err, tc.wantErr)

			assert.Empty(t, carts.deleted)
			assert.Empty(t, pub.created)
		})
	}
}

func TestOrderService_BuildOrderFromCart_FailureKeepsCart(t *testing.T) {
	cart := entities.Cart{
		ID:    "cart-1",
		Items: []entities.CartLineItem{{Item: usdItem("item-1", "10.00"), Quantity: 1}},
	}

	carts := &fakeCartStore{carts: map[string]entities.Cart{"cart-1": cart}}
	store := newFakeOrderStore()
	store.updateTotalsErr = errors.New("db down")
	pub := &fakePublisher{}

	svc := service.NewOrderService(testLogger(), fakeTxManager{}, store, carts,
		&fakeItemGetter{}, &fakeRuleReader{}, testConverter(), pub)

	_, err := svc.BuildOrderFromCart(context.Background(), "cart-1", "USD")
	require.Error(t, err)

	assert.Empty(t, carts.deleted)
	assert.Empty(t, pub.created)
}

func TestOrderService_BuildOrderFromItem(t *testing.T) {
	items := &fakeItemGetter{items: map[string]entities.Item{
		"item-1": usdItem("item-1", "100.00"),
	}}

	testCases := []struct {
		name         string
		itemID       string
		currency     string
		wantErr      error
		wantTotal    string
		wantCurrency string
	}{
		{
			name:         "converted to secondary currency",
			itemID:       "item-1",
			currency:     "EUR",
			wantTotal:    "90.00",
			wantCurrency: "EUR",
		},
		{
			name:         "identity conversion",
			itemID:       "item-1",
			currency:     "USD",
			wantTotal:    "100.00",
			wantCurrency: "USD",
		},
		{
			name:     "unknown item",
			itemID:   "ghost",
			currency: "USD",
			wantErr:  entities.ErrItemNotFound,
		},
		{
			name:     "unsupported currency",
			itemID:   "item-1",
			currency: "JPY",
			wantErr:  entities.ErrUnsupportedCurrency,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeOrderStore()
			pub := &fakePublisher{}

			svc := service.NewOrderService(testLogger(), fakeTxManager{}, store,
				&fakeCartStore{}, items, &fakeRuleReader{}, testConverter(), pub)

			order, err := svc.BuildOrderFromItem(context.Background(), tc.itemID, tc.currency)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, pub.created)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, entities.PaymentPending, order.PaymentStatus)
			assert.Equal(t, tc.wantCurrency, order.Currency)
			assert.Equal(t, tc.wantTotal, order.Total.StringFixed(2))
			require.Len(t, order.Items, 1)
			assert.EqualValues(t, 1, order.Items[0].Quantity)
			assert.Equal(t, []string{order.ID}, pub.created)
		})
	}
}
