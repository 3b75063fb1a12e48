package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apierr"
	"storefront/internal/entity"
	"storefront/internal/events"
)

func twoLineCart() *fakeCart {
	return newFakeCart(customer.UserID,
		entity.CartItem{ID: 1, UserID: customer.UserID, ProductID: 1, ProductName: "A", ProductPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		entity.CartItem{ID: 2, UserID: customer.UserID, ProductID: 2, ProductName: "B", ProductPrice: decimal.RequireFromString("5.50"), Quantity: 1},
	)
}

func newGuard(t *testing.T) (*RedisIdempotencyGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisIdempotencyGuard(rdb), mr
}

func TestCartViewTotals(t *testing.T) {
	svc := NewCartService(twoLineCart(), newFakeOrders(), nil, nil)

	view, err := svc.View(context.Background(), customer)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.50").Equal(view.Total))
	assert.Equal(t, 3, view.Count)
}

func TestCheckoutPlacesOrderThenClearsCart(t *testing.T) {
	cart := twoLineCart()
	orders := newFakeOrders()
	log := &eventLog{}
	svc := NewCartService(cart, orders, nil, log)

	result, err := svc.Checkout(context.Background(), customer, CheckoutRequest{ShippingAddress: "1 Main St", PaymentMethod: "CARD"})
	require.NoError(t, err)

	require.Len(t, orders.created, 1)
	req := orders.created[0]
	assert.Equal(t, customer.UserID, req.UserID)
	assert.True(t, decimal.RequireFromString("25.50").Equal(req.TotalAmount))
	require.Len(t, req.Items, 2)
	assert.True(t, decimal.RequireFromString("20.00").Equal(req.Items[0].Subtotal))

	assert.True(t, decimal.RequireFromString("25.50").Equal(result.Order.TotalAmount))
	assert.Empty(t, result.Cart.Items)
	assert.Equal(t, 0, result.Cart.Count)
	assert.Equal(t, 1, cart.cleared)
	assert.Equal(t, []published{{kind: events.KindCreated, orderID: result.Order.ID}}, log.events)
}

func TestCheckoutFailureLeavesCartUntouched(t *testing.T) {
	cart := twoLineCart()
	orders := newFakeOrders()
	orders.createErr = &apierr.Error{Status: 400, Codes: []string{apierr.CodeInsufficientStock}, Message: "Insufficient stock for product B"}
	guard, mr := newGuard(t)
	svc := NewCartService(cart, orders, guard, nil)

	_, err := svc.Checkout(context.Background(), customer, CheckoutRequest{ShippingAddress: "1 Main St", IdempotencyKey: "k1"})
	require.Error(t, err)
	assert.Equal(t, apierr.CategoryInsufficientStock, apierr.Classify(err).Category)

	assert.Zero(t, cart.cleared)
	assert.Len(t, cart.items[customer.UserID], 2)
	assert.False(t, mr.Exists("idempotent-key:k1"), "failed checkout must release its key")
}

func TestCheckoutRejectsBeforeBackend(t *testing.T) {
	tests := []struct {
		name  string
		cart  *fakeCart
		req   CheckoutRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "empty cart",
			cart: newFakeCart(customer.UserID),
			req:  CheckoutRequest{ShippingAddress: "1 Main St"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyCart)
				assert.Equal(t, apierr.CategoryValidation, apierr.Classify(err).Category)
			},
		},
		{
			name: "missing address",
			cart: twoLineCart(),
			req:  CheckoutRequest{ShippingAddress: "  "},
			check: func(t *testing.T, err error) {
				var apiErr *apierr.Error
				require.True(t, errors.As(err, &apiErr))
				assert.Contains(t, apiErr.FieldMessages(), "shippingAddress")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := newFakeOrders()
			svc := NewCartService(tt.cart, orders, nil, nil)
			_, err := svc.Checkout(context.Background(), customer, tt.req)
			tt.check(t, err)
			assert.Empty(t, orders.created)
		})
	}
}

func TestCheckoutDuplicateKey(t *testing.T) {
	guard, mr := newGuard(t)
	orders := newFakeOrders()
	svc := NewCartService(twoLineCart(), orders, guard, nil)

	_, err := svc.Checkout(context.Background(), customer, CheckoutRequest{ShippingAddress: "1 Main St", IdempotencyKey: "form-1"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("idempotent-key:form-1"))

	// the cart is empty now, so refill it to reach the key check
	svc.cart = twoLineCart()
	_, err = svc.Checkout(context.Background(), customer, CheckoutRequest{ShippingAddress: "1 Main St", IdempotencyKey: "form-1"})
	assert.ErrorIs(t, err, ErrDuplicateCheckout)
	assert.Len(t, orders.created, 1)
}

func TestCheckoutCartNotCleared(t *testing.T) {
	cart := twoLineCart()
	cart.clearErr = errors.New("connection reset")
	svc := NewCartService(cart, newFakeOrders(), nil, nil)

	result, err := svc.Checkout(context.Background(), customer, CheckoutRequest{ShippingAddress: "1 Main St"})
	assert.ErrorIs(t, err, ErrCartNotCleared)
	require.NotNil(t, result)
	require.NotNil(t, result.Order)
	assert.Len(t, result.Cart.Items, 2)
}

func TestCartLineOwnership(t *testing.T) {
	cart := twoLineCart()
	svc := NewCartService(cart, newFakeOrders(), nil, nil)

	_, err := svc.Update(context.Background(), stranger, 1, 5)
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	_, err = svc.Update(context.Background(), customer, 1, 0)
	assert.Error(t, err)

	view, err := svc.Update(context.Background(), customer, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, view.Count)

	view, err = svc.Remove(context.Background(), customer, 2)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}
