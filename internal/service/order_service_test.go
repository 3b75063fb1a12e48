package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apierr"
	"storefront/internal/entity"
	"storefront/internal/events"
	"storefront/internal/listing"
	"storefront/internal/workflow"
)

func pendingOrder(id, userID int) entity.Order {
	item := entity.NewOrderItem(1, "Widget", decimal.RequireFromString("10.00"), 2)
	return entity.Order{
		ID:              id,
		UserID:          userID,
		Status:          entity.OrderStatusPending,
		ShippingAddress: "1 Main St",
		Items:           []entity.OrderItem{item},
		TotalAmount:     item.Subtotal,
	}
}

func withStatus(o entity.Order, status entity.OrderStatus) entity.Order {
	o.Status = status
	return o
}

func TestOrderServiceTransition(t *testing.T) {
	tests := []struct {
		name       string
		actor      Actor
		from       entity.OrderStatus
		action     workflow.Action
		want       entity.OrderStatus
		wantErr    error
		wantCommit bool
	}{
		{name: "confirm pending", actor: admin, from: entity.OrderStatusPending, action: workflow.ActionConfirm, want: entity.OrderStatusProcessing, wantCommit: true},
		{name: "ship processing", actor: admin, from: entity.OrderStatusProcessing, action: workflow.ActionShip, want: entity.OrderStatusShipped, wantCommit: true},
		{name: "complete shipped", actor: admin, from: entity.OrderStatusShipped, action: workflow.ActionComplete, want: entity.OrderStatusDelivered, wantCommit: true},
		{name: "confirm processing rejected", actor: admin, from: entity.OrderStatusProcessing, action: workflow.ActionConfirm, want: entity.OrderStatusProcessing, wantErr: workflow.ErrInvalidTransition},
		{name: "pay processing rejected", actor: admin, from: entity.OrderStatusProcessing, action: workflow.ActionPay, want: entity.OrderStatusProcessing, wantErr: workflow.ErrInvalidTransition},
		{name: "cancel delivered rejected", actor: admin, from: entity.OrderStatusDelivered, action: workflow.ActionCancel, want: entity.OrderStatusDelivered, wantErr: workflow.ErrInvalidTransition},
		{name: "customer cancels own order", actor: customer, from: entity.OrderStatusPending, action: workflow.ActionCancel, want: entity.OrderStatusCancelled, wantCommit: true},
		{name: "customer cannot ship", actor: customer, from: entity.OrderStatusProcessing, action: workflow.ActionShip, want: entity.OrderStatusProcessing, wantErr: apierr.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := newFakeOrders(withStatus(pendingOrder(10, customer.UserID), tt.from))
			log := &eventLog{}
			svc := NewOrderService(gateway, log)

			got, err := svc.Transition(context.Background(), tt.actor, 10, tt.action, "")

			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, gateway.transitions, "backend must not be called")
				assert.Empty(t, log.events)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, gateway.transitions)
			assert.Equal(t, []published{{kind: string(tt.action), orderID: 10}}, log.events)
		})
	}
}

func TestOrderServiceTransitionCommitFailureShowsServerState(t *testing.T) {
	gateway := newFakeOrders(pendingOrder(10, customer.UserID))
	gateway.commitErr = &apierr.Error{Status: 409, Message: "Order already processed"}
	log := &eventLog{}
	svc := NewOrderService(gateway, log)

	got, err := svc.Transition(context.Background(), admin, 10, workflow.ActionConfirm, "")

	require.Error(t, err)
	assert.Equal(t, entity.OrderStatusPending, got.Status)
	assert.Empty(t, log.events)
}

func TestOrderServiceOwnership(t *testing.T) {
	gateway := newFakeOrders(pendingOrder(10, customer.UserID))
	svc := NewOrderService(gateway, nil)

	_, err := svc.Get(context.Background(), stranger, 10)
	assert.ErrorIs(t, err, apierr.ErrForbidden)
	assert.Equal(t, apierr.CategoryForbidden, apierr.Classify(err).Category)

	view, err := svc.Get(context.Background(), customer, 10)
	require.NoError(t, err)
	assert.True(t, view.Editable)
	assert.Equal(t, []workflow.Action{workflow.ActionCancel}, view.Actions)

	view, err = svc.Get(context.Background(), admin, 10)
	require.NoError(t, err)
	assert.False(t, view.Editable)
	assert.Contains(t, view.Actions, workflow.ActionConfirm)
}

func TestOrderServiceListScopesCustomers(t *testing.T) {
	gateway := newFakeOrders(pendingOrder(10, customer.UserID), pendingOrder(11, stranger.UserID))
	svc := NewOrderService(gateway, nil)

	q := listing.OrderQuery()
	q.Page = 2
	list, err := svc.List(context.Background(), customer, q)
	require.NoError(t, err)

	require.NotNil(t, gateway.lastQuery.Filter.UserID)
	assert.Equal(t, customer.UserID, *gateway.lastQuery.Filter.UserID)
	assert.Equal(t, 2, gateway.lastQuery.Page)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 10, list.Items[0].ID)

	list, err = svc.List(context.Background(), admin, listing.OrderQuery())
	require.NoError(t, err)
	assert.Nil(t, gateway.lastQuery.Filter.UserID)
	assert.Len(t, list.Items, 2)
}

func TestOrderServiceSetStatus(t *testing.T) {
	gateway := newFakeOrders(withStatus(pendingOrder(10, customer.UserID), entity.OrderStatusShipped))
	log := &eventLog{}
	svc := NewOrderService(gateway, log)

	got, err := svc.SetStatus(context.Background(), admin, 10, entity.OrderStatusPending)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, entity.OrderStatusShipped, got.Status)
	assert.Empty(t, gateway.calls)

	got, err = svc.SetStatus(context.Background(), admin, 10, entity.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDelivered, got.Status)
	assert.Equal(t, []published{{kind: events.KindStatus, orderID: 10}}, log.events)
}

func TestOrderServiceEdit(t *testing.T) {
	t.Run("pending order items are replaced", func(t *testing.T) {
		gateway := newFakeOrders(pendingOrder(10, customer.UserID))
		svc := NewOrderService(gateway, nil)

		got, err := svc.Edit(context.Background(), customer, 10, OrderEdit{
			Items: []entity.OrderItem{{ProductID: 2, UnitPrice: decimal.RequireFromString("5.50"), Quantity: 3}},
		})
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.True(t, decimal.RequireFromString("16.50").Equal(got.Items[0].Subtotal))
		assert.True(t, decimal.RequireFromString("16.50").Equal(got.TotalAmount))
	})

	t.Run("non pending order rejected", func(t *testing.T) {
		gateway := newFakeOrders(withStatus(pendingOrder(10, customer.UserID), entity.OrderStatusProcessing))
		svc := NewOrderService(gateway, nil)

		got, err := svc.Edit(context.Background(), customer, 10, OrderEdit{ShippingAddress: "2 Side St"})
		assert.ErrorIs(t, err, workflow.ErrOrderNotEditable)
		assert.Equal(t, "1 Main St", got.ShippingAddress)
		assert.Empty(t, gateway.calls)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		gateway := newFakeOrders(pendingOrder(10, customer.UserID))
		svc := NewOrderService(gateway, nil)

		_, err := svc.Edit(context.Background(), customer, 10, OrderEdit{
			Items: []entity.OrderItem{{ProductID: 2, UnitPrice: decimal.NewFromInt(1), Quantity: 0}},
		})
		var apiErr *apierr.Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Quantity must be at least 1", apiErr.FieldMessages()["quantity"])
		assert.Empty(t, gateway.calls)
	})
}

func TestOrderServiceDelete(t *testing.T) {
	gateway := newFakeOrders(pendingOrder(10, customer.UserID), withStatus(pendingOrder(11, customer.UserID), entity.OrderStatusShipped))
	log := &eventLog{}
	svc := NewOrderService(gateway, log)

	assert.ErrorIs(t, svc.Delete(context.Background(), customer, 11), workflow.ErrOrderNotEditable)
	assert.ErrorIs(t, svc.Delete(context.Background(), stranger, 10), apierr.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), customer, 10))
	assert.NotContains(t, gateway.orders, 10)
	assert.Equal(t, []published{{kind: events.KindDeleted, orderID: 10}}, log.events)
}
