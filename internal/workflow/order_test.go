package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/entity"
)

var allStatuses = []entity.OrderStatus{
	entity.OrderStatusPending,
	entity.OrderStatusProcessing,
	entity.OrderStatusShipped,
	entity.OrderStatusDelivered,
	entity.OrderStatusCancelled,
}

var allActions = []Action{ActionConfirm, ActionPay, ActionShip, ActionComplete, ActionCancel}

func TestNext_LegalTransitions(t *testing.T) {
	tests := []struct {
		from     entity.OrderStatus
		action   Action
		expected entity.OrderStatus
	}{
		{entity.OrderStatusPending, ActionConfirm, entity.OrderStatusProcessing},
		{entity.OrderStatusPending, ActionPay, entity.OrderStatusProcessing},
		{entity.OrderStatusPending, ActionCancel, entity.OrderStatusCancelled},
		{entity.OrderStatusProcessing, ActionShip, entity.OrderStatusShipped},
		{entity.OrderStatusProcessing, ActionCancel, entity.OrderStatusCancelled},
		{entity.OrderStatusShipped, ActionComplete, entity.OrderStatusDelivered},
	}

	for _, tt := range tests {
		got, err := Next(tt.from, tt.action)
		require.NoError(t, err, "%s + %s", tt.from, tt.action)
		assert.Equal(t, tt.expected, got)
	}
}

func TestApply_RejectsEveryTransitionOutsideTheTable(t *testing.T) {
	for _, status := range allStatuses {
		for _, action := range allActions {
			if IsAllowed(status, action) {
				continue
			}
			order := &entity.Order{ID: 42, Status: status, PaymentStatus: entity.PaymentStatusUnpaid}

			err := Apply(order, action)

			require.Error(t, err, "%s + %s", status, action)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, status, order.Status, "status must stay unchanged")
			assert.Equal(t, entity.PaymentStatusUnpaid, order.PaymentStatus)

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, 42, te.OrderID)
		}
	}
}

func TestApply_ProcessingOrderRejectsConfirmAndPay(t *testing.T) {
	for _, action := range []Action{ActionConfirm, ActionPay} {
		order := &entity.Order{ID: 1, Status: entity.OrderStatusProcessing}
		assert.ErrorIs(t, Apply(order, action), ErrInvalidTransition)
		assert.Equal(t, entity.OrderStatusProcessing, order.Status)
	}
}

func TestApply_PayFlipsPaymentStatus(t *testing.T) {
	order := &entity.Order{Status: entity.OrderStatusPending, PaymentStatus: entity.PaymentStatusUnpaid}
	require.NoError(t, Apply(order, ActionPay))
	assert.Equal(t, entity.OrderStatusProcessing, order.Status)
	assert.Equal(t, entity.PaymentStatusPaid, order.PaymentStatus)
}

func TestTerminalStatusesHaveNoActions(t *testing.T) {
	assert.Empty(t, AllowedActions(entity.OrderStatusDelivered))
	assert.Empty(t, AllowedActions(entity.OrderStatusCancelled))
}

func TestAllowedActions(t *testing.T) {
	assert.Equal(t, []Action{ActionConfirm, ActionPay, ActionCancel}, AllowedActions(entity.OrderStatusPending))
	assert.Equal(t, []Action{ActionShip, ActionCancel}, AllowedActions(entity.OrderStatusProcessing))
	assert.Equal(t, []Action{ActionComplete}, AllowedActions(entity.OrderStatusShipped))
}

func TestActionsFor(t *testing.T) {
	assert.Equal(t, []Action{ActionCancel}, ActionsFor(entity.OrderStatusPending, entity.RoleCustomer))
	assert.Empty(t, ActionsFor(entity.OrderStatusShipped, entity.RoleCustomer))
	assert.Equal(t, AllowedActions(entity.OrderStatusProcessing), ActionsFor(entity.OrderStatusProcessing, "admin"))
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		input    string
		expected Action
	}{
		{"confirm", ActionConfirm},
		{"PAY", ActionPay},
		{"payment", ActionPay},
		{"Ship", ActionShip},
		{"deliver", ActionComplete},
		{"complete", ActionComplete},
		{" cancel ", ActionCancel},
	}

	for _, tt := range tests {
		got, err := ParseAction(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}

	_, err := ParseAction("refund")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestValidateStatusChange(t *testing.T) {
	assert.NoError(t, ValidateStatusChange(entity.OrderStatusPending, entity.OrderStatusProcessing))
	assert.NoError(t, ValidateStatusChange(entity.OrderStatusProcessing, entity.OrderStatusCancelled))
	assert.ErrorIs(t, ValidateStatusChange(entity.OrderStatusPending, entity.OrderStatusShipped), ErrInvalidTransition)
	assert.ErrorIs(t, ValidateStatusChange(entity.OrderStatusDelivered, entity.OrderStatusCancelled), ErrInvalidTransition)
	assert.ErrorIs(t, ValidateStatusChange(entity.OrderStatusShipped, entity.OrderStatusPending), ErrInvalidTransition)
}

func TestCheckEditable(t *testing.T) {
	for _, status := range allStatuses {
		err := CheckEditable(&entity.Order{Status: status})
		if status == entity.OrderStatusPending {
			assert.NoError(t, err)
			continue
		}
		assert.ErrorIs(t, err, ErrOrderNotEditable, "status %s", status)
	}
}

func TestSideEffects(t *testing.T) {
	assert.Equal(t, []Effect{EffectCarrierNotification}, SideEffects(ActionShip))
	assert.Equal(t, []Effect{EffectPaymentRecorded}, SideEffects(ActionPay))
	assert.Equal(t, []Effect{EffectInventoryRelease}, SideEffects(ActionCancel))
	assert.Nil(t, SideEffects(ActionConfirm))
}
