// Package workflow holds the order status state machine shared by the admin
// order-management and customer order-history views.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/entity"
)

var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderNotEditable  = errors.New("order can only be changed while pending")
	ErrUnknownAction     = errors.New("unknown order action")
)

// Action is a user-triggered request to move an order along its lifecycle.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionPay      Action = "pay"
	ActionShip     Action = "ship"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// ParseAction accepts any casing and treats "deliver" as "complete".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirm":
		return ActionConfirm, nil
	case "pay", "payment":
		return ActionPay, nil
	case "ship":
		return ActionShip, nil
	case "complete", "deliver":
		return ActionComplete, nil
	case "cancel":
		return ActionCancel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

type edge struct {
	from   entity.OrderStatus
	action Action
}

var transitions = map[edge]entity.OrderStatus{
	{entity.OrderStatusPending, ActionConfirm}:   entity.OrderStatusProcessing,
	{entity.OrderStatusPending, ActionPay}:       entity.OrderStatusProcessing,
	{entity.OrderStatusPending, ActionCancel}:    entity.OrderStatusCancelled,
	{entity.OrderStatusProcessing, ActionShip}:   entity.OrderStatusShipped,
	{entity.OrderStatusProcessing, ActionCancel}: entity.OrderStatusCancelled,
	{entity.OrderStatusShipped, ActionComplete}:  entity.OrderStatusDelivered,
}

// actionOrder fixes the order controls are rendered in.
var actionOrder = []Action{ActionConfirm, ActionPay, ActionShip, ActionComplete, ActionCancel}

// TransitionError reports an action that is not legal from the order's status.
type TransitionError struct {
	OrderID int
	From    entity.OrderStatus
	Action  Action
}

func (e *TransitionError) Error() string {
	if e.OrderID != 0 {
		return fmt.Sprintf("cannot %s order %d in status %s", e.Action, e.OrderID, e.From)
	}
	return fmt.Sprintf("cannot %s order in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Next returns the status an action leads to, or a *TransitionError.
func Next(from entity.OrderStatus, action Action) (entity.OrderStatus, error) {
	to, ok := transitions[edge{from, action}]
	if !ok {
		return from, &TransitionError{From: from, Action: action}
	}
	return to, nil
}

// Apply moves order by action. The order is left untouched when the action is illegal.
func Apply(order *entity.Order, action Action) error {
	to, err := Next(order.Status, action)
	if err != nil {
		var te *TransitionError
		if errors.As(err, &te) {
			te.OrderID = order.ID
		}
		return err
	}
	order.Status = to
	if action == ActionPay {
		order.PaymentStatus = entity.PaymentStatusPaid
	}
	return nil
}

// AllowedActions lists the actions legal from status, in display order.
func AllowedActions(status entity.OrderStatus) []Action {
	var actions []Action
	for _, a := range actionOrder {
		if _, ok := transitions[edge{status, a}]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// ActionsFor narrows AllowedActions to what role may trigger. Customers can only cancel.
func ActionsFor(status entity.OrderStatus, role entity.Role) []Action {
	allowed := AllowedActions(status)
	if role.Matches(entity.RoleAdmin) {
		return allowed
	}
	var actions []Action
	for _, a := range allowed {
		if a == ActionCancel {
			actions = append(actions, a)
		}
	}
	return actions
}

// IsAllowed reports whether action is legal from status.
func IsAllowed(status entity.OrderStatus, action Action) bool {
	_, ok := transitions[edge{status, action}]
	return ok
}

// ValidateStatusChange checks a direct status update against the same table.
func ValidateStatusChange(from, to entity.OrderStatus) error {
	for e, target := range transitions {
		if e.from == from && target == to {
			return nil
		}
	}
	return &TransitionError{From: from, Action: Action("set " + strings.ToLower(string(to)))}
}

func CanEdit(status entity.OrderStatus) bool {
	return status == entity.OrderStatusPending
}

// CheckEditable guards edits of items, shipping address and payment method, and deletion.
func CheckEditable(order *entity.Order) error {
	if !CanEdit(order.Status) {
		return fmt.Errorf("%w: order %d is %s", ErrOrderNotEditable, order.ID, order.Status)
	}
	return nil
}
