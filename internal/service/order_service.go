package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apierr"
	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/events"
	"storefront/internal/listing"
	"storefront/internal/mutate"
	"storefront/internal/workflow"
)

// OrderGateway is the backend surface for orders. *client.Client serves it
// over REST and *client.GraphQLOrders over GraphQL.
type OrderGateway interface {
	ListOrders(ctx context.Context, q listing.Query) (*entity.Page[entity.Order], error)
	GetOrder(ctx context.Context, id int) (*entity.Order, error)
	TransitionOrder(ctx context.Context, id int, action workflow.Action, transactionID string) (*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, id int, status entity.OrderStatus) (*entity.Order, error)
	UpdateOrder(ctx context.Context, id int, req client.UpdateOrderRequest) (*entity.Order, error)
	DeleteOrder(ctx context.Context, id int) error
}

// OrderView is an order plus the controls the viewer may use on it.
type OrderView struct {
	entity.Order
	Actions  []workflow.Action `json:"actions"`
	Editable bool              `json:"editable"`
}

// OrderEdit changes a pending order. Empty fields are left as they are.
type OrderEdit struct {
	ShippingAddress string             `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	Notes           string             `json:"notes"`
	Items           []entity.OrderItem `json:"orderItems"`
}

// OrderService drives the order views. The admin management view and the
// customer history view each get one, over their own gateway.
type OrderService struct {
	gateway OrderGateway
	events  EventPublisher
}

func NewOrderService(gateway OrderGateway, publisher EventPublisher) *OrderService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &OrderService{gateway: gateway, events: publisher}
}

func viewFor(actor Actor) func(entity.Order) OrderView {
	return func(o entity.Order) OrderView {
		return OrderView{
			Order:    o,
			Actions:  workflow.ActionsFor(o.Status, actor.Role),
			Editable: !actor.IsAdmin() && workflow.CanEdit(o.Status),
		}
	}
}

// List returns one page of orders. Customers only ever see their own.
func (s *OrderService) List(ctx context.Context, actor Actor, q listing.Query) (*List[OrderView], error) {
	if !actor.IsAdmin() {
		userID := actor.UserID
		q.Filter.UserID = &userID
	}
	page, err := s.gateway.ListOrders(ctx, q)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}
	return newList(q, page, viewFor(actor))
}

func (s *OrderService) Get(ctx context.Context, actor Actor, id int) (*OrderView, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := viewFor(actor)(*order)
	return &view, nil
}

func (s *OrderService) load(ctx context.Context, actor Actor, id int) (*entity.Order, error) {
	order, err := s.gateway.GetOrder(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting order by ID %d", id)
		return nil, err
	}
	if err := actor.checkOwner("order", id, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) refetch(id int) func(context.Context) (entity.Order, error) {
	return func(ctx context.Context) (entity.Order, error) {
		o, err := s.gateway.GetOrder(ctx, id)
		if err != nil {
			return entity.Order{}, err
		}
		return *o, nil
	}
}

// Transition applies a workflow action. The order is moved locally first,
// so illegal actions never reach the backend, then replaced by the server's
// copy. The returned order is what the view should show, even on error.
func (s *OrderService) Transition(ctx context.Context, actor Actor, id int, action workflow.Action, transactionID string) (*entity.Order, error) {
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	result, err := mutate.Run(ctx, *current, mutate.Mutation[entity.Order]{
		Name: "order " + string(action),
		Optimistic: func(o entity.Order) (entity.Order, error) {
			next := o.Clone()
			if !actor.IsAdmin() && action != workflow.ActionCancel {
				return o, fmt.Errorf("%w: customers can only cancel orders", apierr.ErrForbidden)
			}
			if err := workflow.Apply(&next, action); err != nil {
				return o, err
			}
			return next, nil
		},
		Commit: func(ctx context.Context, _ entity.Order) (entity.Order, error) {
			o, err := s.gateway.TransitionOrder(ctx, id, action, transactionID)
			if err != nil {
				return entity.Order{}, err
			}
			return *o, nil
		},
		Refetch: s.refetch(id),
	})
	if err == nil || errors.Is(err, mutate.ErrReconcile) {
		publish(ctx, s.events, string(action), &result)
	}
	return &result, err
}

// SetStatus is the admin's direct status change, checked against the same
// transition table as the actions.
func (s *OrderService) SetStatus(ctx context.Context, actor Actor, id int, status entity.OrderStatus) (*entity.Order, error) {
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	result, err := mutate.Run(ctx, *current, mutate.Mutation[entity.Order]{
		Name: "order status " + string(status),
		Optimistic: func(o entity.Order) (entity.Order, error) {
			if err := workflow.ValidateStatusChange(o.Status, status); err != nil {
				return o, err
			}
			next := o.Clone()
			next.Status = status
			return next, nil
		},
		Commit: func(ctx context.Context, _ entity.Order) (entity.Order, error) {
			o, err := s.gateway.UpdateOrderStatus(ctx, id, status)
			if err != nil {
				return entity.Order{}, err
			}
			return *o, nil
		},
		Refetch: s.refetch(id),
	})
	if err == nil || errors.Is(err, mutate.ErrReconcile) {
		publish(ctx, s.events, events.KindStatus, &result)
	}
	return &result, err
}

// Edit changes a pending order's items, address or payment method.
func (s *OrderService) Edit(ctx context.Context, actor Actor, id int, edit OrderEdit) (*entity.Order, error) {
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	req := client.UpdateOrderRequest{
		ShippingAddress: edit.ShippingAddress,
		PaymentMethod:   edit.PaymentMethod,
		Notes:           edit.Notes,
	}
	result, err := mutate.Run(ctx, *current, mutate.Mutation[entity.Order]{
		Name: "order edit",
		Optimistic: func(o entity.Order) (entity.Order, error) {
			if err := workflow.CheckEditable(&o); err != nil {
				return o, err
			}
			next := o.Clone()
			if edit.Items != nil {
				items, err := editedItems(edit.Items)
				if err != nil {
					return o, err
				}
				req.Items = items
				next.Items = items
				next.TotalAmount = entity.SumItems(items)
			}
			if edit.ShippingAddress != "" {
				next.ShippingAddress = edit.ShippingAddress
			}
			if edit.PaymentMethod != "" {
				next.PaymentMethod = edit.PaymentMethod
			}
			if edit.Notes != "" {
				next.Notes = edit.Notes
			}
			return next, nil
		},
		Commit: func(ctx context.Context, _ entity.Order) (entity.Order, error) {
			o, err := s.gateway.UpdateOrder(ctx, id, req)
			if err != nil {
				return entity.Order{}, err
			}
			return *o, nil
		},
		Refetch: s.refetch(id),
	})
	if err == nil || errors.Is(err, mutate.ErrReconcile) {
		publish(ctx, s.events, events.KindUpdated, &result)
	}
	return &result, err
}

func editedItems(items []entity.OrderItem) ([]entity.OrderItem, error) {
	if len(items) == 0 {
		return nil, invalid("orderItems", "Order must contain at least one item")
	}
	out := make([]entity.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, invalid("quantity", "Quantity must be at least 1")
		}
		out = append(out, entity.NewOrderItem(item.ProductID, item.ProductName, item.UnitPrice, item.Quantity))
	}
	return out, nil
}

// Delete removes a pending order.
func (s *OrderService) Delete(ctx context.Context, actor Actor, id int) error {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := workflow.CheckEditable(order); err != nil {
		return err
	}
	if err := s.gateway.DeleteOrder(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error deleting order %d", id)
		return err
	}
	publish(ctx, s.events, events.KindDeleted, order)
	return nil
}
