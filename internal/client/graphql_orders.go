package client

import (
	"context"

	"storefront/internal/entity"
	"storefront/internal/listing"
	"storefront/internal/workflow"
)

// GraphQLOrders serves the same order operations as Client over GraphQL.
type GraphQLOrders struct {
	g *GraphQL
}

func NewGraphQLOrders(g *GraphQL) *GraphQLOrders {
	return &GraphQLOrders{g: g}
}

func (o *GraphQLOrders) ListOrders(ctx context.Context, q listing.Query) (*entity.Page[entity.Order], error) {
	conn, err := o.g.Orders(ctx, q)
	if err != nil {
		return nil, err
	}
	return &entity.Page[entity.Order]{
		Content:       conn.Orders,
		Number:        conn.PageInfo.Page,
		Size:          conn.PageInfo.Size,
		TotalElements: conn.PageInfo.TotalElements,
		TotalPages:    conn.PageInfo.TotalPages,
	}, nil
}

// GetOrder is used to refetch authoritative state, so it skips the cache.
func (o *GraphQLOrders) GetOrder(ctx context.Context, id int) (*entity.Order, error) {
	return o.g.FetchOrder(ctx, id)
}

// TransitionOrder maps an action onto the GraphQL mutations. There is no
// per-action mutation, so the target status is derived from the current one.
func (o *GraphQLOrders) TransitionOrder(ctx context.Context, id int, action workflow.Action, transactionID string) (*entity.Order, error) {
	if action == workflow.ActionPay {
		return o.g.SimulatePayment(ctx, id, transactionID)
	}
	current, err := o.g.FetchOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := workflow.Next(current.Status, action)
	if err != nil {
		return nil, err
	}
	return o.g.UpdateOrderStatus(ctx, id, next)
}

func (o *GraphQLOrders) UpdateOrderStatus(ctx context.Context, id int, status entity.OrderStatus) (*entity.Order, error) {
	return o.g.UpdateOrderStatus(ctx, id, status)
}

func (o *GraphQLOrders) UpdateOrder(ctx context.Context, id int, req UpdateOrderRequest) (*entity.Order, error) {
	return o.g.UpdateOrder(ctx, id, req)
}

func (o *GraphQLOrders) DeleteOrder(ctx context.Context, id int) error {
	return o.g.DeleteOrder(ctx, id)
}
