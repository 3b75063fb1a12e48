package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"storefront/internal/entity"
	"storefront/internal/listing"
	"storefront/internal/workflow"
)

// CreateOrderRequest is the checkout snapshot submitted to the backend.
type CreateOrderRequest struct {
	UserID          int                `json:"userId"`
	Items           []entity.OrderItem `json:"orderItems"`
	ShippingAddress string             `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
}

// UpdateOrderRequest edits a PENDING order.
type UpdateOrderRequest struct {
	ShippingAddress string             `json:"shippingAddress,omitempty"`
	PaymentMethod   string             `json:"paymentMethod,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	Items           []entity.OrderItem `json:"orderItems,omitempty"`
}

// CreateOrder submits an order. idempotencyKey lets the backend drop a
// duplicate submission of the same checkout.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*entity.Order, error) {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotent-Key", idempotencyKey)
	}
	return callWithHeader[entity.Order](ctx, c, http.MethodPost, "/orders", nil, req, header)
}

func (c *Client) GetOrder(ctx context.Context, id int) (*entity.Order, error) {
	return call[entity.Order](ctx, c, http.MethodGet, "/orders/"+itoa(id), nil, nil)
}

// ListOrders routes the query to the matching paginated endpoint. Filters
// REST cannot express go to the fallback lister, or fail with
// listing.ErrBadParam when there is none.
func (c *Client) ListOrders(ctx context.Context, q listing.Query) (*entity.Page[entity.Order], error) {
	route, err := listing.OrderRoute(q)
	if err != nil {
		if c.orders == nil {
			return nil, err
		}
		logger.Debug().Err(err).Msg("listing orders through the fallback")
		return c.orders.ListOrders(ctx, q)
	}
	return call[entity.Page[entity.Order]](ctx, c, http.MethodGet, route.Path, route.Params, nil)
}

func (c *Client) PendingOrders(ctx context.Context) ([]entity.Order, error) {
	return list[entity.Order](ctx, c, "/orders/pending", nil)
}

// TransitionOrder calls the action endpoint. transactionID is only sent for pay.
func (c *Client) TransitionOrder(ctx context.Context, id int, action workflow.Action, transactionID string) (*entity.Order, error) {
	var (
		path  string
		query url.Values
	)
	switch action {
	case workflow.ActionConfirm, workflow.ActionShip, workflow.ActionComplete, workflow.ActionCancel:
		path = fmt.Sprintf("/orders/%d/%s", id, action)
	case workflow.ActionPay:
		path = fmt.Sprintf("/orders/%d/payment", id)
		query = url.Values{"transactionId": {transactionID}}
	default:
		return nil, fmt.Errorf("%w: %q", workflow.ErrUnknownAction, action)
	}
	return call[entity.Order](ctx, c, http.MethodPatch, path, query, nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int, status entity.OrderStatus) (*entity.Order, error) {
	return call[entity.Order](ctx, c, http.MethodPatch, fmt.Sprintf("/orders/%d/status", id), url.Values{"status": {string(status)}}, nil)
}

func (c *Client) UpdateOrder(ctx context.Context, id int, req UpdateOrderRequest) (*entity.Order, error) {
	return call[entity.Order](ctx, c, http.MethodPut, "/orders/"+itoa(id), nil, req)
}

func (c *Client) DeleteOrder(ctx context.Context, id int) error {
	return exec(ctx, c, http.MethodDelete, "/orders/"+itoa(id), nil, nil)
}
