package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/apierr"
	"storefront/internal/entity"
	"storefront/internal/listing"
	"storefront/internal/mutate"
	"storefront/internal/service"
	"storefront/internal/workflow"
)

// OrderHandler serves one order view; the admin and customer views each
// get their own, backed by different gateways.
type OrderHandler struct {
	*Responder
	orders *service.OrderService
}

func NewOrderHandler(r *Responder, orders *service.OrderService) *OrderHandler {
	return &OrderHandler{Responder: r, orders: orders}
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	q, err := listQuery(c, listing.OrderQuery())
	if err != nil {
		return h.failList(c, "Loading orders failed", err)
	}
	list, err := h.orders.List(c.Request().Context(), actor(c), q)
	if err != nil {
		return h.failList(c, "Loading orders failed", err)
	}
	return listJSON(c, list)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Loading order failed", err)
	}
	order, err := h.orders.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, "Loading order failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

// mutated answers a workflow mutation. A stale refetch still shows the
// optimistic order, with a warning header.
func (h *OrderHandler) mutated(c echo.Context, title string, order *entity.Order, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, order)
	case errors.Is(err, mutate.ErrReconcile):
		c.Response().Header().Set("Warning", `199 - "order may be out of date"`)
		return c.JSON(http.StatusOK, order)
	case order != nil && order.ID != 0:
		return h.failWith(c, title, err, order)
	}
	return h.fail(c, title, err)
}

type actionRequest struct {
	TransactionID string `json:"transactionId"`
}

func (h *OrderHandler) ApplyAction(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Order update failed", err)
	}
	action, err := workflow.ParseAction(c.Param("action"))
	if err != nil {
		return h.fail(c, "Order update failed", err)
	}
	var req actionRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return h.fail(c, "Order update failed", err)
		}
	}
	order, err := h.orders.Transition(c.Request().Context(), actor(c), id, action, req.TransactionID)
	return h.mutated(c, fmt.Sprintf("Could not %s order #%d", action, id), order, err)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Cancel failed", err)
	}
	order, err := h.orders.Transition(c.Request().Context(), actor(c), id, workflow.ActionCancel, "")
	return h.mutated(c, fmt.Sprintf("Could not cancel order #%d", id), order, err)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Status update failed", err)
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Status update failed", err)
	}
	status, err := entity.ParseOrderStatus(req.Status)
	if err != nil {
		return h.fail(c, "Status update failed", apierr.Invalid("status", "Unknown order status"))
	}
	order, err := h.orders.SetStatus(c.Request().Context(), actor(c), id, status)
	return h.mutated(c, fmt.Sprintf("Could not update order #%d", id), order, err)
}

func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Order update failed", err)
	}
	var edit service.OrderEdit
	if err := bind(c, &edit); err != nil {
		return h.fail(c, "Order update failed", err)
	}
	order, err := h.orders.Edit(c.Request().Context(), actor(c), id, edit)
	return h.mutated(c, fmt.Sprintf("Could not update order #%d", id), order, err)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Delete failed", err)
	}
	if err := h.orders.Delete(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, fmt.Sprintf("Could not delete order #%d", id), err)
	}
	return c.NoContent(http.StatusNoContent)
}
