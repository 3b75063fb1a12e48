package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/service"
)

type CartHandler struct {
	*Responder
	cart  *service.CartService
	notes *service.NotificationService
}

func NewCartHandler(r *Responder, cart *service.CartService, notes *service.NotificationService) *CartHandler {
	return &CartHandler{Responder: r, cart: cart, notes: notes}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	view, err := h.cart.View(c.Request().Context(), actor(c))
	if err != nil {
		return h.fail(c, "Loading cart failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

type cartItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req cartItemRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Add to cart failed", err)
	}
	view, err := h.cart.Add(c.Request().Context(), actor(c), req.ProductID, req.Quantity)
	if err != nil {
		return h.fail(c, "Add to cart failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Cart update failed", err)
	}
	var req cartItemRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Cart update failed", err)
	}
	view, err := h.cart.Update(c.Request().Context(), actor(c), id, req.Quantity)
	if err != nil {
		return h.fail(c, "Cart update failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Cart update failed", err)
	}
	view, err := h.cart.Remove(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, "Cart update failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	view, err := h.cart.Clear(c.Request().Context(), actor(c))
	if err != nil {
		return h.fail(c, "Clearing cart failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

// Checkout places the order. A cart that could not be emptied afterwards
// is reported alongside the placed order, not as a failure.
func (h *CartHandler) Checkout(c echo.Context) error {
	var req service.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Checkout failed", err)
	}
	if key := c.Request().Header.Get("Idempotent-Key"); key != "" {
		req.IdempotencyKey = key
	}

	a := actor(c)
	result, err := h.cart.Checkout(c.Request().Context(), a, req)
	if err != nil && !errors.Is(err, service.ErrCartNotCleared) {
		return h.fail(c, "Checkout failed", err)
	}

	if h.notes != nil {
		msg := fmt.Sprintf("Order #%d was placed", result.Order.ID)
		if nerr := h.notes.Success(c.Request().Context(), a.UserID, "Order placed", msg); nerr != nil {
			logger.Warn().Err(nerr).Msg("Error recording checkout notification")
		}
	}
	body := map[string]interface{}{"order": result.Order, "cart": result.Cart}
	if err != nil {
		body["warning"] = "Your order was placed but the cart could not be emptied."
	}
	return c.JSON(http.StatusCreated, body)
}
