package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/entity"
)

// StockOp is one of the quantity-relative inventory endpoints.
type StockOp string

const (
	StockAdd     StockOp = "add"
	StockRemove  StockOp = "remove"
	StockReserve StockOp = "reserve"
	StockRelease StockOp = "release"
)

func (c *Client) GetInventory(ctx context.Context, productID int) (*entity.Inventory, error) {
	return call[entity.Inventory](ctx, c, http.MethodGet, fmt.Sprintf("/inventory/product/%d", productID), nil, nil)
}

func (c *Client) BatchInventory(ctx context.Context, productIDs []int) ([]entity.Inventory, error) {
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = strconv.Itoa(id)
	}
	return list[entity.Inventory](ctx, c, "/inventory/products/batch", url.Values{"productIds": {strings.Join(ids, ",")}})
}

func (c *Client) SetStock(ctx context.Context, productID, quantity int) (*entity.Inventory, error) {
	return call[entity.Inventory](ctx, c, http.MethodPut, fmt.Sprintf("/inventory/product/%d", productID),
		url.Values{"newQuantity": {strconv.Itoa(quantity)}}, nil)
}

func (c *Client) AdjustStock(ctx context.Context, productID int, op StockOp, quantity int) (*entity.Inventory, error) {
	return call[entity.Inventory](ctx, c, http.MethodPatch, fmt.Sprintf("/inventory/product/%d/%s", productID, op),
		url.Values{"quantity": {strconv.Itoa(quantity)}}, nil)
}

func (c *Client) SetReorderLevel(ctx context.Context, productID, level int) (*entity.Inventory, error) {
	return call[entity.Inventory](ctx, c, http.MethodPatch, fmt.Sprintf("/inventory/product/%d/reorder-level", productID),
		url.Values{"reorderLevel": {strconv.Itoa(level)}}, nil)
}

func (c *Client) LowStock(ctx context.Context) ([]entity.Inventory, error) {
	return list[entity.Inventory](ctx, c, "/inventory/low-stock", nil)
}

func (c *Client) OutOfStock(ctx context.Context) ([]entity.Inventory, error) {
	return list[entity.Inventory](ctx, c, "/inventory/out-of-stock", nil)
}
