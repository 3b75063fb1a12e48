package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"storefront/internal/entity"
	"storefront/internal/listing"
)

func (c *Client) ListProducts(ctx context.Context, q listing.Query) (*entity.Page[entity.Product], error) {
	route := listing.ProductRoute(q)
	return call[entity.Page[entity.Product]](ctx, c, http.MethodGet, route.Path, route.Params, nil)
}

func (c *Client) GetProduct(ctx context.Context, id int) (*entity.Product, error) {
	return call[entity.Product](ctx, c, http.MethodGet, "/products/"+itoa(id), nil, nil)
}

func (c *Client) CreateProduct(ctx context.Context, p entity.Product) (*entity.Product, error) {
	return call[entity.Product](ctx, c, http.MethodPost, "/products", nil, p)
}

func (c *Client) UpdateProduct(ctx context.Context, id int, p entity.Product) (*entity.Product, error) {
	return call[entity.Product](ctx, c, http.MethodPut, "/products/"+itoa(id), nil, p)
}

func (c *Client) SetProductPrice(ctx context.Context, id int, price decimal.Decimal) (*entity.Product, error) {
	return call[entity.Product](ctx, c, http.MethodPatch, fmt.Sprintf("/products/%d/price", id), url.Values{"newPrice": {price.String()}}, nil)
}

// SetProductActive calls activate or deactivate.
func (c *Client) SetProductActive(ctx context.Context, id int, active bool) (*entity.Product, error) {
	verb := "deactivate"
	if active {
		verb = "activate"
	}
	return call[entity.Product](ctx, c, http.MethodPatch, fmt.Sprintf("/products/%d/%s", id, verb), nil, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return exec(ctx, c, http.MethodDelete, "/products/"+itoa(id), nil, nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return list[entity.Category](ctx, c, "/categories", nil)
}

func (c *Client) GetCategory(ctx context.Context, id int) (*entity.Category, error) {
	return call[entity.Category](ctx, c, http.MethodGet, "/categories/"+itoa(id), nil, nil)
}

func (c *Client) CreateCategory(ctx context.Context, cat entity.Category) (*entity.Category, error) {
	return call[entity.Category](ctx, c, http.MethodPost, "/categories", nil, cat)
}

func (c *Client) UpdateCategory(ctx context.Context, id int, cat entity.Category) (*entity.Category, error) {
	return call[entity.Category](ctx, c, http.MethodPut, "/categories/"+itoa(id), nil, cat)
}

func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return exec(ctx, c, http.MethodDelete, "/categories/"+itoa(id), nil, nil)
}
