package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"storefront/internal/entity"
	"storefront/internal/listing"
)

type AddToCartRequest struct {
	UserID    int `json:"userId"`
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (c *Client) CartItems(ctx context.Context, userID int) ([]entity.CartItem, error) {
	return list[entity.CartItem](ctx, c, fmt.Sprintf("/cart/user/%d", userID), nil)
}

func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*entity.CartItem, error) {
	return call[entity.CartItem](ctx, c, http.MethodPost, "/cart/items", nil, req)
}

func (c *Client) UpdateCartItem(ctx context.Context, cartItemID, quantity int) (*entity.CartItem, error) {
	return call[entity.CartItem](ctx, c, http.MethodPut, fmt.Sprintf("/cart/items/%d", cartItemID),
		url.Values{"quantity": {strconv.Itoa(quantity)}}, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, cartItemID int) error {
	return exec(ctx, c, http.MethodDelete, fmt.Sprintf("/cart/items/%d", cartItemID), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context, userID int) error {
	return exec(ctx, c, http.MethodDelete, fmt.Sprintf("/cart/user/%d", userID), nil, nil)
}

// CartTotal is the backend's own total, used to cross-check the local sum.
func (c *Client) CartTotal(ctx context.Context, userID int) (decimal.Decimal, error) {
	total, err := call[decimal.Decimal](ctx, c, http.MethodGet, fmt.Sprintf("/cart/user/%d/total", userID), nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return *total, nil
}

func (c *Client) Addresses(ctx context.Context, userID int) ([]entity.Address, error) {
	return list[entity.Address](ctx, c, fmt.Sprintf("/addresses/user/%d", userID), nil)
}

func (c *Client) GetAddress(ctx context.Context, id int) (*entity.Address, error) {
	return call[entity.Address](ctx, c, http.MethodGet, "/addresses/"+itoa(id), nil, nil)
}

func (c *Client) CreateAddress(ctx context.Context, a entity.Address) (*entity.Address, error) {
	return call[entity.Address](ctx, c, http.MethodPost, "/addresses", nil, a)
}

func (c *Client) UpdateAddress(ctx context.Context, id int, a entity.Address) (*entity.Address, error) {
	return call[entity.Address](ctx, c, http.MethodPut, "/addresses/"+itoa(id), nil, a)
}

func (c *Client) DeleteAddress(ctx context.Context, id int) error {
	return exec(ctx, c, http.MethodDelete, "/addresses/"+itoa(id), nil, nil)
}

func (c *Client) SetDefaultAddress(ctx context.Context, id int) (*entity.Address, error) {
	return call[entity.Address](ctx, c, http.MethodPatch, fmt.Sprintf("/addresses/%d/set-default", id), nil, nil)
}

func (c *Client) ProductReviews(ctx context.Context, productID int) ([]entity.Review, error) {
	return list[entity.Review](ctx, c, fmt.Sprintf("/reviews/product/%d", productID), nil)
}

func (c *Client) UserReviews(ctx context.Context, userID int) ([]entity.Review, error) {
	return list[entity.Review](ctx, c, fmt.Sprintf("/reviews/user/%d", userID), nil)
}

func (c *Client) ListReviews(ctx context.Context) ([]entity.Review, error) {
	return list[entity.Review](ctx, c, "/reviews", nil)
}

func (c *Client) GetReview(ctx context.Context, id int) (*entity.Review, error) {
	return call[entity.Review](ctx, c, http.MethodGet, "/reviews/"+itoa(id), nil, nil)
}

func (c *Client) CreateReview(ctx context.Context, r entity.Review) (*entity.Review, error) {
	return call[entity.Review](ctx, c, http.MethodPost, "/reviews", nil, r)
}

func (c *Client) UpdateReview(ctx context.Context, id int, r entity.Review) (*entity.Review, error) {
	return call[entity.Review](ctx, c, http.MethodPut, "/reviews/"+itoa(id), nil, r)
}

func (c *Client) MarkReviewHelpful(ctx context.Context, id int) (*entity.Review, error) {
	return call[entity.Review](ctx, c, http.MethodPatch, fmt.Sprintf("/reviews/%d/helpful", id), nil, nil)
}

func (c *Client) DeleteReview(ctx context.Context, id int) error {
	return exec(ctx, c, http.MethodDelete, "/reviews/"+itoa(id), nil, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]entity.User, error) {
	return list[entity.User](ctx, c, "/users", nil)
}

func (c *Client) GetUser(ctx context.Context, id int) (*entity.User, error) {
	return call[entity.User](ctx, c, http.MethodGet, "/users/"+itoa(id), nil, nil)
}

func (c *Client) UpdateUser(ctx context.Context, id int, u entity.User) (*entity.User, error) {
	return call[entity.User](ctx, c, http.MethodPut, "/users/"+itoa(id), nil, u)
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return exec(ctx, c, http.MethodDelete, "/users/"+itoa(id), nil, nil)
}

// ListAuditLogs routes the query to the most specific audit-log endpoint.
func (c *Client) ListAuditLogs(ctx context.Context, q listing.Query) (*entity.Page[entity.AuditLog], error) {
	route := listing.AuditLogRoute(q)
	return call[entity.Page[entity.AuditLog]](ctx, c, http.MethodGet, route.Path, route.Params, nil)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"firstName,omitempty"`
	LastName  string      `json:"lastName,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Role      entity.Role `json:"userType,omitempty"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	return call[LoginResponse](ctx, c, http.MethodPost, "/auth/login", nil, req)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	return call[entity.User](ctx, c, http.MethodPost, "/auth/register", nil, req)
}
