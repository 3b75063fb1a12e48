package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/apierr"
	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/events"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrDuplicateCheckout = errors.New("duplicate checkout submission")
	// ErrCartNotCleared means the order was placed but the cart still holds its items.
	ErrCartNotCleared = errors.New("order placed but cart could not be cleared")
)

type CartBackend interface {
	CartItems(ctx context.Context, userID int) ([]entity.CartItem, error)
	AddToCart(ctx context.Context, req client.AddToCartRequest) (*entity.CartItem, error)
	UpdateCartItem(ctx context.Context, cartItemID, quantity int) (*entity.CartItem, error)
	RemoveCartItem(ctx context.Context, cartItemID int) error
	ClearCart(ctx context.Context, userID int) error
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, req client.CreateOrderRequest, idempotencyKey string) (*entity.Order, error)
}

// IdempotencyGuard remembers checkout keys so a resubmitted form does not
// place a second order.
type IdempotencyGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisIdempotencyGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyGuard(rdb *redis.Client) *RedisIdempotencyGuard {
	return &RedisIdempotencyGuard{rdb: rdb, ttl: 24 * time.Hour}
}

func idempotentKey(key string) string {
	return fmt.Sprintf("idempotent-key:%s", key)
}

// Claim returns false when the key was already used.
func (g *RedisIdempotencyGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.rdb.SetNX(ctx, idempotentKey(key), "exists", g.ttl).Result()
}

func (g *RedisIdempotencyGuard) Release(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, idempotentKey(key)).Err()
}

type nopGuard struct{}

func (nopGuard) Claim(context.Context, string) (bool, error) { return true, nil }
func (nopGuard) Release(context.Context, string) error       { return nil }

type CartView struct {
	Items []entity.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

func newCartView(cart *entity.Cart) *CartView {
	items := cart.Items
	if items == nil {
		items = []entity.CartItem{}
	}
	return &CartView{Items: items, Total: cart.Total(), Count: cart.Count()}
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
	Notes           string `json:"notes"`
	IdempotencyKey  string `json:"idempotencyKey"`
}

type CheckoutResult struct {
	Order *entity.Order `json:"order"`
	Cart  *CartView     `json:"cart"`
}

type CartService struct {
	cart   CartBackend
	orders OrderCreator
	guard  IdempotencyGuard
	events EventPublisher
}

func NewCartService(cart CartBackend, orders OrderCreator, guard IdempotencyGuard, publisher EventPublisher) *CartService {
	if guard == nil {
		guard = nopGuard{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &CartService{cart: cart, orders: orders, guard: guard, events: publisher}
}

func (s *CartService) load(ctx context.Context, userID int) (*entity.Cart, error) {
	items, err := s.cart.CartItems(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error loading cart for user %d", userID)
		return nil, err
	}
	return &entity.Cart{UserID: userID, Items: items}, nil
}

func (s *CartService) View(ctx context.Context, actor Actor) (*CartView, error) {
	cart, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return newCartView(cart), nil
}

func (s *CartService) Add(ctx context.Context, actor Actor, productID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, invalid("quantity", "Quantity must be at least 1")
	}
	_, err := s.cart.AddToCart(ctx, client.AddToCartRequest{UserID: actor.UserID, ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, actor)
}

// line checks that cartItemID is in the actor's cart.
func (s *CartService) line(ctx context.Context, actor Actor, cartItemID int) error {
	cart, err := s.load(ctx, actor.UserID)
	if err != nil {
		return err
	}
	for _, item := range cart.Items {
		if item.ID == cartItemID {
			return nil
		}
	}
	return fmt.Errorf("%w: cart item %d", apierr.ErrNotFound, cartItemID)
}

func (s *CartService) Update(ctx context.Context, actor Actor, cartItemID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, invalid("quantity", "Quantity must be at least 1")
	}
	if err := s.line(ctx, actor, cartItemID); err != nil {
		return nil, err
	}
	if _, err := s.cart.UpdateCartItem(ctx, cartItemID, quantity); err != nil {
		return nil, err
	}
	return s.View(ctx, actor)
}

func (s *CartService) Remove(ctx context.Context, actor Actor, cartItemID int) (*CartView, error) {
	if err := s.line(ctx, actor, cartItemID); err != nil {
		return nil, err
	}
	if err := s.cart.RemoveCartItem(ctx, cartItemID); err != nil {
		return nil, err
	}
	return s.View(ctx, actor)
}

func (s *CartService) Clear(ctx context.Context, actor Actor) (*CartView, error) {
	if err := s.cart.ClearCart(ctx, actor.UserID); err != nil {
		return nil, err
	}
	return s.View(ctx, actor)
}

// Checkout turns the cart into an order. The cart is cleared only after the
// backend has confirmed the order; any earlier failure leaves it untouched.
func (s *CartService) Checkout(ctx context.Context, actor Actor, req CheckoutRequest) (*CheckoutResult, error) {
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, invalid("shippingAddress", "Shipping address is required")
	}
	cart, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, fmt.Errorf("%w: %w", apierr.ErrValidation, ErrEmptyCart)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	claimed, err := s.guard.Claim(ctx, key)
	if err != nil {
		logger.Error().Err(err).Msg("Error checking idempotent key")
		return nil, err
	}
	if !claimed {
		logger.Warn().Msgf("Checkout %s already submitted", key)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCheckout, key)
	}

	total := cart.Total()
	order, err := s.orders.CreateOrder(ctx, client.CreateOrderRequest{
		UserID:          actor.UserID,
		Items:           cart.OrderItems(),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		TotalAmount:     total,
	}, key)
	if err != nil {
		logger.Error().Err(err).Msgf("Checkout failed for user %d", actor.UserID)
		if rerr := s.guard.Release(ctx, key); rerr != nil {
			logger.Warn().Err(rerr).Msgf("Error releasing idempotent key %s", key)
		}
		return nil, err
	}
	if !order.TotalAmount.Equal(total) {
		logger.Warn().Msgf("Order %d total %s differs from cart total %s", order.ID, order.TotalAmount, total)
	}
	publish(ctx, s.events, events.KindCreated, order)

	if err := s.cart.ClearCart(ctx, actor.UserID); err != nil {
		logger.Warn().Err(err).Msgf("Order %d placed but cart of user %d not cleared", order.ID, actor.UserID)
		return &CheckoutResult{Order: order, Cart: newCartView(cart)}, fmt.Errorf("%w: %w", ErrCartNotCleared, err)
	}

	after, err := s.load(ctx, actor.UserID)
	if err != nil {
		after = &entity.Cart{UserID: actor.UserID}
	}
	return &CheckoutResult{Order: order, Cart: newCartView(after)}, nil
}
