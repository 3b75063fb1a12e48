package service

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"storefront/internal/apierr"
	"storefront/internal/entity"
	"storefront/internal/listing"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Actor is the signed-in user a request acts for.
type Actor struct {
	UserID   int
	Username string
	Role     entity.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role.Matches(entity.RoleAdmin)
}

// owns reports whether a may touch a record belonging to userID.
func (a Actor) owns(userID int) bool {
	return a.IsAdmin() || a.UserID == userID
}

func (a Actor) checkOwner(kind string, id, userID int) error {
	if !a.owns(userID) {
		logger.Warn().Msgf("User %d denied access to %s %d", a.UserID, kind, id)
		return fmt.Errorf("%w: %s %d", apierr.ErrForbidden, kind, id)
	}
	return nil
}

// EventPublisher announces confirmed order changes.
type EventPublisher interface {
	PublishOrder(ctx context.Context, kind string, order *entity.Order) error
}

type nopPublisher struct{}

func (nopPublisher) PublishOrder(context.Context, string, *entity.Order) error { return nil }

func publish(ctx context.Context, p EventPublisher, kind string, order *entity.Order) {
	if err := p.PublishOrder(ctx, kind, order); err != nil {
		logger.Error().Err(err).Msgf("Error publishing order-%s-%d", kind, order.ID)
	}
}

// List is one page of a listing view.
type List[T any] struct {
	Items    []T              `json:"items"`
	Page     listing.PageInfo `json:"page"`
	Controls listing.Controls `json:"controls"`
	Query    listing.Query    `json:"-"`
}

func newList[T, E any](q listing.Query, page *entity.Page[E], view func(E) T) (*List[T], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	items := make([]T, 0, len(page.Content))
	for _, e := range page.Content {
		items = append(items, view(e))
	}
	info := listing.FromPage(page)
	return &List[T]{Items: items, Page: info, Controls: info.Controls(), Query: q}, nil
}

func identity[T any](v T) T { return v }

func invalid(field, msg string) error {
	return apierr.Invalid(field, msg)
}
