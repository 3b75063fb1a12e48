package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront/internal/apierr"
	"storefront/internal/entity"
)

const activeNotificationLimit = 20

type NotificationStore interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListActive(ctx context.Context, userID, limit int) ([]entity.Notification, error)
	Dismiss(ctx context.Context, userID int, id string) error
	DismissAll(ctx context.Context, userID int) (int64, error)
}

// NotificationService keeps the dismissible notifications shown for
// failures that are not presented inline.
type NotificationService struct {
	store NotificationStore
	now   func() time.Time
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store, now: time.Now}
}

// Record stores a notification for c when it should be presented as one.
// It returns nil when there is nothing to record.
func (s *NotificationService) Record(ctx context.Context, userID int, title string, c apierr.Classification) (*entity.Notification, error) {
	if userID == 0 || !apierr.Present(c, false).Notify {
		return nil, nil
	}
	n := &entity.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Level:     entity.LevelError,
		Category:  string(c.Category),
		Title:     title,
		Message:   c.Message,
		CreatedAt: s.now().UTC(),
	}
	if c.Category == apierr.CategoryNetwork || c.Category == apierr.CategoryRateLimited {
		n.Level = entity.LevelWarning
	}
	if err := s.store.Create(ctx, n); err != nil {
		logger.Error().Err(err).Msgf("Error recording notification for user %d", userID)
		return nil, err
	}
	return n, nil
}

// Success records a confirmation, e.g. after checkout.
func (s *NotificationService) Success(ctx context.Context, userID int, title, message string) error {
	return s.store.Create(ctx, &entity.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Level:     entity.LevelSuccess,
		Category:  "success",
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	})
}

func (s *NotificationService) Active(ctx context.Context, actor Actor) ([]entity.Notification, error) {
	list, err := s.store.ListActive(ctx, actor.UserID, activeNotificationLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []entity.Notification{}
	}
	return list, nil
}

func (s *NotificationService) Dismiss(ctx context.Context, actor Actor, id string) error {
	return s.store.Dismiss(ctx, actor.UserID, id)
}

func (s *NotificationService) DismissAll(ctx context.Context, actor Actor) (int64, error) {
	return s.store.DismissAll(ctx, actor.UserID)
}
