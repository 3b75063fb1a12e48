package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/apierr"
	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/listing"
)

type UserBackend interface {
	GetUser(ctx context.Context, id int) (*entity.User, error)
	UpdateUser(ctx context.Context, id int, u entity.User) (*entity.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type UserPager interface {
	Users(ctx context.Context, q listing.Query) (*client.UserConnection, error)
}

type UserService struct {
	backend UserBackend
	pager   UserPager
	cache   Invalidator
}

func NewUserService(backend UserBackend, pager UserPager, cache Invalidator) *UserService {
	return &UserService{backend: backend, pager: pager, cache: cache}
}

func (s *UserService) List(ctx context.Context, q listing.Query) (*List[entity.User], error) {
	conn, err := s.pager.Users(ctx, q)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing users")
		return nil, err
	}
	users := conn.Users
	if users == nil {
		users = []entity.User{}
	}
	return &List[entity.User]{Items: users, Page: conn.PageInfo, Controls: conn.PageInfo.Controls(), Query: q}, nil
}

// Get returns a user. Customers may only read themselves.
func (s *UserService) Get(ctx context.Context, actor Actor, id int) (*entity.User, error) {
	if err := actor.checkOwner("user", id, id); err != nil {
		return nil, err
	}
	return s.backend.GetUser(ctx, id)
}

func (s *UserService) Update(ctx context.Context, actor Actor, id int, u entity.User) (*entity.User, error) {
	if err := actor.checkOwner("user", id, id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(u.Email) != "" && !strings.Contains(u.Email, "@") {
		return nil, invalid("email", "Email should be valid")
	}
	if u.Role != "" && !actor.IsAdmin() {
		current, err := s.backend.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if !current.Role.Matches(u.Role) {
			return nil, fmt.Errorf("%w: role change", apierr.ErrForbidden)
		}
	}
	updated, err := s.backend.UpdateUser(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a user. Admins cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, actor Actor, id int) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: delete user %d", apierr.ErrForbidden, id)
	}
	if actor.UserID == id {
		return invalid("id", "You cannot delete your own account")
	}
	if err := s.backend.DeleteUser(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error deleting user %d", id)
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *UserService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, client.TagUsers); err != nil {
		logger.Warn().Err(err).Msg("Error invalidating user reads")
	}
}
