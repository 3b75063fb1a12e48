package service

import (
	"context"
	"strings"

	"storefront/internal/entity"
)

type AddressBackend interface {
	Addresses(ctx context.Context, userID int) ([]entity.Address, error)
	GetAddress(ctx context.Context, id int) (*entity.Address, error)
	CreateAddress(ctx context.Context, a entity.Address) (*entity.Address, error)
	UpdateAddress(ctx context.Context, id int, a entity.Address) (*entity.Address, error)
	DeleteAddress(ctx context.Context, id int) error
	SetDefaultAddress(ctx context.Context, id int) (*entity.Address, error)
}

type AddressService struct {
	backend AddressBackend
}

func NewAddressService(backend AddressBackend) *AddressService {
	return &AddressService{backend: backend}
}

// List returns the user's addresses, rejecting lists with more than one default.
func (s *AddressService) List(ctx context.Context, actor Actor) ([]entity.Address, error) {
	addresses, err := s.backend.Addresses(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := entity.CheckSingleDefault(addresses); err != nil {
		logger.Error().Err(err).Msgf("Inconsistent addresses for user %d", actor.UserID)
		return nil, err
	}
	if addresses == nil {
		addresses = []entity.Address{}
	}
	return addresses, nil
}

func validateAddress(a entity.Address) error {
	switch {
	case strings.TrimSpace(a.Street) == "":
		return invalid("streetAddress", "Street address is required")
	case strings.TrimSpace(a.City) == "":
		return invalid("city", "City is required")
	case strings.TrimSpace(a.PostalCode) == "":
		return invalid("postalCode", "Postal code is required")
	case strings.TrimSpace(a.Country) == "":
		return invalid("country", "Country is required")
	}
	return nil
}

func (s *AddressService) owned(ctx context.Context, actor Actor, id int) (*entity.Address, error) {
	a, err := s.backend.GetAddress(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := actor.checkOwner("address", id, a.UserID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Create(ctx context.Context, actor Actor, a entity.Address) ([]entity.Address, error) {
	if err := validateAddress(a); err != nil {
		return nil, err
	}
	a.UserID = actor.UserID
	created, err := s.backend.CreateAddress(ctx, a)
	if err != nil {
		return nil, err
	}
	if a.Default {
		return s.SetDefault(ctx, actor, created.ID)
	}
	return s.List(ctx, actor)
}

func (s *AddressService) Update(ctx context.Context, actor Actor, id int, a entity.Address) ([]entity.Address, error) {
	if err := validateAddress(a); err != nil {
		return nil, err
	}
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	a.UserID = current.UserID
	if _, err := s.backend.UpdateAddress(ctx, id, a); err != nil {
		return nil, err
	}
	return s.List(ctx, actor)
}

func (s *AddressService) Delete(ctx context.Context, actor Actor, id int) ([]entity.Address, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.backend.DeleteAddress(ctx, id); err != nil {
		return nil, err
	}
	return s.List(ctx, actor)
}

// SetDefault makes id the default and returns the refetched list, which
// must then hold exactly that one default.
func (s *AddressService) SetDefault(ctx context.Context, actor Actor, id int) ([]entity.Address, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	if _, err := s.backend.SetDefaultAddress(ctx, id); err != nil {
		return nil, err
	}
	return s.List(ctx, actor)
}
