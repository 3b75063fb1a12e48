package service

import (
	"context"

	"storefront/internal/entity"
)

type ReviewBackend interface {
	ProductReviews(ctx context.Context, productID int) ([]entity.Review, error)
	UserReviews(ctx context.Context, userID int) ([]entity.Review, error)
	ListReviews(ctx context.Context) ([]entity.Review, error)
	GetReview(ctx context.Context, id int) (*entity.Review, error)
	CreateReview(ctx context.Context, r entity.Review) (*entity.Review, error)
	UpdateReview(ctx context.Context, id int, r entity.Review) (*entity.Review, error)
	MarkReviewHelpful(ctx context.Context, id int) (*entity.Review, error)
	DeleteReview(ctx context.Context, id int) error
}

type ReviewService struct {
	backend ReviewBackend
}

func NewReviewService(backend ReviewBackend) *ReviewService {
	return &ReviewService{backend: backend}
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return invalid("rating", "Rating must be between 1 and 5")
	}
	return nil
}

func (s *ReviewService) ForProduct(ctx context.Context, productID int) ([]entity.Review, error) {
	return s.backend.ProductReviews(ctx, productID)
}

func (s *ReviewService) Mine(ctx context.Context, actor Actor) ([]entity.Review, error) {
	return s.backend.UserReviews(ctx, actor.UserID)
}

func (s *ReviewService) All(ctx context.Context) ([]entity.Review, error) {
	return s.backend.ListReviews(ctx)
}

func (s *ReviewService) Create(ctx context.Context, actor Actor, r entity.Review) (*entity.Review, error) {
	if err := validRating(r.Rating); err != nil {
		return nil, err
	}
	if r.ProductID == 0 {
		return nil, invalid("productId", "Product is required")
	}
	r.UserID = actor.UserID
	return s.backend.CreateReview(ctx, r)
}

func (s *ReviewService) owned(ctx context.Context, actor Actor, id int) (*entity.Review, error) {
	r, err := s.backend.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := actor.checkOwner("review", id, r.UserID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, id int, r entity.Review) (*entity.Review, error) {
	if err := validRating(r.Rating); err != nil {
		return nil, err
	}
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	r.UserID = current.UserID
	r.ProductID = current.ProductID
	return s.backend.UpdateReview(ctx, id, r)
}

func (s *ReviewService) MarkHelpful(ctx context.Context, id int) (*entity.Review, error) {
	return s.backend.MarkReviewHelpful(ctx, id)
}

func (s *ReviewService) Delete(ctx context.Context, actor Actor, id int) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.backend.DeleteReview(ctx, id)
}
