package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/entity"
	"storefront/internal/listing"
)

type CatalogBackend interface {
	ListProducts(ctx context.Context, q listing.Query) (*entity.Page[entity.Product], error)
	GetProduct(ctx context.Context, id int) (*entity.Product, error)
	CreateProduct(ctx context.Context, p entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id int, p entity.Product) (*entity.Product, error)
	SetProductPrice(ctx context.Context, id int, price decimal.Decimal) (*entity.Product, error)
	SetProductActive(ctx context.Context, id int, active bool) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	GetCategory(ctx context.Context, id int) (*entity.Category, error)
	CreateCategory(ctx context.Context, cat entity.Category) (*entity.Category, error)
	UpdateCategory(ctx context.Context, id int, cat entity.Category) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

// CategorySource lists categories; the GraphQL client serves it from cache.
type CategorySource interface {
	Categories(ctx context.Context) ([]entity.Category, error)
}

// Invalidator drops cached reads after a write through REST.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

type ProductView struct {
	entity.Product
	LowStock bool `json:"lowStock"`
}

func productView(p entity.Product) ProductView {
	return ProductView{Product: p, LowStock: p.IsLowStock()}
}

type CatalogService struct {
	backend    CatalogBackend
	categories CategorySource
	cache      Invalidator
}

func NewCatalogService(backend CatalogBackend, categories CategorySource, cache Invalidator) *CatalogService {
	return &CatalogService{backend: backend, categories: categories, cache: cache}
}

func (s *CatalogService) invalidate(ctx context.Context, tags ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tags...); err != nil {
		logger.Warn().Err(err).Msgf("Error invalidating %v", tags)
	}
}

// Products lists products. Shoppers only see active ones.
func (s *CatalogService) Products(ctx context.Context, actor Actor, q listing.Query) (*List[ProductView], error) {
	if !actor.IsAdmin() && q.Filter.Status == "" {
		q.Filter.Status = "active"
	}
	page, err := s.backend.ListProducts(ctx, q)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}
	return newList(q, page, productView)
}

func (s *CatalogService) Product(ctx context.Context, id int) (*ProductView, error) {
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	view := productView(*p)
	return &view, nil
}

func validateProduct(p entity.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("productName", "Product name is required")
	}
	if p.Price.IsNegative() {
		return invalid("price", "Price must not be negative")
	}
	if p.CostPrice.IsNegative() {
		return invalid("costPrice", "Cost price must not be negative")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p entity.Product) (*entity.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	created, err := s.backend.CreateProduct(ctx, p)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}
	s.invalidate(ctx, tagProducts...)
	return created, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int, p entity.Product) (*entity.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	updated, err := s.backend.UpdateProduct(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, tagProducts...)
	return updated, nil
}

func (s *CatalogService) SetPrice(ctx context.Context, id int, price decimal.Decimal) (*entity.Product, error) {
	if price.IsNegative() {
		return nil, invalid("price", "Price must not be negative")
	}
	p, err := s.backend.SetProductPrice(ctx, id, price)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, tagProducts...)
	return p, nil
}

func (s *CatalogService) SetActive(ctx context.Context, id int, active bool) (*entity.Product, error) {
	p, err := s.backend.SetProductActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, tagProducts...)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %d", id)
		return err
	}
	s.invalidate(ctx, tagProducts...)
	return nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]entity.Category, error) {
	return s.categories.Categories(ctx)
}

func (s *CatalogService) Category(ctx context.Context, id int) (*entity.Category, error) {
	return s.backend.GetCategory(ctx, id)
}

func validateCategory(id int, c entity.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("categoryName", "Category name is required")
	}
	if c.ParentCategoryID != nil && *c.ParentCategoryID == id && id != 0 {
		return invalid("parentCategoryId", "A category cannot be its own parent")
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c entity.Category) (*entity.Category, error) {
	if err := validateCategory(0, c); err != nil {
		return nil, err
	}
	created, err := s.backend.CreateCategory(ctx, c)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, tagCategories...)
	return created, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int, c entity.Category) (*entity.Category, error) {
	if err := validateCategory(id, c); err != nil {
		return nil, err
	}
	updated, err := s.backend.UpdateCategory(ctx, id, c)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, tagCategories...)
	return updated, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int) error {
	if err := s.backend.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, tagCategories...)
	return nil
}
