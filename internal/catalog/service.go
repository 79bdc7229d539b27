package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/querycache"
)

// ErrInvalidProductID is raised by the detail view for ids the commerce API
// does not know.
var ErrInvalidProductID = errors.New("invalid product id")

// ErrUnavailable marks failures of the commerce API itself.
var ErrUnavailable = errors.New("catalog unavailable")

// ProductSource is where catalog data comes from.
type ProductSource interface {
	Product(ctx context.Context, id string) (models.Product, error)
	Products(ctx context.Context, categoryKey string) ([]models.Product, error)
}

// Service answers catalog queries through two query caches, one per kind of
// query.
type Service struct {
	source   ProductSource
	products *querycache.Cache[models.Product]
	listings *querycache.Cache[[]models.Product]
}

func NewService(source ProductSource, opts querycache.Options, log *zap.Logger) *Service {
	return &Service{
		source:   source,
		products: querycache.New[models.Product]("products", opts, log),
		listings: querycache.New[[]models.Product]("listings", opts, log),
	}
}

func ProductKey(id string) querycache.Key {
	return querycache.Key{"product", id}
}

// ListingKey scopes a listing: all products, or one category.
func ListingKey(categoryKey string) querycache.Key {
	if categoryKey == "" {
		return querycache.Key{"products"}
	}
	return querycache.Key{"products", categoryKey}
}

func (s *Service) Product(ctx context.Context, id string, wait time.Duration) querycache.Result[models.Product] {
	return s.products.Query(ctx, ProductKey(id), wait, func(ctx context.Context) (models.Product, error) {
		return s.source.Product(ctx, id)
	})
}

func (s *Service) Products(ctx context.Context, categoryKey string, wait time.Duration) querycache.Result[[]models.Product] {
	return s.listings.Query(ctx, ListingKey(categoryKey), wait, func(ctx context.Context) ([]models.Product, error) {
		return s.source.Products(ctx, categoryKey)
	})
}

func (s *Service) Close() {
	s.products.Close()
	s.listings.Close()
}
