package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mlozan/sales-ops/internal/core/domain"
	"github.com/mlozan/sales-ops/internal/port"
)

const searchResultLimit = 20

// CatalogService is plain CRUD over the shared product catalog. It seeds the
// initial stock of a new product but never changes stock afterwards; that is
// the ledger's job.
type CatalogService struct {
	catalog port.CatalogRepository
}

func NewCatalogService(catalog port.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) CreateProduct(ctx context.Context, name string, stock int, price decimal.Decimal) (*domain.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidInput)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
	}

	now := time.Now()
	product := domain.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Stock:     stock,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("persist product: %w", err)
	}
	return &product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.catalog.FindByID(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.catalog.List(ctx)
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", domain.ErrInvalidInput)
	}
	return s.catalog.Search(ctx, query, searchResultLimit)
}

// UpdateProduct changes name and price. Stock is deliberately not an input.
func (s *CatalogService) UpdateProduct(ctx context.Context, id, name string, price decimal.Decimal) (*domain.Product, error) {
	product, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}
	if name != "" {
		product.Name = name
	}
	if !price.IsZero() {
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
		}
		product.Price = price
	}
	product.UpdatedAt = time.Now()
	if err := s.catalog.Update(ctx, *product); err != nil {
		return nil, fmt.Errorf("persist product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.catalog.FindByID(ctx, id); err != nil {
		return fmt.Errorf("product %s: %w", id, err)
	}
	return s.catalog.Delete(ctx, id)
}
