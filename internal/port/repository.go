package port

import (
	"context"

	"github.com/mlozan/sales-ops/internal/core/domain"
)

type SellerRepository interface {
	Create(ctx context.Context, seller domain.Seller) error
	FindByID(ctx context.Context, id string) (*domain.Seller, error)
	FindByEmail(ctx context.Context, email string) (*domain.Seller, error)
}

type ClientRepository interface {
	Create(ctx context.Context, client domain.Client) error
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	FindByEmail(ctx context.Context, email string) (*domain.Client, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Client, error)
	Update(ctx context.Context, client domain.Client) error
	Delete(ctx context.Context, id string) error
}

type CatalogRepository interface {
	Create(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// FindByIDs fetches all referenced products in one round trip. Missing
	// ids are simply absent from the result; the caller decides whether that
	// is an error.
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, id string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Order, error)
	ListBySellerAndStatus(ctx context.Context, sellerID string, status domain.OrderStatus) ([]domain.Order, error)
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, id string) error

	// Report aggregations over completed orders.
	TopClients(ctx context.Context, limit int) ([]domain.ClientRevenue, error)
	TopSellers(ctx context.Context, limit int) ([]domain.SellerRevenue, error)
}
