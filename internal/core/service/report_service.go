package service

import (
	"context"
	"fmt"

	"github.com/mlozan/sales-ops/internal/core/domain"
	"github.com/mlozan/sales-ops/internal/port"
)

const (
	topClientsLimit = 10
	topSellersLimit = 3
)

// ReportService answers read-only questions about orders. It never touches
// the ledger.
type ReportService struct {
	guard  OwnershipGuard
	orders port.OrderRepository
}

func NewReportService(orders port.OrderRepository) *ReportService {
	return &ReportService{orders: orders}
}

func (s *ReportService) GetOrder(ctx context.Context, sellerID, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	if err := s.guard.Authorize(sellerID, order.SellerID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *ReportService) ListOrders(ctx context.Context, sellerID string, status domain.OrderStatus) ([]domain.Order, error) {
	if sellerID == "" {
		return nil, domain.ErrForbidden
	}
	if status == "" {
		return s.orders.ListBySeller(ctx, sellerID)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, status)
	}
	return s.orders.ListBySellerAndStatus(ctx, sellerID, status)
}

func (s *ReportService) TopClients(ctx context.Context) ([]domain.ClientRevenue, error) {
	return s.orders.TopClients(ctx, topClientsLimit)
}

func (s *ReportService) TopSellers(ctx context.Context) ([]domain.SellerRevenue, error) {
	return s.orders.TopSellers(ctx, topSellersLimit)
}
