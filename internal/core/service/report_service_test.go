package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mlozan/sales-ops/internal/core/domain"
)

func reportFixture() (*ReportService, *memOrderRepo) {
	repo := newMemOrderRepo(
		domain.Order{ID: "o1", SellerID: "seller-1", ClientID: "c1", Status: domain.OrderStatusPending, Total: price("10")},
		domain.Order{ID: "o2", SellerID: "seller-1", ClientID: "c1", Status: domain.OrderStatusCompleted, Total: price("25")},
		domain.Order{ID: "o3", SellerID: "seller-2", ClientID: "c2", Status: domain.OrderStatusCompleted, Total: price("40")},
	)
	return NewReportService(repo), repo
}

func TestGetOrder_Ownership(t *testing.T) {
	svc, _ := reportFixture()
	ctx := context.Background()

	if _, err := svc.GetOrder(ctx, "seller-1", "o1"); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.GetOrder(ctx, "seller-2", "o1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, "seller-1", "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrders(t *testing.T) {
	svc, _ := reportFixture()
	ctx := context.Background()

	all, err := svc.ListOrders(ctx, "seller-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 orders, got %d", len(all))
	}

	completed, err := svc.ListOrders(ctx, "seller-1", domain.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != "o2" {
		t.Errorf("expected only o2, got %v", completed)
	}
}

func TestListOrders_InvalidStatus(t *testing.T) {
	svc, _ := reportFixture()
	if _, err := svc.ListOrders(context.Background(), "seller-1", "SHIPPED"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListOrders_NoPrincipal(t *testing.T) {
	svc, _ := reportFixture()
	if _, err := svc.ListOrders(context.Background(), "", ""); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestTopClients_OnlyCompletedOrdersCount(t *testing.T) {
	svc, _ := reportFixture()

	rows, err := svc.TopClients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	totals := make(map[string]string)
	for _, row := range rows {
		totals[row.Client.ID] = row.Total.String()
	}
	// o1 is PENDING and must not contribute to c1's total.
	if totals["c1"] != "25" {
		t.Errorf("expected c1 total 25, got %s", totals["c1"])
	}
	if totals["c2"] != "40" {
		t.Errorf("expected c2 total 40, got %s", totals["c2"])
	}
}
