package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mlozan/sales-ops/internal/core/domain"
	"github.com/mlozan/sales-ops/internal/metrics"
	"github.com/mlozan/sales-ops/internal/port"
)

// maxApplyAttempts bounds how often a whole delta batch is retried when a
// reservation fails after its availability check passed (a concurrent
// request consumed the stock in between).
const maxApplyAttempts = 3

type CreateOrderRequest struct {
	SellerID string
	ClientID string
	Items    []domain.LineItem
}

// UpdateOrderRequest carries only the fields to change. Zero values mean
// "leave as is"; an order can never be updated to an empty item list.
type UpdateOrderRequest struct {
	OrderID     string
	SellerID    string
	NewClientID string
	NewItems    []domain.LineItem
	NewStatus   domain.OrderStatus
}

// Reconciler orchestrates order mutations against the stock ledger. Every
// operation checks the ownership chain first, then applies line-item deltas
// all-or-nothing: availability is verified for the whole batch before any
// reservation, and any partial application is compensated before an error
// surfaces.
type Reconciler struct {
	guard   OwnershipGuard
	clients port.ClientRepository
	catalog port.CatalogRepository
	orders  port.OrderRepository
	ledger  port.StockLedger
	events  port.EventPublisher
}

func NewReconciler(
	clients port.ClientRepository,
	catalog port.CatalogRepository,
	orders port.OrderRepository,
	ledger port.StockLedger,
	events port.EventPublisher,
) *Reconciler {
	return &Reconciler{
		clients: clients,
		catalog: catalog,
		orders:  orders,
		ledger:  ledger,
		events:  events,
	}
}

func (r *Reconciler) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	client, err := r.clients.FindByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", req.ClientID, err)
	}
	if err := r.guard.Authorize(req.SellerID, client.OwnerSellerID); err != nil {
		return nil, err
	}

	products, err := r.resolveProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	deltas := make(map[string]int, len(req.Items))
	for _, it := range req.Items {
		deltas[it.ProductID] = it.Quantity
	}
	if err := r.applyDeltas(ctx, deltas); err != nil {
		metrics.OrderFailures.WithLabelValues("insufficient_stock").Inc()
		return nil, err
	}

	now := time.Now()
	order := domain.Order{
		ID:        uuid.NewString(),
		SellerID:  req.SellerID,
		ClientID:  client.ID,
		Items:     req.Items,
		Status:    domain.OrderStatusPending,
		Total:     orderTotal(req.Items, products),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.orders.Create(ctx, order); err != nil {
		r.compensate(ctx, deltas)
		metrics.OrderFailures.WithLabelValues("persist").Inc()
		return nil, fmt.Errorf("persist order: %w", err)
	}

	metrics.OrdersCreated.Inc()
	order.Client = client
	r.publish(ctx, "order.created", order)
	return &order, nil
}

func (r *Reconciler) UpdateOrder(ctx context.Context, req UpdateOrderRequest) (*domain.Order, error) {
	order, err := r.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", req.OrderID, err)
	}
	if err := r.guard.Authorize(req.SellerID, order.SellerID); err != nil {
		return nil, err
	}

	// Resolve the client (current or replacement) before touching the
	// ledger, so ownership failures leave stock untouched.
	clientID := order.ClientID
	if req.NewClientID != "" {
		clientID = req.NewClientID
	}
	client, err := r.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", clientID, err)
	}
	if err := r.guard.Authorize(req.SellerID, client.OwnerSellerID); err != nil {
		return nil, err
	}
	order.ClientID = client.ID

	// Status is pure input; reject it before any ledger interaction so a bad
	// request never leaves deltas applied.
	if req.NewStatus != "" && !req.NewStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, req.NewStatus)
	}

	var deltas map[string]int
	if req.NewItems != nil {
		if err := validateItems(req.NewItems); err != nil {
			return nil, err
		}
		products, err := r.resolveProducts(ctx, req.NewItems)
		if err != nil {
			return nil, err
		}
		deltas = computeDeltas(order.ItemQuantities(), req.NewItems)
		if err := r.applyDeltas(ctx, deltas); err != nil {
			metrics.OrderFailures.WithLabelValues("insufficient_stock").Inc()
			return nil, err
		}
		order.Items = req.NewItems
		order.Total = orderTotal(req.NewItems, products)
	}

	if req.NewStatus != "" {
		order.Status = req.NewStatus
	}

	order.UpdatedAt = time.Now()
	if err := r.orders.Update(ctx, *order); err != nil {
		r.compensate(ctx, deltas)
		metrics.OrderFailures.WithLabelValues("persist").Inc()
		return nil, fmt.Errorf("persist order: %w", err)
	}

	order.Client = client
	r.publish(ctx, "order.updated", *order)
	return order, nil
}

// DeleteOrder removes the aggregate and, for orders that never completed,
// returns their reserved stock to the ledger. Completed orders keep their
// stock consumed: the goods are assumed shipped.
func (r *Reconciler) DeleteOrder(ctx context.Context, orderID, sellerID string) error {
	order, err := r.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}
	if err := r.guard.Authorize(sellerID, order.SellerID); err != nil {
		return err
	}

	if err := r.orders.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if order.Status != domain.OrderStatusCompleted {
		logger := zerolog.Ctx(ctx)
		for _, it := range order.Items {
			if err := r.ledger.Release(ctx, it.ProductID, it.Quantity); err != nil {
				logger.Error().Err(err).
					Str("order_id", orderID).
					Str("product_id", it.ProductID).
					Int("quantity", it.Quantity).
					Msg("failed to release stock of deleted order")
			}
		}
	}

	r.publish(ctx, "order.deleted", *order)
	return nil
}

// applyDeltas runs the two-phase check-then-apply protocol for one batch of
// signed stock deltas. Phase 1 only reads; phase 2 reserves every positive
// delta and, once all reservations hold, releases every negative one. A
// reservation that fails after its check passed lost a race; the batch is
// rolled back and retried a bounded number of times.
func (r *Reconciler) applyDeltas(ctx context.Context, deltas map[string]int) error {
	reserves, releases := splitDeltas(deltas)
	if len(reserves) == 0 && len(releases) == 0 {
		return nil
	}

	var lastConflict string
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		for _, d := range reserves {
			shortfall, err := r.ledger.CheckAvailability(ctx, d.productID, d.quantity)
			if err != nil {
				return fmt.Errorf("check availability of %s: %w", d.productID, err)
			}
			if shortfall > 0 {
				return &domain.InsufficientStockError{ProductID: d.productID, Shortfall: shortfall}
			}
		}

		conflicted, err := r.reserveAll(ctx, reserves)
		if err != nil {
			return err
		}
		if conflicted != "" {
			lastConflict = conflicted
			metrics.ReservationConflicts.Inc()
			continue
		}

		released := make([]delta, 0, len(releases))
		for _, d := range releases {
			if err := r.ledger.Release(ctx, d.productID, d.quantity); err != nil {
				// Reservations and earlier releases already hold; undo both
				// so the batch has no net effect before surfacing the error.
				undo := deltasOf(reserves)
				for _, rel := range released {
					undo[rel.productID] = -rel.quantity
				}
				r.compensate(ctx, undo)
				return fmt.Errorf("release %d of %s: %w", d.quantity, d.productID, err)
			}
			released = append(released, d)
		}
		return nil
	}

	// Retries exhausted: report the shortfall as it stands now.
	shortfall, err := r.ledger.CheckAvailability(ctx, lastConflict, deltas[lastConflict])
	if err != nil || shortfall <= 0 {
		shortfall = deltas[lastConflict]
	}
	return &domain.InsufficientStockError{ProductID: lastConflict, Shortfall: shortfall}
}

// reserveAll applies every reservation in order. When one fails for lack of
// stock it releases the ones already applied and reports the conflicting
// product; any other error is returned after the same rollback.
func (r *Reconciler) reserveAll(ctx context.Context, reserves []delta) (conflicted string, err error) {
	applied := make([]delta, 0, len(reserves))
	for _, d := range reserves {
		if err := r.ledger.Reserve(ctx, d.productID, d.quantity); err != nil {
			r.compensate(ctx, deltasOf(applied))
			if isInsufficient(err) {
				return d.productID, nil
			}
			return "", fmt.Errorf("reserve %d of %s: %w", d.quantity, d.productID, err)
		}
		applied = append(applied, d)
	}
	return "", nil
}

// compensate undoes applied deltas: reserved stock is released and released
// stock is re-reserved. Failures here cannot be handed to the caller, so
// they are logged at the highest severity for operator follow-up.
func (r *Reconciler) compensate(ctx context.Context, deltas map[string]int) {
	logger := zerolog.Ctx(ctx)
	for productID, qty := range deltas {
		var err error
		switch {
		case qty > 0:
			err = r.ledger.Release(ctx, productID, qty)
		case qty < 0:
			err = r.ledger.Reserve(ctx, productID, -qty)
		}
		if err != nil {
			logger.Error().Err(err).
				Str("product_id", productID).
				Int("delta", qty).
				Msg("stock compensation failed, ledger may need manual correction")
		}
	}
}

func (r *Reconciler) resolveProducts(ctx context.Context, items []domain.LineItem) (map[string]domain.Product, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := r.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, it := range items {
		if _, ok := products[it.ProductID]; !ok {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, domain.ErrNotFound)
		}
	}
	return products, nil
}

func (r *Reconciler) publish(ctx context.Context, eventType string, order domain.Order) {
	err := r.events.Publish(ctx, port.OrderEvent{
		Type:     eventType,
		OrderID:  order.ID,
		SellerID: order.SellerID,
		ClientID: order.ClientID,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("order_id", order.ID).
			Str("event", eventType).
			Msg("failed to publish order event")
	}
}

type delta struct {
	productID string
	quantity  int
}

// splitDeltas partitions non-zero deltas into reservations and releases,
// each sorted by product id so retries and tests see a stable order.
func splitDeltas(deltas map[string]int) (reserves, releases []delta) {
	for productID, qty := range deltas {
		switch {
		case qty > 0:
			reserves = append(reserves, delta{productID, qty})
		case qty < 0:
			releases = append(releases, delta{productID, -qty})
		}
	}
	sort.Slice(reserves, func(i, j int) bool { return reserves[i].productID < reserves[j].productID })
	sort.Slice(releases, func(i, j int) bool { return releases[i].productID < releases[j].productID })
	return reserves, releases
}

func deltasOf(applied []delta) map[string]int {
	m := make(map[string]int, len(applied))
	for _, d := range applied {
		m[d.productID] = d.quantity
	}
	return m
}

// computeDeltas diffs the requested line items against the current ones.
// Products in both contribute new-old, added products contribute their full
// quantity, removed products contribute a full release. Zero deltas are
// dropped so a no-op update never touches the ledger.
func computeDeltas(current map[string]int, next []domain.LineItem) map[string]int {
	deltas := make(map[string]int, len(next))
	for _, it := range next {
		deltas[it.ProductID] = it.Quantity - current[it.ProductID]
	}
	for productID, qty := range current {
		if _, kept := deltas[productID]; !kept {
			deltas[productID] = -qty
		}
	}
	for productID, d := range deltas {
		if d == 0 {
			delete(deltas, productID)
		}
	}
	return deltas
}

func validateItems(items []domain.LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order needs at least one line item", domain.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: line item without product id", domain.ErrInvalidInput)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: quantity for product %s must be positive", domain.ErrInvalidInput, it.ProductID)
		}
		if _, dup := seen[it.ProductID]; dup {
			return fmt.Errorf("%w: product %s listed twice", domain.ErrInvalidInput, it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

func orderTotal(items []domain.LineItem, products map[string]domain.Product) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		price := products[it.ProductID].Price
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func isInsufficient(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock)
}
