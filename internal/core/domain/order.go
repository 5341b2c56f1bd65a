package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// LineItem references a catalog product. Quantity is always positive; a
// removed product shows up as a delta during reconciliation, never as a
// zero-quantity item.
type LineItem struct {
	ProductID string
	Quantity  int
}

// Order is the aggregate root. It is created once as PENDING and afterwards
// mutated only through the reconciler, which keeps the ledger and the
// persisted state consistent.
type Order struct {
	ID        string
	SellerID  string
	ClientID  string
	Items     []LineItem
	Status    OrderStatus
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time

	// Client is populated on reads for the caller's convenience. Nil when
	// the aggregate is loaded without enrichment.
	Client *Client
}

// ItemQuantities indexes the order's line items by product id.
func (o *Order) ItemQuantities() map[string]int {
	m := make(map[string]int, len(o.Items))
	for _, it := range o.Items {
		m[it.ProductID] = it.Quantity
	}
	return m
}
