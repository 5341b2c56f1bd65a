package port

import "context"

// OrderEvent is emitted after an order mutation has been fully committed.
type OrderEvent struct {
	Type     string `json:"type"` // order.created | order.updated | order.deleted
	OrderID  string `json:"order_id"`
	SellerID string `json:"seller_id"`
	ClientID string `json:"client_id"`
}

// EventPublisher delivers order events to interested downstream consumers.
// Delivery is best effort; a publish failure never rolls back the operation
// that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}
