package event

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mlozan/sales-ops/internal/port"
)

// LogPublisher is the fallback when no Kafka brokers are configured: events
// end up in the service log instead of a topic.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event port.OrderEvent) error {
	p.logger.Info().
		Str("event", event.Type).
		Str("order_id", event.OrderID).
		Str("seller_id", event.SellerID).
		Str("client_id", event.ClientID).
		Msg("order event")
	return nil
}
