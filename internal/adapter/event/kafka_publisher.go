package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/mlozan/sales-ops/internal/port"
)

const publishTimeout = 5 * time.Second

// KafkaPublisher hands order events to a bounded queue and writes them to
// Kafka from a small worker pool, so a slow broker never stalls the request
// path. Events that cannot be enqueued or written are logged and dropped;
// delivery is best effort by contract.
type KafkaPublisher struct {
	writer *kafka.Writer
	queue  chan port.OrderEvent
	logger zerolog.Logger
	wg     sync.WaitGroup
}

func NewKafkaPublisher(brokers []string, topic string, workers, queueSize int, logger zerolog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		queue:  make(chan port.OrderEvent, queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.workerLoop()
	}
	return p
}

func (p *KafkaPublisher) Publish(_ context.Context, event port.OrderEvent) error {
	select {
	case p.queue <- event:
		return nil
	default:
		p.logger.Warn().Str("order_id", event.OrderID).Msg("event queue full, dropping order event")
		return nil
	}
}

func (p *KafkaPublisher) workerLoop() {
	defer p.wg.Done()
	for event := range p.queue {
		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.Error().Err(err).Str("order_id", event.OrderID).Msg("failed to marshal order event")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err = p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(event.OrderID),
			Value: payload,
		})
		cancel()
		if err != nil {
			p.logger.Error().Err(err).Str("order_id", event.OrderID).Msg("failed to write order event to kafka")
		}
	}
}

// Close drains the queue, stops the workers and closes the writer.
func (p *KafkaPublisher) Close() error {
	close(p.queue)
	p.wg.Wait()
	return p.writer.Close()
}
