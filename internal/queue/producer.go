package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer wraps the Kafka writer for fulfillment events.
type Producer struct {
	w *kafka.Writer
}

// NewProducer configures the writer for reliable delivery:
// - Hash + key: events for the same order land on one partition, keeping
//   per-order ordering for downstream consumers.
// - RequireAll: wait for ISR acks before reporting success.
// - MaxAttempts/timeouts bound retries.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *Producer) Close() error { return p.w.Close() }

// Publish writes one fulfillment event, keyed by order_no.
func (p *Producer) Publish(ctx context.Context, msg FulfillmentMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.OrderNo),
		Value: b,
	})
}
