package queue

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"back_office/internal/model"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// Consumer reads fulfillment events from Kafka and appends audit rows to
// the ledger database, forming the export feed accounting tools read from.
type Consumer struct {
	r  *kafka.Reader
	db *gorm.DB // ledger database
}

func NewConsumer(brokers []string, topic, groupID string, ledgerDB *gorm.DB) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		db: ledgerDB,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancelled or connection gone
		}

		var msg FulfillmentMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			log.Printf("consumer unmarshal: %v", err)
			continue
		}
		if err := msg.Validate(); err != nil {
			log.Printf("consumer drop invalid event: %v", err)
			continue
		}

		audit := &model.FulfillmentAudit{
			EventID:    msg.EventID,
			OrderNo:    msg.OrderNo,
			ReceiptNo:  msg.ReceiptNo,
			Total:      msg.Total,
			OccurredAt: msg.OccurredAt,
		}

		if err := c.db.Create(audit).Error; err != nil {
			// Redelivered event hits the unique event_id index; that is success.
			if errorsLikeUnique(err) {
				continue
			}
			log.Printf("consumer db create: %v", err)
			continue
		}
	}
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}
