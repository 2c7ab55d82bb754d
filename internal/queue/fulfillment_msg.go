package queue

import (
	"fmt"
	"time"
)

// FulfillmentMessage is the fulfillment event written to Kafka.
type FulfillmentMessage struct {
	EventID    string    `json:"event_id"`
	OrderNo    string    `json:"order_no"`
	ReceiptNo  string    `json:"receipt_no"`
	Total      int64     `json:"total"` // minor units
	OccurredAt time.Time `json:"occurred_at"`
}

// Validate does minimal field checks so the consumer never processes a
// message it cannot audit.
func (m FulfillmentMessage) Validate() error {
	if m.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if m.OrderNo == "" {
		return fmt.Errorf("order_no is required")
	}
	if m.ReceiptNo == "" {
		return fmt.Errorf("receipt_no is required")
	}
	if m.Total <= 0 {
		return fmt.Errorf("total must be > 0")
	}
	if m.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}
	return nil
}
