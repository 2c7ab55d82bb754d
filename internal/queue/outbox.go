package queue

import (
	"context"
	"strconv"
	"time"

	"back_office/internal/fulfillment"

	rd "github.com/redis/go-redis/v9"
)

// StreamOutbox appends fulfillment events to a Redis Stream so the HTTP
// path never waits on Kafka; the relay drains the stream asynchronously.
// Implements fulfillment.Notifier.
type StreamOutbox struct {
	rdb    *rd.Client
	stream string
}

func NewStreamOutbox(rdb *rd.Client, stream string) *StreamOutbox {
	return &StreamOutbox{rdb: rdb, stream: stream}
}

func (o *StreamOutbox) FulfillmentMirrored(ctx context.Context, ev fulfillment.Event) error {
	return o.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: o.stream,
		Values: map[string]any{
			"event_id":    ev.EventID,
			"order_no":    ev.OrderNo,
			"receipt_no":  ev.ReceiptNo,
			"total":       strconv.FormatInt(ev.Total, 10),
			"occurred_at": ev.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
}
