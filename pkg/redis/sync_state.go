package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

const (
	// SyncMirrored: the order satisfied the predicate and a receipt exists.
	SyncMirrored = "mirrored"
	// SyncBelowThreshold: the last update did not trigger mirroring.
	SyncBelowThreshold = "below_threshold"
	// SyncFailed: the last attempt failed and is expected to be retried.
	SyncFailed = "failed"
)

// SyncState is the cached outcome of the most recent Synchronize call.
type SyncState struct {
	OrderNo   string
	Status    string
	ReceiptNo string
	Reason    string
}

// GetSyncState reads the cached state. found=false means no cache entry.
func GetSyncState(ctx context.Context, rdb *rd.Client, orderNo string) (SyncState, bool, error) {
	m, err := rdb.HGetAll(ctx, SyncStateKey(orderNo)).Result()
	if err != nil {
		return SyncState{}, false, err
	}
	if len(m) == 0 {
		return SyncState{}, false, nil
	}
	return SyncState{
		OrderNo:   orderNo,
		Status:    m["status"],
		ReceiptNo: m["receipt_no"],
		Reason:    m["reason"],
	}, true, nil
}

// PutSyncState overwrites the cached state and refreshes its TTL.
func PutSyncState(ctx context.Context, rdb *rd.Client, st SyncState, ttl time.Duration) error {
	key := SyncStateKey(st.OrderNo)
	pipe := rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"order_no", st.OrderNo,
		"status", st.Status,
		"receipt_no", st.ReceiptNo,
		"reason", st.Reason,
	)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
