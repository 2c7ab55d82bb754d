package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// PendingMarker records orders whose ledger write has started but whose
// order-store commit has not been confirmed yet. Markers that outlive the
// grace period are the reconciliation candidates: a crash between the two
// commits leaves exactly this marker behind.
type PendingMarker struct {
	rdb *rd.Client
	ttl time.Duration
}

func NewPendingMarker(rdb *rd.Client, ttl time.Duration) *PendingMarker {
	return &PendingMarker{rdb: rdb, ttl: ttl}
}

// MarkPending sets the marker with the marker TTL so abandoned entries
// eventually expire even without a reconciliation pass.
func (p *PendingMarker) MarkPending(ctx context.Context, orderNo string) error {
	return p.rdb.Set(ctx, PendingMarkerKey(orderNo), time.Now().UTC().Format(time.RFC3339), p.ttl).Err()
}

// ClearPending removes the marker after the order-store commit.
func (p *PendingMarker) ClearPending(ctx context.Context, orderNo string) error {
	return p.rdb.Del(ctx, PendingMarkerKey(orderNo)).Err()
}

// ListPending scans current markers; entries older than grace are the ones
// worth retrying. Returned map is orderNo -> marked-at (RFC3339).
func (p *PendingMarker) ListPending(ctx context.Context, grace time.Duration) (map[string]string, error) {
	out := map[string]string{}
	var cursor uint64
	prefix := PendingMarkerKey("")
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, PendingMarkerScanPattern(), 64).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			v, err := p.rdb.Get(ctx, k).Result()
			if err != nil {
				if err == rd.Nil {
					continue // expired between scan and get
				}
				return nil, err
			}
			markedAt, err := time.Parse(time.RFC3339, v)
			if err != nil || time.Since(markedAt) < grace {
				continue
			}
			out[k[len(prefix):]] = v
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}
