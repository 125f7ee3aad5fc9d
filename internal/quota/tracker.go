// internal/quota/tracker.go
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// counterTTL is a little over 24h so a (tenant, day) counter outlives its
// calendar day and then self-cleans.
const counterTTL = 25 * time.Hour

// Tracker counts attempted sends per tenant per calendar day in redis. The
// counter is shared mutable state across every concurrently running campaign
// for a tenant, so it only ever moves through a single atomic INCR; there is
// no read-then-write anywhere.
type Tracker struct {
	client redis.Cmdable
}

func NewTracker(client redis.Cmdable) *Tracker {
	return &Tracker{client: client}
}

func Key(tenantID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("quota:%s:%s", tenantID, day.UTC().Format("2006-01-02"))
}

// Increment bumps the tenant's counter for the given day and returns the new
// usage. The first increment of a key arms its expiry. When redis is
// unreachable the error propagates and callers must treat the send as denied:
// the tracker fails closed rather than risk uncontrolled overshoot.
func (t *Tracker) Increment(ctx context.Context, tenantID uuid.UUID, day time.Time) (int64, error) {
	key := Key(tenantID, day)
	usage, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("quota incr %s: %w", key, err)
	}
	if usage == 1 {
		if err := t.client.Expire(ctx, key, counterTTL).Err(); err != nil {
			return 0, fmt.Errorf("quota expire %s: %w", key, err)
		}
	}
	return usage, nil
}

// Allowed reports whether a send attempt that produced the given usage is
// within the tenant's daily quota.
func Allowed(usage, dailyQuota int64) bool {
	return usage <= dailyQuota
}
