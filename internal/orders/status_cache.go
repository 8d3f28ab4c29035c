package orders

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/atelierworks/orderflow/internal/redisx"
)

// RedisStatusCache is a read cache for rendered order summaries. It is
// advisory only: every miss or Redis error falls through to the database.
type RedisStatusCache struct{ RDB *redis.Client }

var _ StatusCache = (*RedisStatusCache)(nil)

func (c *RedisStatusCache) key(orderID string) string {
	return fmt.Sprintf(redisx.KeyOrderStatus, orderID)
}

func (c *RedisStatusCache) Get(ctx context.Context, orderID string) ([]byte, bool) {
	b, err := c.RDB.Get(ctx, c.key(orderID)).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b, true
}

func (c *RedisStatusCache) Set(ctx context.Context, orderID string, body []byte) {
	_ = c.RDB.Set(ctx, c.key(orderID), body, redisx.TTLStatusCache).Err()
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, orderID string) {
	_ = c.RDB.Del(ctx, c.key(orderID)).Err()
}
