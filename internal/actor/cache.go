package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "pactum/pkg/domain"
)

// Cache is a best-effort memo of resolved roles. Misses and errors both
// report !ok; resolution correctness never depends on the cache.
type Cache interface {
	Get(ctx context.Context, transactionID id.TransactionID, callerID id.UserID) (Role, bool)
	Set(ctx context.Context, transactionID id.TransactionID, callerID id.UserID, role Role)
}

// RedisCache memoizes roles for a short TTL so chatty clients do not hammer
// the verify-actor endpoint.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(transactionID id.TransactionID, callerID id.UserID) string {
	return fmt.Sprintf("actor:%s:%s", transactionID.String(), callerID.String())
}

func (c *RedisCache) Get(ctx context.Context, transactionID id.TransactionID, callerID id.UserID) (Role, bool) {
	val, err := c.client.Get(ctx, cacheKey(transactionID, callerID)).Result()
	if err != nil {
		return RoleNone, false
	}
	role := ParseRole(val)
	if role == RoleNone {
		return RoleNone, false
	}
	return role, true
}

func (c *RedisCache) Set(ctx context.Context, transactionID id.TransactionID, callerID id.UserID, role Role) {
	if role == RoleNone {
		// Never cache a denial; a stale none would lock a party out.
		return
	}
	_ = c.client.Set(ctx, cacheKey(transactionID, callerID), string(role), c.ttl).Err()
}
