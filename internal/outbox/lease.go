// Package outbox implements the webhook dispatcher: draining
// WebhookDispatchEvent rows, claiming each with a short-lived lease so
// concurrent mycelium-webhookd replicas never double-deliver the same
// event, signing the payload, and delivering it over HTTP with
// retry/backoff. Claiming is the logical analogue of a SQL
// "FOR UPDATE SKIP LOCKED" pass, implemented with a Redis SETNX lease.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Leaser claims event ids for the duration of ttl, preventing two
// dispatcher replicas from processing the same row concurrently.
type Leaser interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLeaser implements Leaser with a SETNX-style lease over go-redis.
type RedisLeaser struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLeaser wraps an existing client. prefix namespaces lease keys so
// the dispatcher can share a Redis instance with other subsystems.
func NewRedisLeaser(client redis.UniversalClient, prefix string) *RedisLeaser {
	if prefix == "" {
		prefix = "mycelium:outbox:lease:"
	}
	return &RedisLeaser{client: client, prefix: prefix}
}

// Acquire reports whether the caller obtained the lease for key. SetNX is
// atomic at the Redis layer, so exactly one replica wins per key.
func (l *RedisLeaser) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("outbox: lease acquire: %w", err)
	}
	return ok, nil
}

// Release drops the lease early once delivery completes, so a retried
// event doesn't wait out the full TTL before becoming claimable again.
func (l *RedisLeaser) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("outbox: lease release: %w", err)
	}
	return nil
}
