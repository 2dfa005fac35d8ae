package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of a Redis hash, one hash per browser
// session. Values are JSON-encoded, so only JSON-serializable values
// round-trip; within the kit the stored values are strings.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a store for the session identified by sessionID.
// Each write refreshes the hash TTL so idle sessions expire server-side.
func NewRedisStore(client *redis.Client, sessionID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "session:" + sessionID,
		ttl:    ttl,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) (any, bool) {
	raw, err := r.client.HGet(ctx, r.key, key).Result()
	if err != nil {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	return v, true
}

func (r *RedisStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: encode %q: %w", key, err)
	}
	if err := r.client.HSet(ctx, r.key, key, raw).Err(); err != nil {
		return fmt.Errorf("session: set %q: %w", key, err)
	}
	if r.ttl > 0 {
		_ = r.client.Expire(ctx, r.key, r.ttl).Err()
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.HDel(ctx, r.key, key).Err(); err != nil {
		return fmt.Errorf("session: delete %q: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.client.HKeys(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("session: list keys: %w", err)
	}
	return keys, nil
}

// Active reports whether the session hash exists in Redis. A session that
// has never been written to is considered not started.
func (r *RedisStore) Active() bool {
	n, err := r.client.Exists(context.Background(), r.key).Result()
	return err == nil && n > 0
}
