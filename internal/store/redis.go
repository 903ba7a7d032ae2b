package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores keys as "fft:{namespace}:{key}" with a TTL on every write.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	ns  string
}

// NewRedis wraps a connected client. ttl <= 0 disables expiry.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func (s *Redis) For(namespace string) KV {
	return &Redis{rdb: s.rdb, ttl: s.ttl, ns: namespace}
}

func (s *Redis) key(k string) string {
	if s.ns == "" {
		return "fft:" + k
	}
	return "fft:" + s.ns + ":" + k
}

func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Redis) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}
