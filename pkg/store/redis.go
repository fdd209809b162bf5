package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
)

// RedisConfig configures [NewRedisStore].
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps layouts in Redis. Expiry uses native key TTLs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, gerrors.Wrap(gerrors.ErrCodeNetwork, err, "connect redis %s", cfg.Addr)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client. The store owns the client
// and closes it on Close.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying client, for sharing it with a publisher.
func (s *RedisStore) Client() *redis.Client { return s.client }

// Get retrieves a value. redis.Nil is a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		var err error
		data, err = s.client.Get(ctx, key).Bytes()
		return transient(err)
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, gerrors.Wrap(gerrors.ErrCodeNetwork, err, "redis get %s", key)
	}
	return data, true, nil
}

// Set stores a value with an optional TTL.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := RetryWithBackoff(ctx, func() error {
		return transient(s.client.Set(ctx, key, data, ttl).Err())
	})
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeNetwork, err, "redis set %s", key)
	}
	return nil
}

// Delete removes a key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := RetryWithBackoff(ctx, func() error {
		return transient(s.client.Del(ctx, key).Err())
	})
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeNetwork, err, "redis del %s", key)
	}
	return nil
}

// List scans for keys matching prefix. SCAN may return a key twice; the
// result is de-duplicated.
func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeNetwork, err, "redis scan %s*", prefix)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Backend returns "redis".
func (s *RedisStore) Backend() string { return BackendRedis }

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			b = append(b, '\\')
		}
		b = append(b, s[i])
	}
	return string(b)
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
