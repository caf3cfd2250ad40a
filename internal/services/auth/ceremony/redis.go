package ceremony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces ceremony keys in a shared Redis.
const DefaultRedisPrefix = "ledgerly:ceremony:"

// RedisStore keeps ceremony state in Redis so several auth replicas can
// complete each other's ceremonies. Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps a Redis client.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// OpenRedisStore parses a redis:// URL and pings the server.
func OpenRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, ""), nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Put stores state under key with the given TTL.
func (s *RedisStore) Put(ctx context.Context, key string, state State, ttl time.Duration) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("ceremony key is required")
	}
	if ttl <= 0 {
		return errors.New("ceremony ttl must be positive")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode ceremony state: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store ceremony state: %w", err)
	}
	return nil
}

// Get returns live state without removing it.
func (s *RedisStore) Get(ctx context.Context, key string) (State, error) {
	payload, err := s.client.Get(ctx, s.prefix+strings.TrimSpace(key)).Bytes()
	return decodeRedisState(payload, err)
}

// Take uses GETDEL so only one caller receives the state.
func (s *RedisStore) Take(ctx context.Context, key string) (State, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+strings.TrimSpace(key)).Bytes()
	return decodeRedisState(payload, err)
}

func decodeRedisState(payload []byte, err error) (State, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("load ceremony state: %w", err)
	}
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("decode ceremony state: %w", err)
	}
	return state, nil
}
