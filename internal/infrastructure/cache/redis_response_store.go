package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisResponseStore implements ResponseStore using Redis. Entries are
// msgpack encoded and the reservation relies on SETNX, so several instances
// can share it.
type RedisResponseStore struct {
	client     *redis.Client
	ownsClient bool
	keyPrefix  string
	ttl        time.Duration
	lockTTL    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisResponseStore connects to Redis and creates a store
func NewRedisResponseStore(cfg RedisConfig, keyPrefix string, ttl time.Duration) (*RedisResponseStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s := NewRedisResponseStoreWithClient(client, keyPrefix, ttl)
	s.ownsClient = true
	return s, nil
}

// NewRedisResponseStoreWithClient creates a store with an existing Redis client
func NewRedisResponseStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisResponseStore {
	if keyPrefix == "" {
		keyPrefix = "shopledger:idempotency:"
	}
	return &RedisResponseStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		lockTTL:   min(ttl, defaultLockTTL),
	}
}

// Reserve claims key, see ResponseStore
func (s *RedisResponseStore) Reserve(ctx context.Context, key, fingerprint string) (*StoredResponse, error) {
	pending, err := encodeRecord(record{State: statePending, Fingerprint: fingerprint})
	if err != nil {
		return nil, err
	}

	claimed, err := s.client.SetNX(ctx, s.keyPrefix+key, pending, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}

	data, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Reserve(ctx, key, fingerprint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	existing, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode idempotency entry: %w", err)
	}
	return existing.resolve(fingerprint)
}

// Complete stores the response of a reserved key
func (s *RedisResponseStore) Complete(ctx context.Context, key, fingerprint string, resp StoredResponse) error {
	data, err := encodeRecord(record{State: stateDone, Fingerprint: fingerprint, Response: &resp})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// Release drops a reservation so the request can be retried
func (s *RedisResponseStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keyPrefix+key).Err()
}

// Close closes the Redis client when the store created it
func (s *RedisResponseStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

// Ensure RedisResponseStore implements ResponseStore
var _ ResponseStore = (*RedisResponseStore)(nil)
