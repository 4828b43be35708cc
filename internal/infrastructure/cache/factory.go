package cache

import (
	"fmt"

	"github.com/shopledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ResponseStoreFactory creates idempotency response stores based on configuration
type ResponseStoreFactory struct {
	idempotency           config.IdempotencyConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ResponseStoreFactoryOption is a functional option for configuring the factory
type ResponseStoreFactoryOption func(*ResponseStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ResponseStoreFactoryOption {
	return func(f *ResponseStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ResponseStoreFactoryOption {
	return func(f *ResponseStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewResponseStoreFactory creates a new factory
func NewResponseStoreFactory(idem config.IdempotencyConfig, redisCfg config.RedisConfig, opts ...ResponseStoreFactoryOption) *ResponseStoreFactory {
	f := &ResponseStoreFactory{
		idempotency:           idem,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore creates the configured store. A redis store that cannot
// connect falls back to memory when allowed.
func (f *ResponseStoreFactory) CreateStore() (ResponseStore, error) {
	if f.idempotency.Store != "redis" {
		f.logger.Info("using in-memory idempotency store")
		return NewInMemoryResponseStore(f.idempotency.TTL), nil
	}

	store, err := NewRedisResponseStore(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.idempotency.KeyPrefix, f.idempotency.TTL)
	if err == nil {
		f.logger.Info("using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
		"Replays are not shared between instances.",
		zap.Error(err),
	)
	return NewInMemoryResponseStore(f.idempotency.TTL), nil
}
