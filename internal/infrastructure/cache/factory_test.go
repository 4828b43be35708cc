package cache

import (
	"testing"
	"time"

	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseStoreFactory(t *testing.T) {
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("memory store by default", func(t *testing.T) {
		f := NewResponseStoreFactory(config.IdempotencyConfig{Store: "memory", TTL: time.Hour}, unreachable)
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryResponseStore{}, store)
	})

	t.Run("falls back to memory when redis is down", func(t *testing.T) {
		f := NewResponseStoreFactory(config.IdempotencyConfig{Store: "redis", TTL: time.Hour}, unreachable)
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryResponseStore{}, store)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewResponseStoreFactory(
			config.IdempotencyConfig{Store: "redis", TTL: time.Hour},
			unreachable,
			WithInMemoryFallback(false),
		)
		_, err := f.CreateStore()
		require.Error(t, err)
	})
}
