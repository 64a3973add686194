package cache

import (
	"go.uber.org/zap"

	"github.com/filehost/backend/internal/domain/shared"
	"github.com/filehost/backend/internal/infrastructure/config"
)

// NewIdempotencyStore picks the webhook dedupe backend from configuration.
// Redis is used when enabled and reachable; otherwise the in-memory store
// serves, with a warning since it cannot dedupe across instances.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if cfg.Enabled {
		store, err := NewRedisIdempotencyStore(cfg)
		if err == nil {
			logger.Info("Using Redis idempotency store",
				zap.String("host", cfg.Host),
				zap.Int("port", cfg.Port))
			return store
		}
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"Duplicate webhook deliveries may be reprocessed across instances.",
			zap.Error(err))
	}
	return NewInMemoryIdempotencyStore()
}
