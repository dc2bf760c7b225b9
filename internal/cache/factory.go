package cache

import (
	"context"
	"fmt"

	"github.com/fieldcrew/api/internal/platform/config"
)

// New creates the backend selected by cfg.Backend
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	backend := CacheType(cfg.Backend)
	if backend == "" {
		backend = CacheTypeMemory
	}

	switch backend {
	case CacheTypeMemory:
		return NewMemoryCache(), nil
	case CacheTypeRedis:
		return NewRedisCache(ctx, RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			Database: cfg.Redis.Database,
			PoolSize: cfg.Redis.PoolSize,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCacheType, cfg.Backend)
	}
}
