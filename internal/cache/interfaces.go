package cache

import (
	"context"
	"errors"
	"time"
)

// Cache defines the key/value operations shared by the memory and redis backends
type Cache interface {
	// Get retrieves a value, ErrKeyNotFound when absent or expired
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// DeletePattern removes all keys matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	Close() error
}

// CacheType represents different cache backend types
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// IsValid checks if the cache type is valid
func (ct CacheType) IsValid() bool {
	switch ct {
	case CacheTypeMemory, CacheTypeRedis:
		return true
	default:
		return false
	}
}

// Common cache errors
var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrInvalidCacheType = errors.New("invalid cache type")
	ErrCacheClosed      = errors.New("cache closed")
)
