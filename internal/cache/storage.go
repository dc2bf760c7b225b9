package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Storage adapts a Cache to fiber.Storage under a key prefix
type Storage struct {
	cache  Cache
	prefix string
}

var _ fiber.Storage = (*Storage)(nil)

// NewStorage returns a fiber storage whose keys live under prefix
func NewStorage(c Cache, prefix string) *Storage {
	return &Storage{cache: c, prefix: prefix}
}

// Get returns nil without error for a missing key, as fiber expects
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	value, err := s.cache.Get(context.Background(), s.prefix+key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	return value, err
}

func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.cache.Set(context.Background(), s.prefix+key, val, exp)
}

func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.cache.Delete(context.Background(), s.prefix+key)
}

// Reset removes every key under the prefix
func (s *Storage) Reset() error {
	return s.cache.DeletePattern(context.Background(), s.prefix+"*")
}

// Close is a no-op; the owner of the cache closes it
func (s *Storage) Close() error {
	return nil
}
