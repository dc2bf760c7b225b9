package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// MemoryCache implements Cache in process. Expired items are dropped on access.
type MemoryCache struct {
	mutex  sync.RWMutex
	items  map[string]*cacheItem
	closed bool
	now    func() time.Time
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]*cacheItem),
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	if c.closed {
		c.mutex.RUnlock()
		return nil, ErrCacheClosed
	}
	item, ok := c.items[key]
	c.mutex.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}
	if item.expired(c.now()) {
		c.mutex.Lock()
		if current, ok := c.items[key]; ok && current == item {
			delete(c.items, key)
		}
		c.mutex.Unlock()
		return nil, ErrKeyNotFound
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	item := &cacheItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiration = c.now().Add(ttl)
	}
	c.items[key] = item
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
	return nil
}

func (c *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key := range c.items {
		if matched, _ := path.Match(pattern, key); matched {
			delete(c.items, key)
		}
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closed = true
	c.items = make(map[string]*cacheItem)
	return nil
}
