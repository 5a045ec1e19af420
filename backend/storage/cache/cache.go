package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by Get when the key does not exist or has expired.
var ErrCacheMiss = errors.New("key does not exist")

// CacheInterface defines the set of methods that need to be implemented to
// be used as a cache storage.
type CacheInterface interface {
	Connect(url string) error
	Disconnect() error
	// Set stores value as JSON under key. A zero ttl uses DefaultTTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get decodes the value stored under key into dst.
	Get(ctx context.Context, key string, dst interface{}) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// DefaultTTL applies when Set is called without a ttl.
const DefaultTTL = 72 * time.Hour

// NewCache creates a new CacheInterface. An empty url yields an in-process
// cache; anything else connects to Redis.
func NewCache(url string) (CacheInterface, error) {
	if url == "" {
		return NewMemoryCache(), nil
	}
	cache := NewRedisCache()
	err := cache.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return cache, nil
}
