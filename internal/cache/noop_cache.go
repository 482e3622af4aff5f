package cache

import (
	"context"
	"time"
)

// noopCache satisfies CacheService when no Redis is configured; every read
// is a miss.
type noopCache struct{}

func NewNoopCache() CacheService {
	return noopCache{}
}

func (noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (noopCache) Get(ctx context.Context, key string, dest interface{}) error {
	return ErrCacheMiss
}

func (noopCache) Delete(ctx context.Context, key string) error {
	return nil
}
