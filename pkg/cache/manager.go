package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

type Manager[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Flush(ctx context.Context)
}

// NewInMemoryManager initializes a go-cache backed manager. useCase only
// labels log lines.
func NewInMemoryManager[V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryManager[V] {
	return &InMemoryManager[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

type InMemoryManager[V any] struct {
	useCase string
	cache   *gocache.Cache
}

func (c *InMemoryManager[V]) Get(ctx context.Context, key string) (V, bool) {
	var zeroValue V

	value, found := c.cache.Get(key)
	if !found {
		return zeroValue, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error().Str("cache", c.useCase).Str("key", key).Msg("wrong type assertion when getting value")
		return zeroValue, false
	}

	log.Debug().Str("cache", c.useCase).Str("key", key).Msg("cache hit")
	return v, true
}

func (c *InMemoryManager[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

func (c *InMemoryManager[V]) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
}

func (c *InMemoryManager[V]) Flush(ctx context.Context) {
	c.cache.Flush()
}
