package cache

import (
	"context"
	"time"
)

// ReadThrough serves values from a Manager and falls back to fn on a miss.
// Values for which keep returns false are handed back but not stored.
type ReadThrough[V any] struct {
	cache           Manager[V]
	fn              func(ctx context.Context, key string) (V, error)
	keep            func(V) bool
	ttl             time.Duration
	shouldSkipCache bool
}

func NewReadThrough[V any](
	cache Manager[V],
	fn func(ctx context.Context, key string) (V, error),
	keep func(V) bool,
	ttl time.Duration,
) *ReadThrough[V] {
	return &ReadThrough[V]{
		cache:           cache,
		fn:              fn,
		keep:            keep,
		ttl:             ttl,
		shouldSkipCache: cache == nil || ttl <= 0,
	}
}

func (r *ReadThrough[V]) Get(ctx context.Context, key string) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, key)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.fn(ctx, key)
	if err != nil {
		return value, err
	}

	if r.keep == nil || r.keep(value) {
		r.cache.Set(ctx, key, value, r.ttl)
	}

	return value, nil
}
