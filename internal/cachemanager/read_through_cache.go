package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache wraps a fetch function with a cache: Get serves hits and
// stores misses, Refresh always fetches and stores the fresh result. A nil
// cache degrades to calling the function every time.
type ReadThroughCache[V any, I any] struct {
	cache CacheManager[string, V]
	fn    func(ctx context.Context, input I) (V, error)
}

func NewReadThroughCache[V any, I any](
	cache CacheManager[string, V],
	fn func(ctx context.Context, input I) (V, error),
) *ReadThroughCache[V, I] {
	return &ReadThroughCache[V, I]{
		cache: cache,
		fn:    fn,
	}
}

func (r *ReadThroughCache[V, I]) Get(ctx context.Context, key string, input I, ttl time.Duration) (V, error) {
	if r.cache == nil {
		return r.fn(ctx, input)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	return r.fetchAndStore(ctx, key, input, ttl)
}

// Refresh bypasses the cached copy for a forced reload. The fresh result
// still lands in the cache so later Gets serve it.
func (r *ReadThroughCache[V, I]) Refresh(ctx context.Context, key string, input I, ttl time.Duration) (V, error) {
	if r.cache == nil {
		return r.fn(ctx, input)
	}

	return r.fetchAndStore(ctx, key, input, ttl)
}

func (r *ReadThroughCache[V, I]) fetchAndStore(ctx context.Context, key string, input I, ttl time.Duration) (V, error) {
	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)

	return value, nil
}

// Invalidate drops the given keys so the next Get refetches.
func (r *ReadThroughCache[V, I]) Invalidate(ctx context.Context, keys ...string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, keys...)
}
