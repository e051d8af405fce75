package cache

import (
	"context"
	"time"
)

// Scoped wraps a Cache with a key prefix for per-session isolation.
// Two scopes over the same inner cache never see each other's keys.
//
// Example usage:
//
//	shared := cache.NewMemory[json.RawMessage]()
//	alice := cache.NewScoped[json.RawMessage](shared, "user:alice:")
//	bob := cache.NewScoped[json.RawMessage](shared, "user:bob:")
//
// Clear and Size delegate to the inner cache, because a prefix scan is not
// part of the Cache contract; isolate with separate instances when those
// must be scoped too.
type Scoped[T any] struct {
	inner  Cache[T]
	prefix string
}

// NewScoped creates a scoped view of inner.
// If inner is nil, a Null cache is used.
func NewScoped[T any](inner Cache[T], prefix string) *Scoped[T] {
	if inner == nil {
		inner = NewNull[T]()
	}
	return &Scoped[T]{inner: inner, prefix: prefix}
}

// Prefix returns the scope prefix.
func (s *Scoped[T]) Prefix() string { return s.prefix }

func (s *Scoped[T]) Get(ctx context.Context, key string) (T, bool) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *Scoped[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) {
	s.inner.Set(ctx, s.prefix+key, value, ttl)
}

func (s *Scoped[T]) Delete(ctx context.Context, key string) {
	s.inner.Delete(ctx, s.prefix+key)
}

func (s *Scoped[T]) Clear(ctx context.Context) { s.inner.Clear(ctx) }

func (s *Scoped[T]) Size(ctx context.Context) int { return s.inner.Size(ctx) }

// Ensure Scoped implements Cache.
var _ Cache[string] = (*Scoped[string])(nil)
