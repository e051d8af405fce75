package cache

import (
	"context"
	"time"
)

// Null is a no-op cache that never stores anything.
// Useful for testing or when caching should be disabled.
type Null[T any] struct{}

// NewNull creates a null cache.
func NewNull[T any]() Null[T] {
	return Null[T]{}
}

// Get always returns a cache miss.
func (Null[T]) Get(context.Context, string) (T, bool) {
	var zero T
	return zero, false
}

// Set does nothing.
func (Null[T]) Set(context.Context, string, T, time.Duration) {}

// Delete does nothing.
func (Null[T]) Delete(context.Context, string) {}

// Clear does nothing.
func (Null[T]) Clear(context.Context) {}

// Size always returns 0.
func (Null[T]) Size(context.Context) int { return 0 }

// Ensure Null implements Cache.
var _ Cache[string] = Null[string]{}
