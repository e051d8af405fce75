package cache

import (
	"context"
	"time"
)

const (
	// DefaultTTL applies when Set is called with a non-positive ttl.
	DefaultTTL = 5 * time.Minute

	// DefaultCapacity bounds a Memory cache created without WithCapacity.
	DefaultCapacity = 1000

	// DefaultNamespace prefixes every key a StorageCache writes.
	DefaultNamespace = "fetchflow-cache"
)

// Cache is a keyed store whose entries expire after a TTL.
//
// Expiry is evaluated lazily: Get never returns an expired entry and deletes
// one when it finds it. No method reports an error; providers that depend on
// fallible storage degrade to a miss or a no-op instead.
type Cache[T any] interface {
	// Get returns the live value for key and true, or the zero value and false.
	Get(ctx context.Context, key string) (T, bool)

	// Set stores value under key until now+ttl. A ttl <= 0 uses DefaultTTL.
	Set(ctx context.Context, key string, value T, ttl time.Duration)

	// Delete removes key if present.
	Delete(ctx context.Context, key string)

	// Clear removes every entry owned by the cache.
	Clear(ctx context.Context)

	// Size returns the number of entries currently held, expired or not.
	Size(ctx context.Context) int
}

// Entry is a cached value with its absolute expiry in Unix milliseconds.
type Entry[T any] struct {
	Value     T     `json:"value"`
	ExpiresAt int64 `json:"expiresAt"`
}

// expired reports whether the entry is stale at now.
func (e Entry[T]) expired(now time.Time) bool {
	return now.UnixMilli() > e.ExpiresAt
}

func newEntry[T any](value T, ttl time.Duration, now time.Time) Entry[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Entry[T]{Value: value, ExpiresAt: now.Add(ttl).UnixMilli()}
}

// Option configures a cache provider.
type Option func(*options)

type options struct {
	capacity  int
	namespace string
	now       func() time.Time
	onError   func(op, key string, err error)
}

func defaultOptions() options {
	return options{
		capacity:  DefaultCapacity,
		namespace: DefaultNamespace,
		now:       time.Now,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCapacity sets the maximum number of entries of a Memory cache.
// Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithNamespace sets the key prefix used by a StorageCache.
func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

// WithClock replaces time.Now for expiry calculations.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithErrorHandler receives storage failures that a StorageCache swallows.
func WithErrorHandler(fn func(op, key string, err error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}
