package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/fetchflow/pkg/observability"
)

const providerStorage = "storage"

// ErrQuotaExceeded is returned by a Storage that has run out of space.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage is a persistent string key-value surface, shaped after a browser's
// localStorage. Implementations may be shared with unrelated data; callers
// are expected to namespace their keys.
type Storage interface {
	// GetItem returns the value for key and whether it exists.
	GetItem(ctx context.Context, key string) (string, bool, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error

	// Keys returns every stored key that starts with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// StorageCache is an unbounded cache persisted through a [Storage].
//
// Keys are written as "<namespace>:<key>" so that Clear and Size only touch
// entries this cache owns. Entries are JSON encoded together with their
// expiry. Any failure, whether encoding, quota, or an unavailable backend,
// is swallowed: reads degrade to a miss and writes to a no-op.
//
// StorageCache is safe for concurrent use if the underlying Storage is.
type StorageCache[T any] struct {
	storage Storage
	prefix  string
	now     func() time.Time
	onError func(op, key string, err error)
}

// NewStorageCache creates a cache over storage.
// The namespace defaults to DefaultNamespace; see WithNamespace.
func NewStorageCache[T any](storage Storage, opts ...Option) *StorageCache[T] {
	o := applyOptions(opts)
	return &StorageCache[T]{
		storage: storage,
		prefix:  o.namespace + ":",
		now:     o.now,
		onError: o.onError,
	}
}

// Namespace returns the key prefix without the trailing separator.
func (c *StorageCache[T]) Namespace() string {
	return strings.TrimSuffix(c.prefix, ":")
}

// Get returns the live value for key. Expired or undecodable entries are
// removed and reported as a miss.
func (c *StorageCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	if c.storage == nil {
		return zero, false
	}
	raw, ok, err := c.storage.GetItem(ctx, c.prefix+key)
	if err != nil {
		c.fail("get", key, err)
		return zero, false
	}
	if !ok || raw == "" {
		observability.Cache().OnCacheMiss(ctx, providerStorage)
		return zero, false
	}

	var entry Entry[T]
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.fail("decode", key, err)
		c.Delete(ctx, key)
		return zero, false
	}
	if entry.expired(c.now()) {
		c.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, providerStorage)
		return zero, false
	}

	observability.Cache().OnCacheHit(ctx, providerStorage)
	return entry.Value, true
}

// Set stores value under key until now+ttl.
func (c *StorageCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) {
	if c.storage == nil {
		return
	}
	data, err := json.Marshal(newEntry(value, ttl, c.now()))
	if err != nil {
		c.fail("encode", key, err)
		return
	}
	if err := c.storage.SetItem(ctx, c.prefix+key, string(data)); err != nil {
		c.fail("set", key, err)
		return
	}
	observability.Cache().OnCacheSet(ctx, providerStorage)
}

// Delete removes key.
func (c *StorageCache[T]) Delete(ctx context.Context, key string) {
	if c.storage == nil {
		return
	}
	if err := c.storage.RemoveItem(ctx, c.prefix+key); err != nil {
		c.fail("delete", key, err)
	}
}

// Clear removes every namespaced key, leaving other stored data untouched.
func (c *StorageCache[T]) Clear(ctx context.Context) {
	if c.storage == nil {
		return
	}
	keys, err := c.storage.Keys(ctx, c.prefix)
	if err != nil {
		c.fail("clear", "", err)
		return
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, c.prefix) {
			continue
		}
		if err := c.storage.RemoveItem(ctx, k); err != nil {
			c.fail("clear", k, err)
		}
	}
}

// Size counts namespaced keys. It returns 0 if the storage cannot be listed.
func (c *StorageCache[T]) Size(ctx context.Context) int {
	if c.storage == nil {
		return 0
	}
	keys, err := c.storage.Keys(ctx, c.prefix)
	if err != nil {
		c.fail("size", "", err)
		return 0
	}
	n := 0
	for _, k := range keys {
		if strings.HasPrefix(k, c.prefix) {
			n++
		}
	}
	return n
}

func (c *StorageCache[T]) fail(op, key string, err error) {
	if c.onError != nil {
		c.onError(op, key, err)
	}
}

// Ensure StorageCache implements Cache.
var _ Cache[string] = (*StorageCache[string])(nil)

// =============================================================================
// MemoryStorage
// =============================================================================

// MemoryStorage is a map-backed Storage, useful for tests and for hosts
// without persistent storage. A positive Quota caps the total number of bytes
// (keys plus values) and makes SetItem fail with ErrQuotaExceeded beyond it.
type MemoryStorage struct {
	Quota int

	mu    sync.RWMutex
	items map[string]string
	used  int
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (s *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = make(map[string]string)
	}
	used := s.used + len(value)
	if old, ok := s.items[key]; ok {
		used -= len(old)
	} else {
		used += len(key)
	}
	if s.Quota > 0 && used > s.Quota {
		return ErrQuotaExceeded
	}
	s.items[key] = value
	s.used = used
	return nil
}

func (s *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.items, key)
	}
	return nil
}

func (s *MemoryStorage) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys across all namespaces.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Ensure MemoryStorage implements Storage.
var _ Storage = (*MemoryStorage)(nil)
