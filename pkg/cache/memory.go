package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/matzehuels/fetchflow/pkg/observability"
)

const providerMemory = "memory"

// Memory is a bounded in-process cache with LRU eviction and per-entry TTL.
//
// Reads count as use: a successful Get moves the entry to the most recently
// used position. When a Set of a new key finds the cache full, the least
// recently used entry is evicted first.
//
// Memory is safe for concurrent use.
type Memory[T any] struct {
	mu       sync.Mutex
	capacity int
	now      func() time.Time
	order    *list.List // front = most recently used
	items    map[string]*list.Element
}

type memoryItem[T any] struct {
	key   string
	entry Entry[T]
}

// NewMemory creates an empty Memory cache.
// Capacity defaults to DefaultCapacity; see WithCapacity.
func NewMemory[T any](opts ...Option) *Memory[T] {
	o := applyOptions(opts)
	return &Memory[T]{
		capacity: o.capacity,
		now:      o.now,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Capacity returns the maximum number of entries.
func (m *Memory[T]) Capacity() int { return m.capacity }

// Get returns the value for key, evicting it if expired.
func (m *Memory[T]) Get(ctx context.Context, key string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	el, ok := m.items[key]
	if !ok {
		observability.Cache().OnCacheMiss(ctx, providerMemory)
		return zero, false
	}
	item := el.Value.(*memoryItem[T])
	if item.entry.expired(m.now()) {
		m.removeElement(el)
		observability.Cache().OnCacheMiss(ctx, providerMemory)
		return zero, false
	}

	m.order.MoveToFront(el)
	observability.Cache().OnCacheHit(ctx, providerMemory)
	return item.entry.Value, true
}

// Set stores value under key. Overwriting an existing key refreshes its
// value, expiry and recency without evicting anything.
func (m *Memory[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := newEntry(value, ttl, m.now())
	if el, ok := m.items[key]; ok {
		el.Value.(*memoryItem[T]).entry = entry
		m.order.MoveToFront(el)
		observability.Cache().OnCacheSet(ctx, providerMemory)
		return
	}

	if len(m.items) >= m.capacity {
		if oldest := m.order.Back(); oldest != nil {
			m.removeElement(oldest)
			observability.Cache().OnCacheEvict(ctx, providerMemory)
		}
	}
	m.items[key] = m.order.PushFront(&memoryItem[T]{key: key, entry: entry})
	observability.Cache().OnCacheSet(ctx, providerMemory)
}

// Delete removes key.
func (m *Memory[T]) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.removeElement(el)
	}
}

// Clear removes every entry.
func (m *Memory[T]) Clear(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order.Init()
	clear(m.items)
}

// Size returns the number of stored entries, including expired ones that
// have not been read since they went stale.
func (m *Memory[T]) Size(context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Keys returns the stored keys from most to least recently used.
func (m *Memory[T]) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.items))
	for el := m.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*memoryItem[T]).key)
	}
	return keys
}

func (m *Memory[T]) removeElement(el *list.Element) {
	item := m.order.Remove(el).(*memoryItem[T])
	delete(m.items, item.key)
}

// Ensure Memory implements Cache.
var _ Cache[string] = (*Memory[string])(nil)
