// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about cache operations, HTTP calls, and poll sessions.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The Prometheus implementation lives in the [prom] subpackage so that the
// core packages stay free of metrics dependencies.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    h := prom.New(prometheus.DefaultRegisterer)
//	    observability.SetCacheHooks(h)
//	    observability.SetHTTPHooks(h)
//	    observability.SetPollHooks(h)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.HTTP().OnRequest(ctx, method, host, path)
//
// [prom]: github.com/matzehuels/fetchflow/pkg/observability/prom
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache providers.
// The provider argument names the implementation ("memory", "storage").
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, provider string)

	// OnCacheMiss records a cache miss, including reads of expired entries.
	OnCacheMiss(ctx context.Context, provider string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, provider string)

	// OnCacheEvict records a capacity eviction.
	OnCacheEvict(ctx context.Context, provider string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the request executor.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a classified failure. kind is the FetchError kind.
	OnError(ctx context.Context, method, host, path, kind string)
}

// =============================================================================
// Poll Hooks
// =============================================================================

// PollHooks receives events from poll sessions.
type PollHooks interface {
	// OnPollStart records a session transitioning to polling.
	OnPollStart(ctx context.Context, session, url string)

	// OnPollCycle records a completed fetch-and-emit cycle.
	OnPollCycle(ctx context.Context, session, url string, fromCache bool, duration time.Duration, err error)

	// OnPollStop records a session returning to idle.
	OnPollStop(ctx context.Context, session, url string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)   {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)  {}
func (NoopCacheHooks) OnCacheSet(context.Context, string)   {}
func (NoopCacheHooks) OnCacheEvict(context.Context, string) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, string)                {}

// NoopPollHooks is a no-op implementation of PollHooks.
type NoopPollHooks struct{}

func (NoopPollHooks) OnPollStart(context.Context, string, string) {}
func (NoopPollHooks) OnPollCycle(context.Context, string, string, bool, time.Duration, error) {
}
func (NoopPollHooks) OnPollStop(context.Context, string, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	pollHooks  PollHooks  = NoopPollHooks{}
	hooksMu    sync.RWMutex
)

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// SetPollHooks registers custom poll hooks.
// This should be called once at application startup before any poller starts.
func SetPollHooks(h PollHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pollHooks = h
	}
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Poll returns the registered poll hooks.
func Poll() PollHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pollHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
	pollHooks = NoopPollHooks{}
}
