package fetch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fetchflow/pkg/cache"
	fetcherrors "github.com/matzehuels/fetchflow/pkg/errors"
	"github.com/matzehuels/fetchflow/pkg/httputil"
	"github.com/matzehuels/fetchflow/pkg/network"
)

// Defaults applied to zero FetchOptions fields.
const (
	DefaultCacheTime  = 5 * time.Minute
	DefaultRetryCount = httputil.DefaultMaxRetries
	DefaultRetryDelay = httputil.DefaultBaseDelay
)

// FetchOptions configures FetchOnce. Zero values select the defaults, so the
// zero FetchOptions is a cached GET retried twice.
type FetchOptions struct {
	network.RequestOptions

	CacheTime     time.Duration // TTL of the cached response; default DefaultCacheTime
	RetryCount    int           // Retries after the first attempt; default DefaultRetryCount
	NoRetry       bool          // Forces a single attempt, overriding RetryCount
	RetryDelay    time.Duration // Base backoff delay; default DefaultRetryDelay
	CacheDisabled bool          // Skips both the cache read and the cache write
}

func (o FetchOptions) cacheTime() time.Duration {
	if o.CacheTime <= 0 {
		return DefaultCacheTime
	}
	return o.CacheTime
}

func (o FetchOptions) policy() httputil.Policy {
	p := httputil.Policy{MaxRetries: DefaultRetryCount, BaseDelay: DefaultRetryDelay}
	if o.RetryCount > 0 {
		p.MaxRetries = o.RetryCount
	}
	if o.NoRetry {
		p.MaxRetries = 0
	}
	if o.RetryDelay > 0 {
		p.BaseDelay = o.RetryDelay
	}
	return p
}

// key derives the cache key from the options that shape the response.
func (o FetchOptions) key(url string) string {
	return cache.Key(url, string(o.Method), o.Headers, o.Body)
}

// Result is the outcome of a successful fetch.
type Result[T any] struct {
	Data      T
	FromCache bool
}

// Fetcher composes a cache, the retry policy and a network client.
//
// Responses are cached as raw JSON so one cache serves every result type.
// A Fetcher is safe for concurrent use. Concurrent identical fetches are not
// coalesced; each one misses the cache independently until a value is stored.
type Fetcher struct {
	client *network.Client
	cache  cache.Cache[json.RawMessage]
	logger *log.Logger

	// retry overrides policy fields in tests.
	retry func(*httputil.Policy)
}

// New creates a Fetcher. A nil client uses network.NewClient(), a nil cache
// the process-wide DefaultCache(), and a nil logger log.Default().
func New(client *network.Client, c cache.Cache[json.RawMessage], logger *log.Logger) *Fetcher {
	if client == nil {
		client = network.NewClient()
	}
	if c == nil {
		c = DefaultCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{client: client, cache: c, logger: logger}
}

var (
	defaultCacheOnce sync.Once
	defaultCache     *cache.Memory[json.RawMessage]

	defaultFetcherOnce sync.Once
	defaultFetcher     *Fetcher
)

// DefaultCache returns the shared in-memory cache used when New is given no
// cache. It holds up to cache.DefaultCapacity responses.
func DefaultCache() *cache.Memory[json.RawMessage] {
	defaultCacheOnce.Do(func() {
		defaultCache = cache.NewMemory[json.RawMessage]()
	})
	return defaultCache
}

// Default returns a shared Fetcher over a default client and DefaultCache().
func Default() *Fetcher {
	defaultFetcherOnce.Do(func() {
		defaultFetcher = New(nil, nil, nil)
	})
	return defaultFetcher
}

// Cache returns the cache the Fetcher reads and writes.
func (f *Fetcher) Cache() cache.Cache[json.RawMessage] { return f.cache }

// Client returns the network client.
func (f *Fetcher) Client() *network.Client { return f.client }

// Raw fetches url and returns the undecoded JSON body.
//
// With caching enabled a live entry is returned without a network call.
// Otherwise the request runs under the retry policy and, on success, the
// body is stored for opts.CacheTime. The error is always a FetchError.
func (f *Fetcher) Raw(ctx context.Context, url string, opts FetchOptions) (Result[json.RawMessage], error) {
	key := opts.key(url)
	if !opts.CacheDisabled {
		if raw, ok := f.cache.Get(ctx, key); ok {
			f.logger.Debug("cache hit", "url", url, "method", opts.Method)
			return Result[json.RawMessage]{Data: raw, FromCache: true}, nil
		}
		f.logger.Debug("cache miss", "url", url, "method", opts.Method)
	}

	p := opts.policy()
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		f.logger.Debug("retrying", "url", url, "attempt", attempt+1, "delay", delay, "err", err)
	}
	if f.retry != nil {
		f.retry(&p)
	}

	raw, err := httputil.Do(ctx, p, func(ctx context.Context) (json.RawMessage, error) {
		return f.client.Do(ctx, url, opts.RequestOptions)
	})
	if err != nil {
		if p.MaxRetries > 0 {
			f.logger.Warn("fetch failed", "url", url, "attempts", p.MaxRetries+1, "err", err)
		}
		return Result[json.RawMessage]{}, fetcherrors.Wrap(err)
	}

	if !opts.CacheDisabled {
		f.cache.Set(ctx, key, raw, opts.cacheTime())
	}
	return Result[json.RawMessage]{Data: raw}, nil
}

// Invalidate removes the cached response for a request, so the next fetch
// goes to the network.
func (f *Fetcher) Invalidate(ctx context.Context, url string, opts FetchOptions) {
	f.cache.Delete(ctx, opts.key(url))
}

// FetchOnce fetches url through f and decodes the JSON body into T.
// A nil f uses Default().
func FetchOnce[T any](ctx context.Context, f *Fetcher, url string, opts FetchOptions) (Result[T], error) {
	if f == nil {
		f = Default()
	}
	res, err := f.Raw(ctx, url, opts)
	if err != nil {
		return Result[T]{}, err
	}
	var v T
	if err := network.Decode(res.Data, &v); err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Data: v, FromCache: res.FromCache}, nil
}
