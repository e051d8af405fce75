// Package cli implements the fetchflow command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fetchflow/pkg/buildinfo"
	"github.com/matzehuels/fetchflow/pkg/cache"
	"github.com/matzehuels/fetchflow/pkg/fetch"
	"github.com/matzehuels/fetchflow/pkg/network"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = buildinfo.Name

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// cfg returns the loaded configuration, falling back to defaults when a
// command runs without the root pre-run (as in tests).
func (c *CLI) cfg() *Config {
	if c.config == nil {
		c.config = defaultConfig()
	}
	return c.config
}

// =============================================================================
// Cache Backends
// =============================================================================

// backend is an opened cache backend and the function that releases it.
type backend struct {
	cache    cache.Cache[json.RawMessage]
	storage  cache.Storage // nil for memory and none
	location string
	close    func() error
}

// openBackend opens the cache backend named in the configuration. With
// noCache the backend is a Null cache regardless of configuration.
func (c *CLI) openBackend(ctx context.Context, noCache bool) (*backend, error) {
	cfg := c.cfg().Cache
	noop := func() error { return nil }
	opts := []cache.Option{
		cache.WithNamespace(cfg.Namespace),
		cache.WithErrorHandler(func(op, key string, err error) {
			c.Logger.Warn("cache storage failure", "op", op, "key", key, "err", err)
		}),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, cache.WithCapacity(cfg.Capacity))
	}

	name := cfg.Backend
	if noCache {
		name = backendNone
	}

	switch name {
	case backendNone:
		return &backend{cache: cache.NewNull[json.RawMessage](), location: "disabled", close: noop}, nil

	case backendMemory:
		return &backend{cache: cache.NewMemory[json.RawMessage](opts...), location: "in-memory (not persisted)", close: noop}, nil

	case backendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return nil, fmt.Errorf("resolve cache dir: %w", err)
			}
			dir = d
		}
		fs, err := cache.NewFileStorage(dir)
		if err != nil {
			return nil, err
		}
		return &backend{cache: cache.NewStorageCache[json.RawMessage](fs, opts...), storage: fs, location: fs.Dir(), close: noop}, nil

	case backendRedis:
		rs, err := cache.NewRedisStorage(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &backend{cache: cache.NewStorageCache[json.RawMessage](rs, opts...), storage: rs, location: redactURL(cfg.RedisURL), close: rs.Close}, nil

	case backendMongo:
		ms, err := cache.NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, err
		}
		location := redactURL(cfg.MongoURI)
		return &backend{
			cache:    cache.NewStorageCache[json.RawMessage](ms, opts...),
			storage:  ms,
			location: location,
			close:    func() error { return ms.Close(context.WithoutCancel(ctx)) },
		}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", name)
}

// redactURL hides credentials embedded in a connection string.
func redactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return raw
	}
	return scheme + "://***@" + rest[at+1:]
}

// =============================================================================
// Fetcher Factory
// =============================================================================

// newClient creates a network client carrying the User-Agent and the
// configured headers, which may override it.
func (c *CLI) newClient() *network.Client {
	cfg := c.cfg().HTTP
	headers := map[string]string{"User-Agent": buildinfo.UserAgent()}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	opts := []network.ClientOption{
		network.WithLogger(c.Logger),
		network.WithHeaders(headers),
	}
	if cfg.Origin != "" {
		opts = append(opts, network.WithOrigin(cfg.Origin))
	}
	return network.NewClient(opts...)
}

// newFetcher creates a fetcher over the configured backend. Cookies are not
// part of the cache key, so responses fetched under a non-default credentials
// mode are kept in their own scope. The returned close function must be
// called when the command finishes.
func (c *CLI) newFetcher(ctx context.Context, noCache bool, creds network.Credentials) (*fetch.Fetcher, func(), error) {
	b, err := c.openBackend(ctx, noCache)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := b.close(); err != nil {
			c.Logger.Warn("close cache backend", "err", err)
		}
	}
	store := b.cache
	if creds != "" && creds != network.CredentialsSameOrigin {
		store = cache.NewScoped(store, "credentials:"+string(creds)+":")
	}
	return fetch.New(c.newClient(), store, c.Logger), release, nil
}
