package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/fetchflow/pkg/cache"
	"github.com/matzehuels/fetchflow/pkg/network"
)

// configEnv overrides the config file location.
const configEnv = "FETCHFLOW_CONFIG"

// Cache backends selectable in [cache] backend.
const (
	backendMemory = "memory"
	backendFile   = "file"
	backendRedis  = "redis"
	backendMongo  = "mongo"
	backendNone   = "none"
)

// Duration is a time.Duration decoded from a TOML string such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the CLI configuration file.
type Config struct {
	HTTP    HTTPConfig    `toml:"http"`
	Retry   RetryConfig   `toml:"retry"`
	Cache   CacheConfig   `toml:"cache"`
	Poll    PollConfig    `toml:"poll"`
	Metrics MetricsConfig `toml:"metrics"`
}

// HTTPConfig holds request defaults.
type HTTPConfig struct {
	Timeout     Duration          `toml:"timeout"`
	Headers     map[string]string `toml:"headers"`
	Credentials string            `toml:"credentials"`
	Origin      string            `toml:"origin"`
}

// RetryConfig holds the retry policy. A nil Count keeps the library default;
// zero disables retries.
type RetryConfig struct {
	Count *int     `toml:"count"`
	Delay Duration `toml:"delay"`
}

// CacheConfig selects and configures the response cache.
type CacheConfig struct {
	Backend         string   `toml:"backend"`
	TTL             Duration `toml:"ttl"`
	Capacity        int      `toml:"capacity"`
	Namespace       string   `toml:"namespace"`
	Dir             string   `toml:"dir"`
	RedisURL        string   `toml:"redis_url"`
	MongoURI        string   `toml:"mongo_uri"`
	MongoDatabase   string   `toml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection"`
}

// PollConfig holds poll defaults.
type PollConfig struct {
	Interval Duration `toml:"interval"`
}

// MetricsConfig configures the metrics server of the poll command.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		HTTP:  HTTPConfig{Timeout: Duration{network.DefaultTimeout}},
		Cache: CacheConfig{Backend: backendFile, Namespace: cache.DefaultNamespace},
		Poll:  PollConfig{Interval: Duration{5 * time.Second}},
	}
}

// loadConfig reads the config file at path, or at configPath() when path is
// empty. A missing default file yields defaultConfig(); a missing explicit
// file is an error. ${VAR} references are expanded before decoding.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return defaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaultConfig()
	md, err := toml.Decode(os.ExpandEnv(string(data)), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("parse config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case backendMemory, backendFile, backendRedis, backendMongo, backendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == backendRedis && c.Cache.RedisURL == "" {
		return errors.New("cache backend redis requires redis_url")
	}
	if c.Cache.Backend == backendMongo && c.Cache.MongoURI == "" {
		return errors.New("cache backend mongo requires mongo_uri")
	}
	if c.HTTP.Credentials != "" {
		if _, ok := network.ParseCredentials(c.HTTP.Credentials); !ok {
			return fmt.Errorf("invalid credentials mode %q", c.HTTP.Credentials)
		}
	}
	if c.Retry.Count != nil && *c.Retry.Count < 0 {
		return fmt.Errorf("retry count must not be negative, got %d", *c.Retry.Count)
	}
	return nil
}

// configPath returns the config file location: $FETCHFLOW_CONFIG, else the
// XDG config directory (~/.config/fetchflow/config.toml).
func configPath() (string, error) {
	if p := os.Getenv(configEnv); p != "" {
		return p, nil
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// cacheDir returns the file cache directory using XDG standard (~/.cache/fetchflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
