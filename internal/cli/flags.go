package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fetchflow/pkg/fetch"
	"github.com/matzehuels/fetchflow/pkg/network"
)

// requestFlags are the flags shared by commands that issue requests. Flags
// that were not set on the command line fall back to the config file.
type requestFlags struct {
	headers     []string
	timeout     time.Duration
	credentials string

	// Cache and retry flags, registered only for cached commands.
	retries    int
	retryDelay time.Duration
	noCache    bool
	cacheTTL   time.Duration
}

func (f *requestFlags) register(cmd *cobra.Command, cached bool) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.headers, "header", "H", nil, `request header as "Key: value" (repeatable)`)
	flags.DurationVar(&f.timeout, "timeout", network.DefaultTimeout, "request timeout")
	flags.StringVar(&f.credentials, "credentials", "", "cookie mode: same-origin, include or omit")
	if !cached {
		return
	}
	flags.IntVar(&f.retries, "retries", fetch.DefaultRetryCount, "retries after the first attempt (0 disables)")
	flags.DurationVar(&f.retryDelay, "retry-delay", fetch.DefaultRetryDelay, "base backoff delay")
	flags.BoolVar(&f.noCache, "no-cache", false, "bypass the response cache")
	flags.DurationVar(&f.cacheTTL, "cache-ttl", fetch.DefaultCacheTime, "lifetime of cached responses")
}

// requestOptions builds request options from config and flags.
func (f *requestFlags) requestOptions(cmd *cobra.Command, cfg *Config) (network.RequestOptions, error) {
	headers, err := parseHeaders(f.headers)
	if err != nil {
		return network.RequestOptions{}, err
	}
	opts := network.RequestOptions{
		Headers: headers,
		Timeout: cfg.HTTP.Timeout.Duration,
	}
	if cmd.Flags().Changed("timeout") {
		opts.Timeout = f.timeout
	}

	creds := cfg.HTTP.Credentials
	if cmd.Flags().Changed("credentials") {
		creds = f.credentials
	}
	if creds != "" {
		mode, ok := network.ParseCredentials(creds)
		if !ok {
			return network.RequestOptions{}, fmt.Errorf("invalid credentials mode %q", creds)
		}
		opts.Credentials = mode
	}
	return opts, nil
}

// fetchOptions builds cached fetch options from config and flags.
func (f *requestFlags) fetchOptions(cmd *cobra.Command, cfg *Config) (fetch.FetchOptions, error) {
	req, err := f.requestOptions(cmd, cfg)
	if err != nil {
		return fetch.FetchOptions{}, err
	}
	opts := fetch.FetchOptions{
		RequestOptions: req,
		CacheTime:      cfg.Cache.TTL.Duration,
		RetryDelay:     cfg.Retry.Delay.Duration,
		CacheDisabled:  f.noCache || cfg.Cache.Backend == backendNone,
	}
	if cfg.Retry.Count != nil {
		setRetries(&opts, *cfg.Retry.Count)
	}

	flags := cmd.Flags()
	if flags.Changed("retries") {
		if f.retries < 0 {
			return fetch.FetchOptions{}, fmt.Errorf("--retries must not be negative, got %d", f.retries)
		}
		setRetries(&opts, f.retries)
	}
	if flags.Changed("retry-delay") {
		opts.RetryDelay = f.retryDelay
	}
	if flags.Changed("cache-ttl") {
		opts.CacheTime = f.cacheTTL
	}
	return opts, nil
}

func setRetries(opts *fetch.FetchOptions, n int) {
	opts.RetryCount = n
	opts.NoRetry = n == 0
}

// parseHeaders parses "Key: value" pairs.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Key: value\"", h)
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}
