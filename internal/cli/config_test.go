package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fetchflow/pkg/cache"
	"github.com/matzehuels/fetchflow/pkg/fetch"
	"github.com/matzehuels/fetchflow/pkg/network"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("FETCHFLOW_TEST_TOKEN", "s3cret")
	path := writeConfig(t, `
[http]
timeout = "3s"
credentials = "include"
headers = { Authorization = "Bearer ${FETCHFLOW_TEST_TOKEN}" }

[retry]
count = 0
delay = "250ms"

[cache]
backend = "memory"
ttl = "1m"
capacity = 50

[poll]
interval = "30s"

[metrics]
addr = ":9090"
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.HTTP.Timeout.Duration != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.HTTP.Timeout)
	}
	if got := cfg.HTTP.Headers["Authorization"]; got != "Bearer s3cret" {
		t.Errorf("Authorization = %q, want expanded token", got)
	}
	if cfg.Retry.Count == nil || *cfg.Retry.Count != 0 {
		t.Errorf("retry count = %v, want explicit 0", cfg.Retry.Count)
	}
	if cfg.Retry.Delay.Duration != 250*time.Millisecond {
		t.Errorf("retry delay = %v, want 250ms", cfg.Retry.Delay)
	}
	if cfg.Cache.Backend != backendMemory || cfg.Cache.TTL.Duration != time.Minute || cfg.Cache.Capacity != 50 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Namespace != cache.DefaultNamespace {
		t.Errorf("namespace = %q, want default %q", cfg.Cache.Namespace, cache.DefaultNamespace)
	}
	if cfg.Poll.Interval.Duration != 30*time.Second || cfg.Metrics.Addr != ":9090" {
		t.Errorf("poll = %+v metrics = %+v", cfg.Poll, cfg.Metrics)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(configEnv, filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Cache.Backend != backendFile {
		t.Errorf("default backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.HTTP.Timeout.Duration != network.DefaultTimeout {
		t.Errorf("default timeout = %v, want %v", cfg.HTTP.Timeout, network.DefaultTimeout)
	}
	if cfg.Retry.Count != nil {
		t.Error("default retry count should be unset")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "syntax", content: `[http`, want: "parse config"},
		{name: "bad duration", content: "[http]\ntimeout = \"soon\"", want: "parse config"},
		{name: "unknown key", content: "[http]\nproxy = \"x\"", want: "unknown keys: http.proxy"},
		{name: "unknown backend", content: "[cache]\nbackend = \"disk\"", want: `unknown cache backend "disk"`},
		{name: "redis without url", content: "[cache]\nbackend = \"redis\"", want: "requires redis_url"},
		{name: "mongo without uri", content: "[cache]\nbackend = \"mongo\"", want: "requires mongo_uri"},
		{name: "credentials", content: "[http]\ncredentials = \"always\"", want: "invalid credentials"},
		{name: "negative retries", content: "[retry]\ncount = -1", want: "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("loadConfig() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicit missing config should fail")
	}
}

// flagCommand returns a command with request flags registered and parsed.
func flagCommand(t *testing.T, rf *requestFlags, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	rf.register(cmd, true)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error: %v", args, err)
	}
	return cmd
}

func TestFetchOptionsPrecedence(t *testing.T) {
	zero := 0
	cfg := defaultConfig()
	cfg.Retry.Count = &zero
	cfg.Retry.Delay = Duration{time.Second}
	cfg.Cache.TTL = Duration{time.Minute}
	cfg.HTTP.Credentials = "omit"

	var rf requestFlags
	opts, err := rf.fetchOptions(flagCommand(t, &rf), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.NoRetry || opts.RetryDelay != time.Second || opts.CacheTime != time.Minute {
		t.Errorf("config options = %+v", opts)
	}
	if opts.Credentials != network.CredentialsOmit || opts.Timeout != network.DefaultTimeout {
		t.Errorf("request options = %+v", opts.RequestOptions)
	}

	rf = requestFlags{}
	cmd := flagCommand(t, &rf, "--retries", "4", "--retry-delay", "10ms", "--cache-ttl", "2s", "--timeout", "1s", "--credentials", "include", "-H", "X-Trace: 1")
	opts, err = rf.fetchOptions(cmd, cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := fetch.FetchOptions{
		RequestOptions: network.RequestOptions{
			Headers:     map[string]string{"X-Trace": "1"},
			Timeout:     time.Second,
			Credentials: network.CredentialsInclude,
		},
		CacheTime:  2 * time.Second,
		RetryCount: 4,
		RetryDelay: 10 * time.Millisecond,
	}
	if opts.NoRetry || opts.RetryCount != want.RetryCount || opts.RetryDelay != want.RetryDelay || opts.CacheTime != want.CacheTime {
		t.Errorf("flag options = %+v, want %+v", opts, want)
	}
	if opts.Timeout != want.Timeout || opts.Credentials != want.Credentials || opts.Headers["X-Trace"] != "1" {
		t.Errorf("flag request options = %+v", opts.RequestOptions)
	}
}

func TestFetchOptionsCacheDisabled(t *testing.T) {
	cfg := defaultConfig()
	var rf requestFlags
	opts, _ := rf.fetchOptions(flagCommand(t, &rf, "--no-cache"), cfg)
	if !opts.CacheDisabled {
		t.Error("--no-cache should disable caching")
	}

	cfg.Cache.Backend = backendNone
	rf = requestFlags{}
	opts, _ = rf.fetchOptions(flagCommand(t, &rf), cfg)
	if !opts.CacheDisabled {
		t.Error("backend none should disable caching")
	}
}

func TestFetchOptionsRejectsNegativeRetries(t *testing.T) {
	var rf requestFlags
	if _, err := rf.fetchOptions(flagCommand(t, &rf, "--retries", "-1"), defaultConfig()); err == nil {
		t.Error("negative --retries should fail")
	}
}

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders([]string{"Authorization: Bearer a:b", "X-Empty:"})
	if err != nil {
		t.Fatal(err)
	}
	if got["Authorization"] != "Bearer a:b" || got["X-Empty"] != "" || len(got) != 2 {
		t.Errorf("parseHeaders() = %v", got)
	}
	for _, bad := range []string{"no-colon", ": value"} {
		if _, err := parseHeaders([]string{bad}); err == nil {
			t.Errorf("parseHeaders(%q) should fail", bad)
		}
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "redis://:pw@localhost:6379/0", want: "redis://***@localhost:6379/0"},
		{in: "mongodb://user:p@ss@db.example.com:27017", want: "mongodb://***@db.example.com:27017"},
		{in: "redis://localhost:6379", want: "redis://localhost:6379"},
		{in: "not a url", want: "not a url"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
