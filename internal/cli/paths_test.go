package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := "/tmp/custom-cache"
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestConfigPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		name     string
		override string
		xdg      string
		want     string
	}{
		{
			name: "default",
			want: filepath.Join(home, ".config", appName, "config.toml"),
		},
		{
			name: "xdg",
			xdg:  "/tmp/xdg-config",
			want: filepath.Join("/tmp/xdg-config", appName, "config.toml"),
		},
		{
			name:     "override wins",
			override: "/etc/fetchflow.toml",
			xdg:      "/tmp/xdg-config",
			want:     "/etc/fetchflow.toml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(configEnv, tt.override)
			t.Setenv("XDG_CONFIG_HOME", tt.xdg)

			got, err := configPath()
			if err != nil {
				t.Fatalf("configPath() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("configPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
