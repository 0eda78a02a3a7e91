package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.HTTPTTL.Value() != 24*time.Hour {
		t.Errorf("HTTPTTL = %v, want 24h", cfg.HTTPTTL.Value())
	}
	if cfg.Strategy != "bfs" {
		t.Errorf("Strategy = %q, want bfs", cfg.Strategy)
	}
	if cfg.MaxDepth == 0 || cfg.MaxNodes == 0 {
		t.Errorf("crawl bounds not defaulted: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
cache_dir = "/tmp/pypigraph-cache"
redis_url = "redis://cache.internal:6379/1"
http_cache_ttl = "30m"
mongo_uri = "mongodb://db.internal:27017"
mongo_database = "graphs"
max_depth = 3
strategy = "scc"
workers = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheDir != "/tmp/pypigraph-cache" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.RedisURL != "redis://cache.internal:6379/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.HTTPTTL.Value() != 30*time.Minute {
		t.Errorf("HTTPTTL = %v, want 30m", cfg.HTTPTTL.Value())
	}
	if cfg.MongoURI != "mongodb://db.internal:27017" || cfg.MongoDatabase != "graphs" {
		t.Errorf("mongo settings = %q / %q", cfg.MongoURI, cfg.MongoDatabase)
	}
	if cfg.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", cfg.MaxDepth)
	}
	// Unset keys keep their defaults.
	if cfg.MaxNodes != Default().MaxNodes {
		t.Errorf("MaxNodes = %d, want default %d", cfg.MaxNodes, Default().MaxNodes)
	}
	if cfg.Strategy != "scc" || cfg.Workers != 4 {
		t.Errorf("Strategy/Workers = %q/%d", cfg.Strategy, cfg.Workers)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	// Point XDG at an empty directory so no real user config interferes.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Strategy != "bfs" {
		t.Errorf("Strategy = %q, want default", cfg.Strategy)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("max_depth = [not valid"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load() error = %v, want INVALID_FORMAT", err)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`http_cache_ttl = "fortnight"`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load() error = %v, want INVALID_FORMAT", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
redis_url = "redis://file:6379"
mongo_uri = "mongodb://file:27017"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("REDIS_URL", "redis://env:6379")
	t.Setenv("MONGO_URI", "mongodb://env:27017")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RedisURL != "redis://env:6379" {
		t.Errorf("RedisURL = %q, env should win", cfg.RedisURL)
	}
	if cfg.MongoURI != "mongodb://env:27017" {
		t.Errorf("MongoURI = %q, env should win", cfg.MongoURI)
	}
}

func TestPathUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	path, err := Path()
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if want := filepath.Join("/custom/config", "pypigraph", "config.toml"); path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
}
