// Package config loads tool configuration.
//
// Settings are layered: built-in defaults, then an optional TOML file from
// the XDG config directory, then environment variables for deployment
// endpoints. Command-line flags sit on top of all three and are applied by
// the CLI, not here.
//
// The config file lives at ~/.config/pypigraph/config.toml (or under
// $XDG_CONFIG_HOME when set):
//
//	cache_dir = "/var/cache/pypigraph"
//	redis_url = "redis://localhost:6379/0"
//	http_cache_ttl = "24h"
//	mongo_uri = "mongodb://localhost:27017"
//	strategy = "bfs"
//	workers = 8
//
// Recognized environment variables: REDIS_URL and MONGO_URI override their
// file counterparts. A .env file is loaded by the binary at startup, so
// either real environment or .env entries work.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/libklein/pypi-dependency-analysis/pkg/cache"
	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
	"github.com/libklein/pypi-dependency-analysis/pkg/integrations/pypi"
)

// appName is used for XDG directory paths.
const appName = "pypigraph"

// Duration decodes TOML strings like "30m" or "24h" into a time.Duration.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Value returns the wrapped time.Duration.
func (d Duration) Value() time.Duration { return time.Duration(d) }

// Config holds all tool settings.
type Config struct {
	// Cache
	CacheDir string   `toml:"cache_dir"`
	RedisURL string   `toml:"redis_url"`
	HTTPTTL  Duration `toml:"http_cache_ttl"`

	// Run archive
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`

	// Crawling
	MaxDepth int `toml:"max_depth"`
	MaxNodes int `toml:"max_nodes"`

	// Analysis
	Strategy string `toml:"strategy"`
	Workers  int    `toml:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPTTL:  Duration(cache.TTLMetadata),
		MaxDepth: pypi.DefaultMaxDepth,
		MaxNodes: pypi.DefaultMaxNodes,
		Strategy: "bfs",
	}
}

// Path returns the default config file location using the XDG standard
// (~/.config/pypigraph/config.toml).
func Path() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads configuration from path, layering it over the defaults and
// applying environment overrides. An empty path means the default XDG
// location. A missing file is not an error; the file is optional.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			cfg.applyEnv()
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return cfg, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides deployment endpoints from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.MongoURI = v
	}
}
