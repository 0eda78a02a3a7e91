// Package cli implements the pypigraph command-line interface.
//
// This package provides commands for building package metadata snapshots
// (from the PyPI API or a local metadata directory), analyzing them into
// per-package summary tables, exploring the resulting dependency graph,
// and managing the local cache. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - fetch: Build a snapshot by crawling PyPI or scanning a metadata directory
//   - analyze: Run the full analysis pipeline over a snapshot
//   - report: Rankings, distributions, and scatter exports over the summary table
//   - graph: Ad-hoc reachability queries and graph exports
//   - communities: Louvain community detection over the dependency graph
//   - cache: Manage the local cache
//
// # Configuration
//
// Settings layer from defaults, the optional TOML config file, environment
// variables, and finally command-line flags. See the config package for
// the file format and recognized variables.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/libklein/pypi-dependency-analysis/pkg/buildinfo"
	"github.com/libklein/pypi-dependency-analysis/pkg/cache"
	"github.com/libklein/pypi-dependency-analysis/pkg/config"
	"github.com/libklein/pypi-dependency-analysis/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "pypigraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfg     config.Config
	cfgPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Analyze dependency structure across the PyPI package index",
		Long: `pypigraph builds a dependency graph over a snapshot of PyPI package
metadata and answers structural questions about it: what each package
transitively depends on, what depends on it, how much installing it
really costs, and how the index clusters into communities.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "config file (default: XDG config dir)")

	// Register all subcommands
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.communitiesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newBackend(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

// newBackend selects the cache backend: null when caching is disabled,
// Redis when configured and reachable, disk otherwise.
func (c *CLI) newBackend(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.cfg.RedisURL != "" {
		backend, err := cache.NewRedisCache(ctx, c.cfg.RedisURL)
		if err == nil {
			return backend, nil
		}
		c.Logger.Warnf("Redis cache unavailable, using disk: %v", err)
	}
	dir := c.cfg.CacheDir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/pypigraph/).
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

// =============================================================================
// Output Helpers
// =============================================================================

// nopCloser wraps an io.Writer with a no-op Close method, making
// os.Stdout usable where a WriteCloser is expected.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path, or stdout when the
// path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
