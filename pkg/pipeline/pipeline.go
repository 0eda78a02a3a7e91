// Package pipeline orchestrates the complete snapshot analysis run.
//
// This package implements the select → build → traverse → aggregate pipeline
// that can be used by CLI and batch components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Select: reduce the snapshot to the latest record per package
//  2. Build: normalize requirements into an edge list and construct the
//     dependency graph together with its transpose
//  3. Traverse: compute the forward and reverse reachability closure of
//     every node, both directions in parallel
//  4. Aggregate: join the closures with package sizes into summary rows
//
// The expensive stages (traverse, aggregate) are cached against a content
// hash of the selected snapshot, so re-running an analysis over an unchanged
// snapshot is cheap.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	records, _, err := snapshot.ReadFile(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx, records, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range result.Summaries {
//	    fmt.Println(row.Name, row.TotalSize)
//	}
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/libklein/pypi-dependency-analysis/pkg/aggregate"
	"github.com/libklein/pypi-dependency-analysis/pkg/depgraph"
	"github.com/libklein/pypi-dependency-analysis/pkg/reach"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Batch Entry Points
// =============================================================================

// DefaultStrategy is the traversal strategy used when none is requested.
// Component collapsing produces identical closures and is usually faster on
// cyclic ecosystem graphs, but plain BFS is the reference behavior.
const DefaultStrategy = reach.StrategyBFS

// ValidStrategies is the set of supported traversal strategies.
var ValidStrategies = map[reach.Strategy]bool{
	reach.StrategyBFS: true,
	reach.StrategySCC: true,
}

// Traversal direction names used for cache keys and logging.
const (
	DirectionForward = "forward"
	DirectionReverse = "reverse"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for an analysis run.
// This struct supports JSON serialization for archived run manifests.
type Options struct {
	// Strategy selects the traversal algorithm (bfs or scc).
	Strategy reach.Strategy `json:"strategy,omitempty"`

	// Workers bounds the per-direction traversal parallelism.
	// Zero means one worker per CPU.
	Workers int `json:"workers,omitempty"`

	// Refresh bypasses the traverse and summary caches.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks option values and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if !ValidStrategies[o.Strategy] {
		return fmt.Errorf("invalid strategy: %q (must be one of: bfs, scc)", o.Strategy)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", o.Workers)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result - Pipeline Outputs
// =============================================================================

// Result contains the outputs of one analysis run.
type Result struct {
	// RunID uniquely identifies this run, for logs and archival.
	RunID string

	// SnapshotHash is the content hash of the selected snapshot records.
	// All derived cache keys are based on it.
	SnapshotHash string

	// Records holds the latest-version record per package.
	Records []snapshot.Record

	// Graph is the dependency graph over normalized package names.
	Graph *depgraph.Graph

	// Reverse is the transpose of Graph.
	Reverse *depgraph.Graph

	// Summaries is the per-package summary table, sorted by name.
	Summaries []aggregate.Summary

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Packages   int // records after latest-version selection
	Superseded int // records dropped by latest-version selection
	NodeCount  int
	EdgeCount  int
	Skipped    int // summary rows dropped due to failed traversals

	SelectTime    time.Duration
	BuildTime     time.Duration
	TraverseTime  time.Duration
	AggregateTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ForwardHit bool // Whether the forward closure came from cache
	ReverseHit bool // Whether the reverse closure came from cache
	SummaryHit bool // Whether the summary table came from cache
}
