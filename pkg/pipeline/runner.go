package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/libklein/pypi-dependency-analysis/pkg/aggregate"
	"github.com/libklein/pypi-dependency-analysis/pkg/cache"
	"github.com/libklein/pypi-dependency-analysis/pkg/depgraph"
	"github.com/libklein/pypi-dependency-analysis/pkg/normalize"
	"github.com/libklein/pypi-dependency-analysis/pkg/observability"
	"github.com/libklein/pypi-dependency-analysis/pkg/reach"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store run results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete select → build → traverse → aggregate pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, records []snapshot.Record, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{RunID: uuid.NewString()}
	observability.Pipeline().OnRunStart(ctx, result.RunID, len(records))

	// Stage 1: Select
	selectStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageSelect)
	latest, err := snapshot.SelectLatest(records)
	observability.Pipeline().OnStageComplete(ctx, observability.StageSelect, time.Since(selectStart), err)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	result.Records = latest
	result.Stats.SelectTime = time.Since(selectStart)
	result.Stats.Packages = len(latest)
	result.Stats.Superseded = len(records) - len(latest)

	hash, err := snapshotHash(latest)
	if err != nil {
		return nil, fmt.Errorf("hash snapshot: %w", err)
	}
	result.SnapshotHash = hash

	opts.Logger.Info("selected snapshot",
		"run", result.RunID,
		"packages", result.Stats.Packages,
		"superseded", result.Stats.Superseded,
		"duration", result.Stats.SelectTime)

	// Stage 2: Build
	buildStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageBuild)
	result.Graph = depgraph.FromEdges(normalize.Edges(latest))
	result.Reverse = result.Graph.Reverse()
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = result.Graph.NodeCount()
	result.Stats.EdgeCount = result.Graph.EdgeCount()
	observability.Pipeline().OnStageComplete(ctx, observability.StageBuild, result.Stats.BuildTime, nil)

	opts.Logger.Info("built dependency graph",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.BuildTime)

	// A cached summary table short-circuits the expensive stages.
	summaryKey := r.Keyer.SummaryKey(hash)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, summaryKey); err == nil && hit {
			var summaries []aggregate.Summary
			if json.Unmarshal(data, &summaries) == nil {
				result.Summaries = summaries
				result.CacheInfo.SummaryHit = true
				observability.Cache().OnCacheHit(ctx, "summary")
				opts.Logger.Info("summary table served from cache", "rows", len(summaries))
				return result, nil
			}
			// If deserialization fails, fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "summary")
	}

	// Stage 3: Traverse, both directions in parallel
	traverseStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageTraverse)
	var forward, reverse []reach.Result
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		forward, result.CacheInfo.ForwardHit, err = r.traverse(egCtx, result.Graph, DirectionForward, hash, opts)
		return err
	})
	eg.Go(func() error {
		var err error
		reverse, result.CacheInfo.ReverseHit, err = r.traverse(egCtx, result.Reverse, DirectionReverse, hash, opts)
		return err
	})
	err = eg.Wait()
	result.Stats.TraverseTime = time.Since(traverseStart)
	observability.Pipeline().OnStageComplete(ctx, observability.StageTraverse, result.Stats.TraverseTime, err)
	if err != nil {
		return nil, fmt.Errorf("traverse: %w", err)
	}

	opts.Logger.Info("computed reachability closures",
		"strategy", opts.Strategy,
		"forward_cached", result.CacheInfo.ForwardHit,
		"reverse_cached", result.CacheInfo.ReverseHit,
		"duration", result.Stats.TraverseTime)

	// Stage 4: Aggregate
	aggregateStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageAggregate)
	summaries, skipped, err := aggregate.Build(latest, forward, reverse, nil)
	result.Stats.AggregateTime = time.Since(aggregateStart)
	observability.Pipeline().OnStageComplete(ctx, observability.StageAggregate, result.Stats.AggregateTime, err)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	result.Summaries = summaries
	result.Stats.Skipped = skipped
	if skipped > 0 {
		opts.Logger.Warn("dropped summary rows with failed traversals", "count", skipped)
	}

	if data, err := json.Marshal(summaries); err == nil {
		_ = r.Cache.Set(ctx, summaryKey, data, cache.TTLDerived)
		observability.Cache().OnCacheSet(ctx, "summary", len(data))
	}

	opts.Logger.Info("aggregated package summaries",
		"rows", len(summaries),
		"duration", result.Stats.AggregateTime)

	return result, nil
}

// traverse computes the reachability closure of every node in g, serving
// and populating the per-direction cache.
func (r *Runner) traverse(ctx context.Context, g *depgraph.Graph, direction, hash string, opts Options) ([]reach.Result, bool, error) {
	key := r.Keyer.ReachKey(hash, direction)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if results, ok := decodeResults(data); ok {
				observability.Cache().OnCacheHit(ctx, "reach")
				return results, true, nil
			}
			// If deserialization fails, fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "reach")
	}

	results, err := reach.All(ctx, g, reach.Options{Strategy: opts.Strategy, Workers: opts.Workers})
	if err != nil {
		return nil, false, err
	}

	if data, ok := encodeResults(results); ok {
		_ = r.Cache.Set(ctx, key, data, cache.TTLDerived)
		observability.Cache().OnCacheSet(ctx, "reach", len(data))
	}
	return results, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// snapshotHash computes the content hash of the selected records. The
// records arrive sorted by name from SelectLatest, so equal snapshots hash
// equally regardless of input order.
func snapshotHash(records []snapshot.Record) (string, error) {
	var buf bytes.Buffer
	if err := snapshot.Write(&buf, records); err != nil {
		return "", err
	}
	return cache.Hash(buf.Bytes()), nil
}

// reachEntry is the cacheable form of a traversal result. Closures are only
// cached when every node succeeded, so the error field never needs to be
// serialized.
type reachEntry struct {
	Node      string   `json:"node"`
	Reachable []string `json:"reachable,omitempty"`
}

func encodeResults(results []reach.Result) ([]byte, bool) {
	entries := make([]reachEntry, len(results))
	for i, res := range results {
		if res.Err != nil {
			return nil, false
		}
		entries[i] = reachEntry{Node: res.Node, Reachable: res.Reachable}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, false
	}
	return data, true
}

func decodeResults(data []byte) ([]reach.Result, bool) {
	var entries []reachEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	results := make([]reach.Result, len(entries))
	for i, e := range entries {
		results[i] = reach.Result{Node: e.Node, Reachable: e.Reachable}
	}
	return results, true
}
