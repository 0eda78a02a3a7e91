// Package store archives completed analysis runs.
//
// A run document captures everything needed to revisit an analysis
// without recomputing it: the run ID, the snapshot content hash, headline
// stats, and the full per-package summary table.
//
// # Backends
//
//   - memory: in-process storage for tests and single-shot tooling
//   - mongo: MongoDB-backed storage for keeping a history of runs
//
// # Usage
//
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{URI: uri})
//	if err != nil {
//	    return err
//	}
//	defer st.Close(ctx)
//
//	run := store.NewRun(result, opts)
//	if err := st.Put(ctx, run); err != nil {
//	    return err
//	}
package store

import (
	"context"
	"time"

	"github.com/libklein/pypi-dependency-analysis/pkg/aggregate"
	"github.com/libklein/pypi-dependency-analysis/pkg/pipeline"
)

// Run is the archived form of one analysis run.
type Run struct {
	RunID        string              `json:"run_id" bson:"run_id"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"`
	SnapshotHash string              `json:"snapshot_hash" bson:"snapshot_hash"`
	Strategy     string              `json:"strategy" bson:"strategy"`
	Stats        RunStats            `json:"stats" bson:"stats"`
	Summaries    []aggregate.Summary `json:"summaries" bson:"summaries,omitempty"`
}

// RunStats is the headline stats block of an archived run.
type RunStats struct {
	Packages   int           `json:"packages" bson:"packages"`
	Superseded int           `json:"superseded" bson:"superseded"`
	NodeCount  int           `json:"node_count" bson:"node_count"`
	EdgeCount  int           `json:"edge_count" bson:"edge_count"`
	Skipped    int           `json:"skipped" bson:"skipped"`
	TotalTime  time.Duration `json:"total_time" bson:"total_time"`
}

// NewRun builds an archive document from a pipeline result. CreatedAt is
// stamped with the current time in UTC.
func NewRun(result pipeline.Result, opts pipeline.Options) Run {
	stats := result.Stats
	return Run{
		RunID:        result.RunID,
		CreatedAt:    time.Now().UTC(),
		SnapshotHash: result.SnapshotHash,
		Strategy:     string(opts.Strategy),
		Stats: RunStats{
			Packages:   stats.Packages,
			Superseded: stats.Superseded,
			NodeCount:  stats.NodeCount,
			EdgeCount:  stats.EdgeCount,
			Skipped:    stats.Skipped,
			TotalTime:  stats.SelectTime + stats.BuildTime + stats.TraverseTime + stats.AggregateTime,
		},
		Summaries: result.Summaries,
	}
}

// Store is the interface for run archive backends.
type Store interface {
	// Put archives a run. Archiving the same run ID twice is a
	// DUPLICATE_RECORD error.
	Put(ctx context.Context, run Run) error

	// Get retrieves a run by ID, including its summary table.
	// A missing run is a NOT_FOUND error.
	Get(ctx context.Context, runID string) (*Run, error)

	// List returns runs newest first, without their summary tables.
	// A non-positive limit returns all runs.
	List(ctx context.Context, limit int) ([]Run, error)

	// Delete removes a run. A missing run is a NOT_FOUND error.
	Delete(ctx context.Context, runID string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
