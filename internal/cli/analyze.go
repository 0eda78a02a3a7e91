package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libklein/pypi-dependency-analysis/pkg/export"
	"github.com/libklein/pypi-dependency-analysis/pkg/pipeline"
	"github.com/libklein/pypi-dependency-analysis/pkg/reach"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
	"github.com/libklein/pypi-dependency-analysis/pkg/store"
)

// =============================================================================
// Shared Run Plumbing
// =============================================================================

// runOpts are the pipeline flags shared by every command that analyzes a
// snapshot.
type runOpts struct {
	strategy string
	workers  int
	refresh  bool
	noCache  bool
}

// addRunFlags registers the shared pipeline flags on cmd.
func addRunFlags(cmd *cobra.Command, o *runOpts) {
	cmd.Flags().StringVar(&o.strategy, "strategy", "", "traversal strategy: bfs or scc")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "traversal worker count (0 = one per CPU)")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "recompute even when cached results exist")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable result caching entirely")
}

// pipelineOptions layers config defaults under the flag values.
func (c *CLI) pipelineOptions(o runOpts) pipeline.Options {
	strategy := o.strategy
	if strategy == "" {
		strategy = c.cfg.Strategy
	}
	workers := o.workers
	if workers == 0 {
		workers = c.cfg.Workers
	}
	return pipeline.Options{
		Strategy: reach.Strategy(strategy),
		Workers:  workers,
		Refresh:  o.refresh,
		Logger:   c.Logger,
	}
}

// execute reads a snapshot file and runs the analysis pipeline over it.
func (c *CLI) execute(ctx context.Context, snapshotPath string, o runOpts) (*pipeline.Result, pipeline.Options, error) {
	opts := c.pipelineOptions(o)

	records, skipped, err := snapshot.ReadFile(snapshotPath)
	if err != nil {
		return nil, opts, err
	}
	if skipped > 0 {
		printWarning("Skipped %d malformed snapshot line(s)", skipped)
	}

	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return nil, opts, err
	}

	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, records, opts)
	if closeErr := runner.Close(); closeErr != nil {
		c.Logger.Warnf("closing cache: %v", closeErr)
	}
	if err != nil {
		return nil, opts, err
	}
	p.done("Analysis complete")

	return result, opts, nil
}

// =============================================================================
// Analyze Command
// =============================================================================

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		o       runOpts
		output  string
		format  string
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <snapshot>",
		Short: "Compute the per-package summary table for a snapshot",
		Long: `Analyze runs the full pipeline over a snapshot: select the latest
version of every package, build the dependency graph, compute transitive
closures in both directions, and aggregate one summary row per package.

Summary rows carry the transitive dependency list, the cumulative
installed size, and the number of packages each one provides for.`,
		Example: `  pypigraph analyze snapshot.jsonl
  pypigraph analyze snapshot.jsonl --strategy scc --format csv -o summary.csv
  pypigraph analyze snapshot.jsonl --archive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if format != "jsonl" && format != "csv" {
				return fmt.Errorf("invalid format: %q (must be one of: jsonl, csv)", format)
			}

			result, opts, err := c.execute(ctx, args[0], o)
			if err != nil {
				return err
			}

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()

			switch format {
			case "csv":
				err = export.WriteSummariesCSV(out, result.Summaries)
			default:
				err = export.WriteSummaries(out, result.Summaries)
			}
			if err != nil {
				return err
			}

			if output != "" {
				printSuccess("Wrote %d summary rows", len(result.Summaries))
				printFile(output)
				printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.SummaryHit)
			}

			if archive {
				return c.archiveRun(ctx, result, opts)
			}
			return nil
		},
	}

	addRunFlags(cmd, &o)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "jsonl", "output format: jsonl or csv")
	cmd.Flags().BoolVar(&archive, "archive", false, "archive the run in MongoDB")

	return cmd
}

// archiveRun stores the finished run in the configured archive.
func (c *CLI) archiveRun(ctx context.Context, result *pipeline.Result, opts pipeline.Options) error {
	st, err := store.NewMongoStore(ctx, store.MongoConfig{
		URI:      c.cfg.MongoURI,
		Database: c.cfg.MongoDatabase,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(ctx); err != nil {
			c.Logger.Warnf("closing archive: %v", err)
		}
	}()

	run := store.NewRun(*result, opts)
	if err := st.Put(ctx, run); err != nil {
		return err
	}

	printSuccess("Archived run %s", run.RunID)
	return nil
}
