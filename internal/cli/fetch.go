package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libklein/pypi-dependency-analysis/pkg/integrations/pypi"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// fetchCommand creates the fetch command for acquiring package metadata.
func (c *CLI) fetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Acquire package metadata and write a snapshot",
	}

	cmd.AddCommand(c.fetchCrawlCommand())
	cmd.AddCommand(c.fetchScanCommand())

	return cmd
}

// fetchCrawlCommand creates the "fetch crawl" subcommand.
func (c *CLI) fetchCrawlCommand() *cobra.Command {
	var (
		depth    int
		maxNodes int
		refresh  bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "crawl <package>...",
		Short: "Crawl PyPI metadata starting from one or more root packages",
		Long: `Crawl fetches metadata for the given packages and follows their runtime
dependencies transitively, writing one snapshot record per package.

Responses are cached on disk (or in Redis when configured), so repeated
crawls over the same packages are cheap. Use --refresh to force fresh
API calls.`,
		Example: `  pypigraph fetch crawl flask
  pypigraph fetch crawl boto3 requests --depth 3 -o aws.jsonl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			backend, err := c.newBackend(ctx, false)
			if err != nil {
				return err
			}
			defer backend.Close()

			client := pypi.NewClient(backend, c.cfg.HTTPTTL.Value())

			sp := newSpinnerWithContext(ctx, fmt.Sprintf("Crawling %d root package(s)", len(args)))
			sp.Start()

			records, err := client.Crawl(ctx, args, pypi.CrawlOptions{
				MaxDepth: intOr(depth, c.cfg.MaxDepth),
				MaxNodes: intOr(maxNodes, c.cfg.MaxNodes),
				Refresh:  refresh,
				Logger:   c.Logger.Warnf,
			})
			if err != nil {
				sp.StopWithError("Crawl failed")
				return err
			}
			sp.Stop()

			if err := snapshot.WriteFile(output, records); err != nil {
				return err
			}

			printSuccess("Crawled %d packages", len(records))
			printFile(output)
			printNextStep("Analyze the snapshot", "pypigraph analyze "+output)
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 0, "maximum dependency depth to follow")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "maximum number of packages to fetch")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the metadata cache")
	cmd.Flags().StringVarP(&output, "output", "o", "snapshot.jsonl", "snapshot output path")

	return cmd
}

// fetchScanCommand creates the "fetch scan" subcommand.
func (c *CLI) fetchScanCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Convert a directory of PyPI API responses into a snapshot",
		Long: `Scan reads per-package JSON metadata files from a directory (one PyPI
API response per file) and writes them as a snapshot. Files that fail to
parse are skipped with a warning.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, skipped, err := pypi.ScanDir(args[0])
			if err != nil {
				return err
			}
			if skipped > 0 {
				printWarning("Skipped %d unreadable metadata file(s)", skipped)
			}

			if err := snapshot.WriteFile(output, records); err != nil {
				return err
			}

			printSuccess("Scanned %d packages", len(records))
			printFile(output)
			printNextStep("Analyze the snapshot", "pypigraph analyze "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "snapshot.jsonl", "snapshot output path")

	return cmd
}

// intOr returns v when positive, falling back to the configured default.
func intOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
