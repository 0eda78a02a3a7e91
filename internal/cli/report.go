package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/libklein/pypi-dependency-analysis/pkg/export"
	"github.com/libklein/pypi-dependency-analysis/pkg/report"
)

// reportCommand creates the report command for exploring summary tables.
func (c *CLI) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Explore rankings and distributions over a snapshot",
	}

	cmd.AddCommand(c.reportTopCommand())
	cmd.AddCommand(c.reportDistCommand())
	cmd.AddCommand(c.reportScatterCommand())

	return cmd
}

// reportTopCommand creates the "report top" subcommand.
func (c *CLI) reportTopCommand() *cobra.Command {
	var (
		o      runOpts
		metric string
		n      int
	)

	cmd := &cobra.Command{
		Use:   "top <snapshot>",
		Short: "Rank packages by a summary metric",
		Example: `  pypigraph report top snapshot.jsonl
  pypigraph report top snapshot.jsonl --metric num_provides_for -n 25`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := c.execute(cmd.Context(), args[0], o)
			if err != nil {
				return err
			}

			m := report.Metric(metric)
			ranked, err := report.Top(result.Summaries, m, n)
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(fmt.Sprintf("Top %d by %s", len(ranked), metric)))
			for i, s := range ranked {
				rank := StyleDim.Render(fmt.Sprintf("%3d.", i+1))
				value := StyleNumber.Render(formatMetric(m, report.Value(s, m)))
				fmt.Printf("%s %-40s %s\n", rank, s.Name, value)
			}
			return nil
		},
	}

	addRunFlags(cmd, &o)
	cmd.Flags().StringVar(&metric, "metric", string(report.MetricTotalSize), "metric: total_size, num_requirements, or num_provides_for")
	cmd.Flags().IntVarP(&n, "top", "n", 10, "number of rows to show")

	return cmd
}

// reportDistCommand creates the "report dist" subcommand.
func (c *CLI) reportDistCommand() *cobra.Command {
	var (
		o      runOpts
		metric string
		bins   int
	)

	cmd := &cobra.Command{
		Use:   "dist <snapshot>",
		Short: "Show the distribution of a summary metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := c.execute(cmd.Context(), args[0], o)
			if err != nil {
				return err
			}

			m := report.Metric(metric)
			dist, err := report.Distribute(result.Summaries, m, bins)
			if err != nil {
				return err
			}
			stats, err := report.Describe(result.Summaries, m)
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render("Distribution of " + metric))
			printKeyValue("Packages", strconv.Itoa(stats.Count))
			printKeyValue("Min", formatMetric(m, stats.Min))
			printKeyValue("Max", formatMetric(m, stats.Max))
			printKeyValue("Mean", fmt.Sprintf("%.1f", stats.Mean))
			printKeyValue("Median", fmt.Sprintf("%.1f", stats.Median))
			fmt.Println()

			maxCount := 0
			for _, b := range dist.Bins {
				maxCount = max(maxCount, b.Count)
			}
			for _, b := range dist.Bins {
				label := fmt.Sprintf("%s .. %s", formatMetric(m, b.Low), formatMetric(m, b.High))
				fmt.Printf("%24s  %s %s\n",
					StyleDim.Render(label),
					renderBar(b.Count, maxCount, 40),
					StyleNumber.Render(strconv.Itoa(b.Count)))
			}
			return nil
		},
	}

	addRunFlags(cmd, &o)
	cmd.Flags().StringVar(&metric, "metric", string(report.MetricTotalSize), "metric: total_size, num_requirements, or num_provides_for")
	cmd.Flags().IntVar(&bins, "bins", 10, "maximum number of histogram buckets")

	return cmd
}

// reportScatterCommand creates the "report scatter" subcommand.
func (c *CLI) reportScatterCommand() *cobra.Command {
	var (
		o      runOpts
		xName  string
		yName  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "scatter <snapshot>",
		Short: "Write a per-package metric comparison as CSV",
		Long: `Scatter pairs two summary metrics per package and writes them as CSV
for plotting elsewhere.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := c.execute(cmd.Context(), args[0], o)
			if err != nil {
				return err
			}

			x, y := report.Metric(xName), report.Metric(yName)
			points, err := report.Scatter(result.Summaries, x, y)
			if err != nil {
				return err
			}

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()

			if err := export.WritePointsCSV(out, x, y, points); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Wrote %d points", len(points))
				printFile(output)
			}
			return nil
		},
	}

	addRunFlags(cmd, &o)
	cmd.Flags().StringVar(&xName, "x", string(report.MetricRequirements), "metric on the x axis")
	cmd.Flags().StringVar(&yName, "y", string(report.MetricTotalSize), "metric on the y axis")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: stdout)")

	return cmd
}

// formatMetric renders a metric value, using byte units for sizes.
func formatMetric(m report.Metric, v int64) string {
	if m == report.MetricTotalSize {
		return formatBytes(v)
	}
	return strconv.FormatInt(v, 10)
}
